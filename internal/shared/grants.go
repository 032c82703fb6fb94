package shared

// Grants carries the explicit resource-access lists stored on a user
// record. They are ownership facts supplied to the access resolver, not
// permissions by themselves.
type Grants struct {
	Portfolios []string
	Projects   []string
}
