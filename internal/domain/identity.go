package domain

// Identity is the authenticated student the page is rendered for.
type Identity struct {
	ID    string
	Name  string
	Email string
}
