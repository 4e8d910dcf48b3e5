// Package templates holds the templ components of the screening page.
// screen_templ.go is generated from screen.templ by "templ generate".
package templates

// ScreenResult is one screened name as shown on the page.
type ScreenResult struct {
	Query       string
	Matched     bool
	MatchName   string
	MatchSchema string
	EntityID    string
}

// ScreenPage is the data for the screening page.
type ScreenPage struct {
	Entities int
	Query    string
	Result   *ScreenResult // nil before the first search
}
