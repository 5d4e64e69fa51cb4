// Package intent classifies inbound chat messages by cascading keyword
// matching over an ordered rule table. The order of the table is a deliberate
// tie-break policy: many categories share trigger vocabulary ("du an" votes
// for both navigation and projects), and the first matching rule wins.
package intent

// Intent tags routed by the chat service.
const (
	ThemeDark   = "theme_dark"
	ThemeLight  = "theme_light"
	ThemeSystem = "theme_system"

	NavigateHome     = "navigate_home"
	NavigateAbout    = "navigate_about"
	NavigateProjects = "navigate_projects"
	NavigateBlog     = "navigate_blog"
	NavigateContact  = "navigate_contact"

	Blog     = "blog"
	Contact  = "contact"
	Projects = "projects"
	Skills   = "skills"
	About    = "about"
	Greeting = "greeting"
	Help     = "help"
	Default  = "default"
)

// Classification is the result of rule-based intent matching.
type Classification struct {
	Intent     string
	Confidence float64
	// Route is set for navigate_* intents: one of the fixed route keys.
	Route string
	// Theme is set for theme_* intents: dark, light or system.
	Theme string
}

// IsCommand reports whether the classification is an imperative navigation or
// theme command rather than an information query. Commands bypass the cache
// and the learning store.
func (c Classification) IsCommand() bool {
	return c.Route != "" || c.Theme != ""
}
