package domain

// Response sources, reported in the reply envelope so callers can tell which
// component produced the answer. Cache hits append a suffix to the source the
// response was originally generated with.
const (
	SourceNavigationDirect = "navigation_direct"
	SourceThemeDirect      = "theme_direct"
	SourceLearned          = "learned"
	SourceDirect           = "direct"
	SourceFallback         = "fallback"
	SourceErrorFallback    = "error_fallback"

	SourceSuffixCached  = "_cached"
	SourceSuffixSimilar = "_similar"
)

// Theme actions emitted when the user issues an explicit theme command.
const (
	ThemeDark   = "dark"
	ThemeLight  = "light"
	ThemeSystem = "system"
)

// Route keys emitted when the user issues an explicit navigation command.
const (
	RouteHome     = "home"
	RouteAbout    = "about"
	RouteProjects = "projects"
	RouteBlog     = "blog"
	RouteContact  = "contact"
)

// RoutePath maps a route key to the site path the widget should navigate to.
var RoutePath = map[string]string{
	RouteHome:     "/",
	RouteAbout:    "/about",
	RouteProjects: "/projects",
	RouteBlog:     "/blog",
	RouteContact:  "/contact",
}

// Reply is the uniform envelope returned for every inbound chat message.
type Reply struct {
	Response         string  `json:"response"`
	Intent           string  `json:"intent"`
	Confidence       float64 `json:"confidence"`
	Source           string  `json:"source"`
	SessionID        string  `json:"sessionId"`
	ResponseTimeMs   int64   `json:"responseTime"`
	NavigationAction string  `json:"navigationAction,omitempty"`
	ThemeAction      string  `json:"themeAction,omitempty"`
}
