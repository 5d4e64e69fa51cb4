package domain

// Content payloads served by the portfolio site's content API. The admin can
// edit these at any time, so banks re-fetch them per call instead of holding
// them beyond the response cache's TTL.

type HomeContent struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`
}

type AboutContent struct {
	Skills           []string `json:"skills"`
	Experience       string   `json:"experience"`
	Education        string   `json:"education"`
	AboutDescription string   `json:"aboutDescription"`
}

type ContactInfo struct {
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	GithubURL   string `json:"githubUrl"`
	LinkedinURL string `json:"linkedinUrl"`
	TwitterURL  string `json:"twitterUrl"`
}

type Project struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Post struct {
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Excerpt string `json:"excerpt"`
}
