package intent

import "portfolio-chatbot/internal/domain"

// Confidence constants for rule-based matches. These are heuristic scores,
// not calibrated probabilities.
const (
	commandConfidence  = 0.95
	topicConfidence    = 0.85
	greetingConfidence = 0.8
	defaultConfidence  = 0.3
)

// rule associates an ordered trigger list with an intent. Triggers are stored
// already normalized (lowercase, no diacritics); a rule matches when the
// normalized input contains any trigger.
type rule struct {
	intent     string
	confidence float64
	triggers   []string
	route      string
	theme      string
}

// themeRules are evaluated first: an explicit appearance command outranks
// every topic, even when the message also mentions one.
var themeRules = []rule{
	{
		intent:     ThemeDark,
		confidence: commandConfidence,
		theme:      domain.ThemeDark,
		triggers:   []string{"dark mode", "che do toi", "nen toi", "giao dien toi", "toi man hinh"},
	},
	{
		intent:     ThemeLight,
		confidence: commandConfidence,
		theme:      domain.ThemeLight,
		triggers:   []string{"light mode", "che do sang", "nen sang", "giao dien sang", "sang man hinh"},
	},
	{
		intent:     ThemeSystem,
		confidence: commandConfidence,
		theme:      domain.ThemeSystem,
		triggers:   []string{"system theme", "theme he thong", "che do he thong", "theo he thong", "doi theme", "change theme", "doi giao dien"},
	},
}

// navVerbs signal an explicit navigation command. A navigation rule only
// matches when one of these is present alongside a target trigger.
var navVerbs = []string{
	"chuyen toi", "chuyen den", "chuyen sang", "di den", "di toi",
	"mo trang", "toi trang", "den trang", "dieu huong", "xem trang",
	"go to", "open the", "navigate", "take me",
}

// navTargets map route keys to target vocabulary, checked in a fixed order so
// "chuyen toi du an cua blog" routes deterministically.
var navTargets = []rule{
	{
		intent:   NavigateProjects,
		route:    domain.RouteProjects,
		triggers: []string{"du an", "projects", "project", "san pham"},
	},
	{
		intent:   NavigateBlog,
		route:    domain.RouteBlog,
		triggers: []string{"blog", "bai viet"},
	},
	{
		intent:   NavigateContact,
		route:    domain.RouteContact,
		triggers: []string{"lien he", "contact"},
	},
	{
		intent:   NavigateAbout,
		route:    domain.RouteAbout,
		triggers: []string{"gioi thieu", "about", "ban than"},
	},
	{
		intent:   NavigateHome,
		route:    domain.RouteHome,
		triggers: []string{"trang chu", "home", "dau trang"},
	},
}

// topicRules carry the documented topic precedence: blog > contact >
// projects > skills > about > greeting > help. Reordering them changes
// routing for messages that mention several topics.
var topicRules = []rule{
	{
		intent:     Blog,
		confidence: topicConfidence,
		triggers:   []string{"blog", "bai viet", "bai blog", "viet ve", "post", "article"},
	},
	{
		intent:     Contact,
		confidence: topicConfidence,
		triggers:   []string{"lien he", "contact", "email", "so dien thoai", "phone", "dia chi", "linkedin", "github", "ket noi", "gap mat"},
	},
	{
		intent:     Projects,
		confidence: topicConfidence,
		triggers:   []string{"du an", "project", "projects", "san pham", "portfolio", "da lam", "dang lam", "demo"},
	},
	{
		intent:     Skills,
		confidence: topicConfidence,
		triggers:   []string{"ky nang", "skill", "cong nghe", "ngon ngu lap trinh", "framework", "stack", "thanh thao", "biet gi"},
	},
	{
		intent:     About,
		confidence: topicConfidence,
		triggers:   []string{"gioi thieu", "about", "ban than", "la ai", "tieu su", "kinh nghiem", "hoc van", "bang cap"},
	},
	{
		intent:     Greeting,
		confidence: greetingConfidence,
		triggers:   []string{"xin chao", "chao ban", "chao buoi", "hello", "hi", "hey", "alo", "chao"},
	},
	{
		intent:     Help,
		confidence: greetingConfidence,
		triggers:   []string{"giup", "help", "huong dan", "ho tro", "lam duoc gi", "chuc nang", "su dung"},
	},
}
