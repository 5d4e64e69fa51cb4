// Package bank holds the per-intent response banks. Static banks are ordered
// (trigger phrase, response) lists; the about, contact, projects and blog
// banks render live content-store data into templates at call time so
// admin edits show up promptly. Every bank degrades to a hardcoded sentence
// when the content store is unreachable; Respond never returns an error.
package bank

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"portfolio-chatbot/internal/domain"
	"portfolio-chatbot/internal/intent"
	"portfolio-chatbot/internal/textmatch"
)

// ContentStore is the slice of the portfolio content API the banks consume.
type ContentStore interface {
	GetHomeContent(ctx context.Context) (domain.HomeContent, error)
	GetAboutContent(ctx context.Context) (domain.AboutContent, error)
	GetContactInfo(ctx context.Context) (domain.ContactInfo, error)
	ListRecentProjects(ctx context.Context, limit int) ([]domain.Project, error)
	ListRecentPublishedPosts(ctx context.Context, limit int) ([]domain.Post, error)
}

const (
	listLimit    = 3
	fetchTimeout = 3 * time.Second
)

// Banks selects and renders responses for topic intents.
type Banks struct {
	content ContentStore

	// rngMu guards rng; *rand.Rand is not safe for concurrent use and a
	// single Banks serves every in-flight request.
	rngMu sync.Mutex
	rng   *rand.Rand
}

type Option func(*Banks)

// WithRand overrides the random source used for weighted selection. Tests
// inject a seeded source for deterministic picks.
func WithRand(rng *rand.Rand) Option {
	return func(b *Banks) {
		b.rng = rng
	}
}

func New(content ContentStore, opts ...Option) *Banks {
	b := &Banks{
		content: content,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Respond renders a response for the given intent and query. It is total: any
// content-store failure falls back to the intent's static sentence.
func (b *Banks) Respond(ctx context.Context, intentTag, query string) string {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	switch intentTag {
	case intent.Projects:
		return b.projects(ctx, query)
	case intent.Skills:
		return b.skills(ctx, query)
	case intent.About:
		return b.about(ctx)
	case intent.Contact:
		return b.contact(ctx, query)
	case intent.Blog:
		return b.blog(ctx)
	case intent.Greeting:
		return b.pick(greetingBank, query)
	case intent.Help:
		return b.pick(helpBank, query)
	default:
		return b.pick(defaultBank, query)
	}
}

// Fallback returns the hardcoded sentence for an intent, used when response
// generation itself fails.
func Fallback(intentTag string) string {
	if s, ok := fallbacks[intentTag]; ok {
		return s
	}
	return fallbacks[intent.Default]
}

func (b *Banks) projects(ctx context.Context, query string) string {
	projects, err := b.content.ListRecentProjects(ctx, listLimit)
	if err != nil || len(projects) == 0 {
		return b.pick(projectsBank, query)
	}
	var sb strings.Builder
	sb.WriteString("Đây là một vài dự án gần đây của mình:\n")
	for _, p := range projects {
		fmt.Fprintf(&sb, "• %s — %s\n", p.Title, firstSentence(p.Description))
	}
	sb.WriteString("Bạn có thể xem chi tiết ở trang Projects nhé!")
	return sb.String()
}

func (b *Banks) skills(ctx context.Context, query string) string {
	about, err := b.content.GetAboutContent(ctx)
	if err != nil || len(about.Skills) == 0 {
		return b.pick(skillsBank, query)
	}
	return fmt.Sprintf(
		"Mình làm việc chủ yếu với %s. %s",
		strings.Join(about.Skills, ", "),
		"Bạn muốn hỏi sâu hơn về công nghệ nào không?",
	)
}

// about joins the home and about fetches concurrently before templating.
func (b *Banks) about(ctx context.Context) string {
	var (
		home  domain.HomeContent
		about domain.AboutContent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		home, err = b.content.GetHomeContent(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		about, err = b.content.GetAboutContent(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Fallback(intent.About)
	}

	name := ownerName(home.Title)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Mình là %s", name)
	if home.Subtitle != "" {
		fmt.Fprintf(&sb, " — %s", home.Subtitle)
	}
	sb.WriteString(".")
	if about.AboutDescription != "" {
		sb.WriteString(" ")
		sb.WriteString(firstSentence(about.AboutDescription))
	}
	if about.Experience != "" {
		fmt.Fprintf(&sb, " Kinh nghiệm: %s.", firstSentence(about.Experience))
	}
	return sb.String()
}

func (b *Banks) contact(ctx context.Context, query string) string {
	info, err := b.content.GetContactInfo(ctx)
	if err != nil || info.Email == "" {
		return b.pick(contactBank, query)
	}
	var sb strings.Builder
	sb.WriteString("Bạn có thể liên hệ mình qua:\n")
	fmt.Fprintf(&sb, "• Email: %s\n", info.Email)
	if info.Phone != "" {
		fmt.Fprintf(&sb, "• Điện thoại: %s\n", info.Phone)
	}
	if info.GithubURL != "" {
		fmt.Fprintf(&sb, "• GitHub: %s\n", info.GithubURL)
	}
	if info.LinkedinURL != "" {
		fmt.Fprintf(&sb, "• LinkedIn: %s\n", info.LinkedinURL)
	}
	sb.WriteString("Rất vui được kết nối với bạn!")
	return sb.String()
}

func (b *Banks) blog(ctx context.Context) string {
	posts, err := b.content.ListRecentPublishedPosts(ctx, listLimit)
	if err != nil || len(posts) == 0 {
		return Fallback(intent.Blog)
	}
	var sb strings.Builder
	sb.WriteString("Mấy bài viết mới nhất trên blog của mình:\n")
	for _, p := range posts {
		fmt.Fprintf(&sb, "• %s (/blog/%s)\n", p.Title, p.Slug)
	}
	sb.WriteString("Ghé đọc thử nhé!")
	return sb.String()
}

// pick applies the bank selection policy: direct trigger match first, then
// best word overlap, then weighted random among the bank's general lines.
func (b *Banks) pick(bank staticBank, query string) string {
	normalized := textmatch.Normalize(query)
	for _, e := range bank.triggered {
		if strings.Contains(normalized, e.trigger) {
			return e.response
		}
	}

	best := -1
	bestScore := 0.0
	for i, e := range bank.triggered {
		if score := textmatch.Overlap(normalized, e.trigger); score > bestScore {
			bestScore = score
			best = i
		}
	}
	if best >= 0 {
		return bank.triggered[best].response
	}

	return bank.general[b.weightedIndex(bank.general)].response
}

func (b *Banks) weightedIndex(lines []weightedLine) int {
	total := 0
	for _, l := range lines {
		total += l.weight
	}
	b.rngMu.Lock()
	n := b.rng.Intn(total)
	b.rngMu.Unlock()
	for i, l := range lines {
		if n < l.weight {
			return i
		}
		n -= l.weight
	}
	return len(lines) - 1
}

// ownerName pulls the owner's name out of the home title ("Xin chào, tôi là
// Minh" → "Minh"). Falls back to the whole title when no marker is found.
func ownerName(title string) string {
	normalized := textmatch.Normalize(title)
	for _, marker := range []string{"toi la ", "minh la ", "i am ", "i'm "} {
		if idx := strings.Index(normalized, marker); idx >= 0 {
			// Cut the original title at the same rune offset; the
			// normalized form is rune-aligned with the original only
			// approximately, so extract from the normalized title's
			// word count instead.
			words := strings.Fields(title)
			skip := len(strings.Fields(normalized[:idx+len(marker)]))
			if skip < len(words) {
				return strings.TrimRight(strings.Join(words[skip:], " "), " .!")
			}
		}
	}
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return "chủ nhân trang web này"
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexAny(s, ".!?"); idx > 0 {
		return s[:idx]
	}
	return s
}
