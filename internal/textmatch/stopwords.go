package textmatch

// Vietnamese and English function words dropped before extracting pattern
// keywords. Stored post-Normalize (no diacritics).
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		// Vietnamese
		"la", "cua", "va", "co", "khong", "duoc", "cho", "toi", "ban",
		"minh", "anh", "chi", "em", "gi", "nao", "the", "nhu", "voi",
		"mot", "nhung", "cac", "da", "se", "dang", "o", "ve", "den",
		"tu", "hay", "thi", "ma", "lam", "nay", "do", "ay", "vay",
		"xin", "a", "u", "nhe", "nha",
		// English
		"the", "a", "an", "is", "are", "was", "were", "be", "to", "of",
		"and", "or", "in", "on", "at", "for", "with", "about", "you",
		"your", "i", "me", "my", "we", "us", "it", "this", "that",
		"what", "which", "who", "how", "do", "does", "can", "could",
		"please", "tell", "show",
	} {
		stopwords[w] = struct{}{}
	}
}

// IsStopword reports whether the normalized token is a function word.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// Keywords extracts up to max distinct non-stopword tokens from s, in order
// of first appearance. Tokens shorter than two runes are skipped.
func Keywords(s string, max int) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, t := range Tokens(s) {
		if len([]rune(t)) < 2 || IsStopword(t) {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == max {
			break
		}
	}
	return out
}
