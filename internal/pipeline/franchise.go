package pipeline

import "strings"

// Stand-alone tokens that carry no franchise identity.
var franchiseNoiseTokens = map[string]bool{
	"edition": true,
	"bundle":  true,
	"pack":    true,
	"dlc":     true,
}

// FranchiseKey reduces a title to a normalized leading-word signature so
// near-duplicate titles (same game on two stores, sibling entries in a
// series) can be suppressed. The title is lower-cased, non-alphanumeric
// characters become spaces, single non-digit tokens and noise tokens are
// dropped, and the first `words` remaining tokens are joined. A title
// that produces no tokens has no franchise key ("").
func FranchiseKey(title string, words int) string {
	if words < 1 {
		words = 1
	}

	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	var kept []string
	for _, tok := range strings.Fields(b.String()) {
		if len(tok) == 1 && (tok[0] < '0' || tok[0] > '9') {
			continue
		}
		if franchiseNoiseTokens[tok] {
			continue
		}
		kept = append(kept, tok)
		if len(kept) == words {
			break
		}
	}
	return strings.Join(kept, " ")
}
