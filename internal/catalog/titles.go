package catalog

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"golang.org/x/text/unicode/norm"
)

const minSuggestionSimilarity = 0.6

// titleKey is the exact-match key: the title lowercased, nothing else.
func titleKey(title string) string {
	return strings.ToLower(title)
}

// normalizeTitle folds case, accents, brackets and punctuation for fuzzy comparison.
func normalizeTitle(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}

	lower := strings.ToLower(stripDiacritics(input))
	filtered := stripBracketedSegments(lower)
	return strings.Join(strings.Fields(cleanSeparators(filtered)), " ")
}

func stripDiacritics(s string) string {
	t := norm.NFD.String(s)
	out := make([]rune, 0, len(t))
	for _, r := range t {
		if unicode.IsMark(r) {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

func stripBracketedSegments(input string) string {
	var out strings.Builder
	depth := 0
	for _, r := range input {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				out.WriteRune(r)
			}
		}
	}

	return out.String()
}

func cleanSeparators(input string) string {
	var out strings.Builder
	lastSpace := false
	for _, r := range input {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			out.WriteRune(' ')
			lastSpace = true
		}
	}

	return out.String()
}

type titleEntry struct {
	display    string
	normalized string
}

type scoredTitle struct {
	title string
	score float64
}

// suggest ranks catalog titles by similarity to a query that had no exact match.
func suggest(entries []titleEntry, query string, limit int) []string {
	q := normalizeTitle(query)
	if q == "" || limit <= 0 {
		return nil
	}
	qLen := len([]rune(q))

	var scored []scoredTitle
	for _, e := range entries {
		if e.normalized == "" {
			continue
		}
		// cheap reject: a length gap this large cannot reach the threshold
		eLen := len([]rune(e.normalized))
		longer := max(qLen, eLen)
		if float64(abs(qLen-eLen))/float64(longer) > 1-minSuggestionSimilarity {
			continue
		}
		score := levenshtein.Similarity(q, e.normalized, nil)
		if score >= minSuggestionSimilarity {
			scored = append(scored, scoredTitle{title: e.display, score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	out := make([]string, 0, min(limit, len(scored)))
	for _, s := range scored {
		if len(out) == limit {
			break
		}
		out = append(out, s.title)
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
