// Package matcher resolves free-text inventory queries such as
// "dawlance fridge 14cuft silver" to stock items by keyword scoring.
package matcher

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// MatchStatus represents the status of a match operation
type MatchStatus int

const (
	Matched MatchStatus = iota
	Ambiguous
	Unmatched
)

func (s MatchStatus) String() string {
	switch s {
	case Matched:
		return "matched"
	case Ambiguous:
		return "ambiguous"
	case Unmatched:
		return "unmatched"
	default:
		return "unknown"
	}
}

// Item is the searchable view of an inventory item.
type Item struct {
	ID       uuid.UUID
	Name     string
	Sku      string
	Category string
}

// MatchResult contains the result of a matching operation
type MatchResult struct {
	Status     MatchStatus
	Item       *Item  // when Matched
	Candidates []Item // when Ambiguous
}

// Matcher scores items by how many query tokens hit their name and
// category. Variant tokens (colours, sizes, specs like "1.5ton") are hard
// filters: an item lacking one is never a candidate.
type Matcher struct {
	items    []Item
	keywords [][]string
	skus     map[string]int
}

const (
	variantWeight = 5
	regularWeight = 1
)

var variantKeywords = map[string]bool{
	"black":     true,
	"white":     true,
	"silver":    true,
	"grey":      true,
	"gray":      true,
	"red":       true,
	"blue":      true,
	"golden":    true,
	"small":     true,
	"medium":    true,
	"large":     true,
	"inverter":  true,
	"manual":    true,
	"automatic": true,
}

// New creates a Matcher with pre-tokenized keywords.
func New(items []Item) *Matcher {
	m := &Matcher{
		items:    items,
		keywords: make([][]string, len(items)),
		skus:     make(map[string]int),
	}

	for i, item := range items {
		m.keywords[i] = tokenize(normalize(item.Name + " " + item.Category))
		if sku := strings.ReplaceAll(normalize(item.Sku), " ", ""); sku != "" {
			m.skus[sku] = i
		}
	}

	return m
}

// Match resolves text against the item list. A query or token equal to an
// item's SKU wins outright.
func (m *Matcher) Match(text string) MatchResult {
	normalized := normalize(text)
	tokens := tokenize(normalized)

	if i, ok := m.skus[strings.ReplaceAll(normalized, " ", "")]; ok {
		return MatchResult{Status: Matched, Item: &m.items[i]}
	}
	for _, tok := range tokens {
		if i, ok := m.skus[tok]; ok {
			return MatchResult{Status: Matched, Item: &m.items[i]}
		}
	}

	inputTokens := make(map[string]bool, len(tokens))
	inputVariants := make(map[string]bool)
	for _, tok := range tokens {
		inputTokens[tok] = true
		if isVariant(tok) {
			inputVariants[tok] = true
		}
	}

	type scoredItem struct {
		item  Item
		score int
	}

	var scored []scoredItem
	for i, item := range m.items {
		keywords := m.keywords[i]

		// Hard filter: if input contains variant keywords, candidate MUST have them
		if !containsAll(keywords, inputVariants) {
			continue
		}

		score := 0
		for _, kw := range keywords {
			if inputTokens[kw] {
				if isVariant(kw) {
					score += variantWeight
				} else {
					score += regularWeight
				}
			}
		}

		if score > 0 {
			scored = append(scored, scoredItem{item: item, score: score})
		}
	}

	if len(scored) == 0 {
		return MatchResult{Status: Unmatched}
	}

	maxScore := 0
	for _, s := range scored {
		if s.score > maxScore {
			maxScore = s.score
		}
	}

	var top []Item
	for _, s := range scored {
		if s.score == maxScore {
			top = append(top, s.item)
		}
	}

	if len(top) == 1 {
		return MatchResult{Status: Matched, Item: &top[0]}
	}
	return MatchResult{Status: Ambiguous, Candidates: top}
}

func containsAll(keywords []string, want map[string]bool) bool {
	for variant := range want {
		found := false
		for _, kw := range keywords {
			if kw == variant {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func isVariant(tok string) bool {
	if variantKeywords[tok] {
		return true
	}
	_, _, ok := parseSpec(tok)
	return ok
}

// normalize lowercases s and turns separators into single spaces. A dot
// between digits is kept so "1.5ton" survives.
func normalize(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	runes := []rune(s)
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(unicode.ToLower(r))
		case r == '.' && i > 0 && i < len(runes)-1 && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]):
			sb.WriteRune(r)
		default:
			sb.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(sb.String()), " ")
}

// tokenize splits a string on whitespace
func tokenize(s string) []string {
	return strings.Fields(s)
}

// parseSpec parses a token like "14cuft" into (14, "cuft", true)
func parseSpec(tok string) (float64, string, bool) {
	digitEnd := 0
	for i, r := range tok {
		if unicode.IsDigit(r) || r == '.' {
			digitEnd = i + 1
		} else {
			break
		}
	}
	if digitEnd == 0 || digitEnd == len(tok) {
		return 0, "", false
	}

	qty, err := strconv.ParseFloat(tok[:digitEnd], 64)
	if err != nil {
		return 0, "", false
	}

	unit := tok[digitEnd:]
	for _, r := range unit {
		if !unicode.IsLetter(r) {
			return 0, "", false
		}
	}
	return qty, unit, true
}
