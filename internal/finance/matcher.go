package finance

import "strings"

// MatchStrength orders counterparty attribution evidence. Higher values win.
type MatchStrength int

const (
	MatchNone MatchStrength = iota
	MatchSubstring
	MatchExactName
	MatchExactID
)

// CounterpartyMatcher decides whether a document recorded with the given
// counterparty id and name belongs to the candidate counterparty. The matcher
// is pluggable so a stricter strategy can replace the substring heuristic.
type CounterpartyMatcher interface {
	Match(c Counterparty, counterpartyID, name string) MatchStrength
}

// NameMatcher is the default matcher. A stored counterparty id takes absolute
// precedence: when the document carries one, only id equality matches and no
// fuzzy fallback applies. Documents without an id fall back to exact, then
// bidirectional substring comparison against the counterparty name and company
// name. Substring matching can mis-attribute documents between counterparties
// with overlapping names; that precision limit is accepted here.
type NameMatcher struct{}

// Match implements CounterpartyMatcher.
func (NameMatcher) Match(c Counterparty, counterpartyID, name string) MatchStrength {
	if counterpartyID != "" {
		if counterpartyID == c.ID {
			return MatchExactID
		}
		return MatchNone
	}
	needle := normalizeName(name)
	if needle == "" {
		return MatchNone
	}
	candidates := []string{normalizeName(c.Name), normalizeName(c.CompanyName)}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if needle == candidate {
			return MatchExactName
		}
	}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if strings.Contains(needle, candidate) || strings.Contains(candidate, needle) {
			return MatchSubstring
		}
	}
	return MatchNone
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
