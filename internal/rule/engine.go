package rule

import "sort"

// Match is the outcome of FindMatch.
type Match struct {
	Rule       *Rule
	CategoryID int64
}

// SortByPrecedence orders rules of one scope: priority descending, then
// newest first, then higher id first.
func SortByPrecedence(rules []*Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// OrderCandidates drops inactive rules and returns every personal rule
// ahead of every system rule, each group sorted by SortByPrecedence.
// The inputs are not modified.
func OrderCandidates(personal, system []*Rule) []*Rule {
	p := activeOnly(personal)
	s := activeOnly(system)
	SortByPrecedence(p)
	SortByPrecedence(s)
	return append(p, s...)
}

func activeOnly(rules []*Rule) []*Rule {
	out := make([]*Rule, 0, len(rules))
	for _, r := range rules {
		if r != nil && r.IsActive {
			out = append(out, r)
		}
	}
	return out
}

// FindMatch returns the first candidate whose keywords occur in
// description, or nil. candidates must already be in evaluation order.
func FindMatch(description string, candidates []*Rule) *Match {
	for _, r := range candidates {
		if r.Matches(description) {
			return &Match{Rule: r, CategoryID: r.CategoryID}
		}
	}
	return nil
}

// RuleHit is one matching rule reported by AllMatches.
type RuleHit struct {
	Rule            *Rule
	MatchedKeywords []string
}

// AllMatches reports every matching candidate in evaluation order.
func AllMatches(description string, candidates []*Rule) []RuleHit {
	var hits []RuleHit
	for _, r := range candidates {
		if kws := r.MatchedKeywords(description); len(kws) > 0 {
			hits = append(hits, RuleHit{Rule: r, MatchedKeywords: kws})
		}
	}
	return hits
}
