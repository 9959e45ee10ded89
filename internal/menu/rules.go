package menu

import "strings"

// Rule pairs a predicate on a dish name with the outcome it selects.
type Rule[T any] struct {
	Match   func(name string) bool
	Outcome T
}

// FirstMatch evaluates rules in order and returns the outcome of the first
// rule whose predicate holds, or fallback when none does.
func FirstMatch[T any](rules []Rule[T], name string, fallback T) T {
	for _, r := range rules {
		if r.Match(name) {
			return r.Outcome
		}
	}
	return fallback
}

// Contains builds a predicate that holds when name contains any keyword.
func Contains(keywords ...string) func(string) bool {
	return func(name string) bool {
		for _, k := range keywords {
			if strings.Contains(name, k) {
				return true
			}
		}
		return false
	}
}
