package similarity

import (
	"sort"
	"strings"
)

// TokenSortRatio compares both strings after sorting their whitespace tokens.
func TokenSortRatio(a, b string) float64 {
	return Ratio(strings.Join(sortedTokens(a), " "), strings.Join(sortedTokens(b), " "))
}

// TokenSetRatio compares the shared tokens against each side's leftovers, so
// "milk" and "whole milk" score as a full match.
func TokenSetRatio(a, b string) float64 {
	ts := splitTokens(a, b)
	if ts.empty() {
		return 0
	}
	if ts.subset() {
		return 100
	}

	ab := strings.Join(ts.onlyA, " ")
	ba := strings.Join(ts.onlyB, " ")
	sect := strings.Join(ts.common, " ")
	sl := runeLen(sect)
	al := runeLen(ab)
	bl := runeLen(ba)

	sep := 0
	if sl > 0 {
		sep = 1
	}
	sab := sl + sep + al
	sba := sl + sep + bl
	dist := al + bl - 2*lcs([]rune(ab), []rune(ba))

	result := 0.0
	if total := sab + sba; total > 0 {
		result = 100 * (1 - float64(dist)/float64(total))
	}
	if sl == 0 {
		return result
	}
	r1 := 100 * (1 - float64(sep+al)/float64(sl+sab))
	r2 := 100 * (1 - float64(sep+bl)/float64(sl+sba))
	return max(result, r1, r2)
}

// TokenRatio is the better of TokenSortRatio and TokenSetRatio.
func TokenRatio(a, b string) float64 {
	return max(TokenSortRatio(a, b), TokenSetRatio(a, b))
}

// PartialTokenRatio runs PartialRatio over the sorted token sets.
func PartialTokenRatio(a, b string) float64 {
	ts := splitTokens(a, b)
	if ts.empty() {
		return 0
	}
	if ts.subset() {
		return 100
	}
	result := PartialRatio(strings.Join(ts.allA, " "), strings.Join(ts.allB, " "))
	if len(ts.common) == 0 {
		return result
	}
	return max(result, PartialRatio(strings.Join(ts.onlyA, " "), strings.Join(ts.onlyB, " ")))
}

type tokenSets struct {
	allA, allB   []string
	common       []string
	onlyA, onlyB []string
}

func (t tokenSets) empty() bool { return len(t.allA) == 0 || len(t.allB) == 0 }

// subset reports whether one side's tokens are all contained in the other's.
func (t tokenSets) subset() bool {
	return len(t.common) > 0 && (len(t.onlyA) == 0 || len(t.onlyB) == 0)
}

func splitTokens(a, b string) tokenSets {
	setA := uniqueTokens(a)
	setB := uniqueTokens(b)
	var ts tokenSets
	for tok := range setA {
		ts.allA = append(ts.allA, tok)
		if _, ok := setB[tok]; ok {
			ts.common = append(ts.common, tok)
		} else {
			ts.onlyA = append(ts.onlyA, tok)
		}
	}
	for tok := range setB {
		ts.allB = append(ts.allB, tok)
		if _, ok := setA[tok]; !ok {
			ts.onlyB = append(ts.onlyB, tok)
		}
	}
	for _, s := range [][]string{ts.allA, ts.allB, ts.common, ts.onlyA, ts.onlyB} {
		sort.Strings(s)
	}
	return ts
}

func uniqueTokens(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		out[tok] = struct{}{}
	}
	return out
}

func sortedTokens(s string) []string {
	toks := strings.Fields(s)
	sort.Strings(toks)
	return toks
}

func runeLen(s string) int { return len([]rune(s)) }
