package shared

import (
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
)

// Fuzzy match gate used by every external lookup. Upstream giveaway titles
// are free text ("Control™ Ultimate Edition") and only approximately match
// catalog names, so a hard equality check would starve most records of
// metadata. Scores are 0-100; each adapter applies its own acceptance
// threshold and treats anything below it as no match.

// NormalizeTitle lowercases a title, strips punctuation and symbols, and
// collapses whitespace so scoring compares content rather than formatting.
func NormalizeTitle(title string) string {
	var builder strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(builder.String()), " ")
}

// MatchScore calculates the similarity between a query and one candidate on
// a 0-100 scale. Exact normalized matches score 100, containment scores 90,
// everything else falls to the better of word-overlap and character-bigram
// similarity scaled into 0-85.
func MatchScore(query, candidate string) int {
	normalizedQuery := NormalizeTitle(query)
	normalizedCandidate := NormalizeTitle(candidate)

	if normalizedQuery == "" || normalizedCandidate == "" {
		return 0
	}
	if normalizedQuery == normalizedCandidate {
		return 100
	}
	if strings.Contains(normalizedQuery, normalizedCandidate) || strings.Contains(normalizedCandidate, normalizedQuery) {
		return 90
	}

	tokenScore := tokenOverlapScore(normalizedQuery, normalizedCandidate)
	bigramScore := bigramDiceScore(normalizedQuery, normalizedCandidate)

	best := tokenScore
	if bigramScore > best {
		best = bigramScore
	}

	return int(best * 85)
}

// BestMatch scores every candidate label against the query and returns the
// best one. Callers decide acceptance with their own threshold.
func BestMatch(query string, candidates []string) (string, int) {
	var bestLabel string
	bestScore := 0

	for _, candidate := range candidates {
		score := MatchScore(query, candidate)
		if score > bestScore {
			bestScore = score
			bestLabel = candidate
		}
	}

	logrus.WithFields(logrus.Fields{
		"component":  "FuzzyMatchGate",
		"query":      query,
		"best_label": bestLabel,
		"best_score": bestScore,
		"candidates": len(candidates),
	}).Debug("Scored fuzzy match candidates")

	return bestLabel, bestScore
}

// ContainsNormalized reports whether needle appears inside haystack after
// normalization. Used to disambiguate shared titles by publisher name, where
// catalog labels carry suffixes like "Inc." or "Entertainment".
func ContainsNormalized(haystack, needle string) bool {
	normalizedHaystack := NormalizeTitle(haystack)
	normalizedNeedle := NormalizeTitle(needle)
	if normalizedHaystack == "" || normalizedNeedle == "" {
		return false
	}
	return strings.Contains(normalizedHaystack, normalizedNeedle)
}

// tokenOverlapScore computes Jaccard similarity over whitespace-split words.
func tokenOverlapScore(first, second string) float64 {
	firstWords := strings.Fields(first)
	secondWords := strings.Fields(second)

	if len(firstWords) == 0 || len(secondWords) == 0 {
		return 0.0
	}

	matchingWords := 0
	seen := make(map[string]bool, len(secondWords))
	for _, word := range secondWords {
		seen[word] = true
	}
	for _, word := range firstWords {
		if seen[word] {
			matchingWords++
			delete(seen, word)
		}
	}

	totalWords := len(firstWords) + len(secondWords) - matchingWords
	if totalWords == 0 {
		return 0.0
	}

	return float64(matchingWords) / float64(totalWords)
}

// bigramDiceScore computes Sorensen-Dice similarity over character bigrams,
// which keeps near-miss spellings ("Witcher 3" vs "The Witcher III") from
// scoring zero on word overlap alone.
func bigramDiceScore(first, second string) float64 {
	firstBigrams := bigrams(first)
	secondBigrams := bigrams(second)

	if len(firstBigrams) == 0 || len(secondBigrams) == 0 {
		return 0.0
	}

	counts := make(map[string]int, len(firstBigrams))
	for _, bigram := range firstBigrams {
		counts[bigram]++
	}

	overlap := 0
	for _, bigram := range secondBigrams {
		if counts[bigram] > 0 {
			counts[bigram]--
			overlap++
		}
	}

	return 2.0 * float64(overlap) / float64(len(firstBigrams)+len(secondBigrams))
}

func bigrams(value string) []string {
	runes := []rune(value)
	if len(runes) < 2 {
		return nil
	}
	result := make([]string, 0, len(runes)-1)
	for i := 0; i < len(runes)-1; i++ {
		result = append(result, string(runes[i:i+2]))
	}
	return result
}
