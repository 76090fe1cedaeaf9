package shared

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "control ultimate edition", NormalizeTitle("Control™: Ultimate Edition"))
	assert.Equal(t, "a plague tale innocence", NormalizeTitle("  A Plague Tale — Innocence  "))
	assert.Equal(t, "", NormalizeTitle("™©®!!!"))
}

func TestMatchScoreExactAndContainment(t *testing.T) {
	assert.Equal(t, 100, MatchScore("Rocket League", "rocket league"))
	assert.Equal(t, 100, MatchScore("Control™ Ultimate Edition", "Control: Ultimate Edition"))
	assert.Equal(t, 90, MatchScore("Control Ultimate Edition", "Control"))
}

func TestMatchScoreRejectsUnrelatedTitles(t *testing.T) {
	score := MatchScore("Celeste", "Grand Theft Auto V")
	assert.Less(t, score, 80, "unrelated titles must stay below every adapter threshold")
}

func TestBestMatchPicksHighestScore(t *testing.T) {
	label, score := BestMatch("The Witcher 3 Wild Hunt", []string{
		"The Witcher 2: Assassins of Kings",
		"The Witcher 3: Wild Hunt",
		"Thronebreaker: The Witcher Tales",
	})
	assert.Equal(t, "The Witcher 3: Wild Hunt", label)
	assert.Equal(t, 100, score)
}

func TestBestMatchEmptyCandidates(t *testing.T) {
	label, score := BestMatch("Anything", nil)
	assert.Equal(t, "", label)
	assert.Equal(t, 0, score)
}

func TestContainsNormalized(t *testing.T) {
	assert.True(t, ContainsNormalized("Ubisoft Entertainment SA", "ubisoft"))
	assert.False(t, ContainsNormalized("Ubisoft Entertainment", "Valve"))
	assert.False(t, ContainsNormalized("", "Valve"))
}

func TestMatchScoreProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("scores stay within 0-100 for any input pair", prop.ForAll(
		func(query, candidate string) bool {
			score := MatchScore(query, candidate)
			return score >= 0 && score <= 100
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("a non-empty title matches itself at 100", prop.ForAll(
		func(title string) bool {
			if NormalizeTitle(title) == "" {
				return MatchScore(title, title) == 0
			}
			return MatchScore(title, title) == 100
		},
		gen.AlphaString(),
	))

	properties.Property("scoring is symmetric", prop.ForAll(
		func(query, candidate string) bool {
			return MatchScore(query, candidate) == MatchScore(candidate, query)
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
