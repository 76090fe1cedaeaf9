package services

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestHypeDeltaDays(t *testing.T) {
	start := date(2021, 9, 1)

	assert.Equal(t, 0, HypeDeltaDays(date(2021, 9, 1), start))
	assert.Equal(t, 30, HypeDeltaDays(date(2021, 10, 1), start))
	assert.Equal(t, -31, HypeDeltaDays(date(2021, 8, 1), start))
}

func TestIsStrategicHypeWindowEdges(t *testing.T) {
	assert.True(t, IsStrategicHype(0))
	assert.True(t, IsStrategicHype(90))
	assert.True(t, IsStrategicHype(45))
	assert.False(t, IsStrategicHype(-1))
	assert.False(t, IsStrategicHype(91))
}

func TestClassifyHype(t *testing.T) {
	start := date(2021, 3, 1)

	sequel := date(2021, 5, 1)
	delta, strategic := ClassifyHype(&sequel, start)
	require.NotNil(t, delta)
	assert.Equal(t, 61, *delta)
	assert.True(t, strategic)

	delta, strategic = ClassifyHype(nil, start)
	assert.Nil(t, delta)
	assert.False(t, strategic)
}

func TestClassifyHypeProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("strategic flag holds exactly inside the window", prop.ForAll(
		func(offsetDays int) bool {
			start := date(2022, 1, 1)
			sequel := start.AddDate(0, 0, offsetDays)
			delta, strategic := ClassifyHype(&sequel, start)
			if delta == nil || *delta != offsetDays {
				return false
			}
			expected := offsetDays >= HypeWindowMinDays && offsetDays <= HypeWindowMaxDays
			return strategic == expected
		},
		gen.IntRange(-400, 400),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
