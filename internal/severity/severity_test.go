package severity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCutsLevel(t *testing.T) {
	cuts := MustCuts(3, 15, 30)

	tests := []struct {
		score int
		want  Level
	}{
		{-5, None},
		{0, None},
		{2, None},
		{3, Low},
		{14, Low},
		{15, Moderate},
		{29, Moderate},
		{30, High},
		{1000, High},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, cuts.Level(tc.score), "score %d", tc.score)
	}
}

func TestCutsMonotonic(t *testing.T) {
	cuts := MustCuts(3, 15, 30)
	prev := cuts.Level(-10)
	for score := -9; score <= 60; score++ {
		got := cuts.Level(score)
		require.GreaterOrEqual(t, int(got), int(prev), "level dropped at score %d", score)
		prev = got
	}
}

func TestNewCutsRejectsInvalid(t *testing.T) {
	_, err := NewCuts([]int{3, 15})
	assert.Error(t, err)

	_, err = NewCuts([]int{3, 3, 30})
	assert.Error(t, err)

	_, err = NewCuts([]int{30, 15, 3})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"none":     None,
		"":         None,
		"Mild":     Low,
		"LOW":      Low,
		"moderate": Moderate,
		"critical": High,
		"severe":   High,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("extreme")
	assert.ErrorContains(t, err, "[NONE LOW MODERATE HIGH]")
}

func TestLevelOrderingAndNames(t *testing.T) {
	assert.True(t, None < Low && Low < Moderate && Moderate < High)
	assert.Equal(t, "MODERATE", Moderate.String())
	assert.Equal(t, "Level(7)", Level(7).String())

	d := Descriptions{"ok", "low", "mod", "high"}
	assert.Equal(t, "mod", d.Of(Moderate))
	assert.Equal(t, "high", d.Of(Level(9)))
}
