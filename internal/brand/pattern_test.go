package brand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPattern_TwoLetterBoundary(t *testing.T) {
	t.Parallel()

	re := BuildPattern("EF")
	require.NotNil(t, re)

	for _, text := range []string{"EF offers courses", "best company is EF.", "(EF)", "ef"} {
		assert.GreaterOrEqual(t, index(re, text), 0, "should match %q", text)
	}
	for _, text := range []string{"before", "chef", "refer", "beef", "reef", "EFL"} {
		assert.Equal(t, -1, index(re, text), "should not match %q", text)
	}
}

func TestBuildPattern_InnerPunctuationNoFalsePositives(t *testing.T) {
	t.Parallel()

	re := BuildPattern("EF")
	require.NotNil(t, re)

	for _, text := range []string{"b.e.f.o.r.e", "r.e.f.e.r", "chef's", "beef's", "E.F."} {
		assert.Equal(t, -1, index(re, text), "should not match %q", text)
	}

	jerry := BuildPattern("Ben & Jerry's")
	assert.Equal(t, 0, index(jerry, "Ben & Jerry\u2019s"))
	assert.Equal(t, -1, index(jerry, "Ben & Jer.rys"))
}

func TestBuildPattern_Variants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		brand string
		text  string
		pos   int
	}{
		{"ampersand", "Ben & Jerry's", "try Ben & Jerry's today", 4},
		{"spelled and", "Ben & Jerry's", "try Ben and Jerrys today", 4},
		{"and dropped", "Ben and Jerry's", "Ben Jerry's", 0},
		{"camel glued", "Coca Cola", "I like CocaCola", 7},
		{"hyphenated", "Coca Cola", "I like coca-cola", 7},
		{"accented text", "Nestle", "buy Nestlé products", 4},
		{"accented brand", "Nestlé", "buy NESTLE products", 4},
		{"digits", "7Up", "a 7 up please", 2},
		{"glued and", "Kids&Us", "KidsAndUs rocks", 0},
		{"not found", "Babbel", "Duolingo only", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.pos, index(BuildPattern(tt.brand), tt.text))
		})
	}
}

func TestBuildPattern_Empty(t *testing.T) {
	t.Parallel()

	assert.Nil(t, BuildPattern(""))
	assert.Nil(t, BuildPattern(" .' "))

	re := BuildPattern("&")
	require.NotNil(t, re)
	assert.Equal(t, -1, index(re, "nothing here"))
}
