package avatar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	assert.Equal(t, int32(0), Hash(""))
	assert.Equal(t, int32(97), Hash("a"))
	// 97*31 + 98
	assert.Equal(t, int32(3105), Hash("ab"))
	// wraps like a 32-bit integer
	assert.Equal(t, Hash("Budi Santoso Wijaya Kusuma"), Hash("Budi Santoso Wijaya Kusuma"))
	assert.NotEqual(t, Hash("Budi"), Hash("budi"))
}

func TestColorDeterministic(t *testing.T) {
	for _, name := range []string{"", "Sari", "Budi Santoso", "李小龍", strings.Repeat("x", 200)} {
		c := Color(name)
		assert.Contains(t, Palette, c)
		assert.Equal(t, c, Color(name))
	}
}

func TestInitials(t *testing.T) {
	tests := map[string]string{
		"budi santoso":       "BS",
		"Sari":               "S",
		"  ani  dwi  putri ": "AD",
		"":                   "?",
		"(x) yudha":          "XY",
		"élise martin":       "ÉM",
	}
	for in, want := range tests {
		assert.Equal(t, want, Initials(in), in)
	}
}

func TestSVG(t *testing.T) {
	svg := SVG("Budi Santoso", 64)
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.Contains(t, svg, `width="64"`)
	assert.Contains(t, svg, `fill="`+Color("Budi Santoso")+`"`)
	assert.Contains(t, svg, ">BS</text>")

	assert.Contains(t, SVG("<b> &", 0), `width="40"`)
	assert.NotContains(t, SVG("<b>", 0), "<b>")
}
