package badge

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var widthAttr = regexp.MustCompile(`<svg[^>]*\swidth="([0-9.]+)"`)

func svgWidth(t *testing.T, svg []byte) float64 {
	t.Helper()
	m := widthAttr.FindSubmatch(svg)
	require.NotNil(t, m, "no width in %s", svg)
	w, err := strconv.ParseFloat(string(m[1]), 64)
	require.NoError(t, err)
	return w
}

func TestRender(t *testing.T) {
	svg, err := Render(Values{Label: "status", Message: "Up", Color: "#66c20a", Style: StyleFlat})
	require.NoError(t, err)

	s := string(svg)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(s), "<svg"))
	assert.Contains(t, s, ">status</text>")
	assert.Contains(t, s, ">Up</text>")
	assert.Contains(t, s, `fill="#66c20a"`)
}

func TestRender_WidthFollowsText(t *testing.T) {
	short, err := Render(Values{Label: "s", Message: "Up", Color: "#66c20a"})
	require.NoError(t, err)
	long, err := Render(Values{Label: "status", Message: "Maintenance", Color: "#66c20a"})
	require.NoError(t, err)
	assert.Greater(t, svgWidth(t, long), svgWidth(t, short))
}

func TestRender_StyleDoesNotChangeOutput(t *testing.T) {
	a, err := Render(Values{Label: "l", Message: "m", Color: "red", Style: "for-the-badge"})
	require.NoError(t, err)
	b, err := Render(Values{Label: "l", Message: "m", Color: "red", Style: StyleFlat})
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestRender_EscapesText(t *testing.T) {
	svg, err := Render(Values{Label: `<script>"x"</script>`, Message: "Up & running", Color: "#fff"})
	require.NoError(t, err)
	s := string(svg)
	assert.NotContains(t, s, "<script>")
	assert.NotContains(t, s, "Up & running")
}

func TestRender_RejectsUnsafeColor(t *testing.T) {
	svg, err := Render(Values{Message: "Up", Color: `red" onload="alert(1)`})
	require.NoError(t, err)
	assert.NotContains(t, string(svg), "onload")
	assert.Contains(t, string(svg), `fill="#999"`)
}

func TestRender_EmptyLabel(t *testing.T) {
	svg, err := Render(Values{Message: "N/A", Color: "#999"})
	require.NoError(t, err)
	assert.Contains(t, string(svg), ">N/A</text>")
}

func TestSafeColor(t *testing.T) {
	cases := map[string]string{
		"#abc":       "#abc",
		"#AABBCC":    "#AABBCC",
		"green":      "green",
		"#abcd":      "#000",
		"url(#x)":    "#000",
		"":           "#000",
		"rgb(1,2,3)": "#000",
	}
	for in, want := range cases {
		assert.Equal(t, want, SafeColor(in, "#000"), in)
	}
}
