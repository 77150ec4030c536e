package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Empty", "", ""},
		{"PlainTextUntouched", "Restart the router.", "Restart the router."},
		{"LiteralNewlines", `First line.\nSecond line.`, "First line.\nSecond line."},
		{"LiteralTabs", `a\tb`, "a\tb"},
		{"BoldStripped", "Your **password** is expired", "Your password is expired"},
		{"UnderscoreEmphasis", "use __sudo__ here", "use sudo here"},
		{"Backticks", "run `ipconfig /renew`", "run ipconfig /renew"},
		{"HeadingMarkers", "## Steps\nDo the thing", "Steps\nDo the thing"},
		{"InlineHashRuns", "urgent ## really", "urgent  really"},
		{"CollapseBlankLines", "a\n\n\n\n\nb", "a\n\nb"},
		{"TrimsWhitespace", "  hello  \n", "hello"},
		{
			"Combined",
			`## Password Reset\n\n\n\nOpen **Settings** and click __Reset__.`,
			"Password Reset\n\nOpen Settings and click Reset.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		`## Header\n**bold** and ` + "`code`" + `\n\n\n\ntail   `,
		"already\n\nnormalized text",
		"\\n\\n\\n\\n",
		"###### deep heading",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalizeRemovesMarkdownArtifacts(t *testing.T) {
	out := Normalize(`My **password** is broken.\nHelp!`)
	assert.NotContains(t, out, "**")
	assert.NotContains(t, out, `\n`)
	assert.Contains(t, out, "My password is broken.")
}
