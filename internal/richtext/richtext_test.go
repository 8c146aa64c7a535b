package richtext

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		input       string
		contains    []string
		notContains []string
	}{
		{
			name:        "strips scripts",
			input:       `<p>Hello</p><script>alert(1)</script>`,
			contains:    []string{"<p>Hello</p>"},
			notContains: []string{"script", "alert"},
		},
		{
			name:        "strips event handlers",
			input:       `<img src="https://cdn.example.com/a.jpg" onerror="steal()">`,
			contains:    []string{`src="https://cdn.example.com/a.jpg"`},
			notContains: []string{"onerror"},
		},
		{
			name:        "strips javascript urls",
			input:       `<a href="javascript:alert(1)">x</a>`,
			notContains: []string{"javascript"},
		},
		{
			name:     "external links get nofollow",
			input:    `<a href="https://example.com">site</a>`,
			contains: []string{`rel="nofollow noopener"`, `target="_blank"`},
		},
		{
			name:     "keeps figure markup",
			input:    `<figure class="hero"><figcaption>Kyoto</figcaption></figure>`,
			contains: []string{`<figure class="hero">`, "<figcaption>Kyoto</figcaption>"},
		},
		{
			name:     "keeps cjk text",
			input:    `<p>夏令營 <strong>兩週</strong></p>`,
			contains: []string{"夏令營", "<strong>兩週</strong>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Sanitize(tt.input)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, bad := range tt.notContains {
				assert.NotContains(t, got, bad)
			}
		})
	}
}

func TestSanitize_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Sanitize("   "))
}

func TestPlainText(t *testing.T) {
	t.Parallel()
	got := PlainText("<h2>Highlights</h2><ul><li>Campus tour</li><li>Host family</li></ul><p>Line one<br>line two</p>")
	assert.Equal(t, "Highlights Campus tour Host family Line one line two", got)
	assert.Empty(t, PlainText(""))
}

func TestExcerpt(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{name: "short text unchanged", input: "<p>Two weeks in Kyoto</p>", max: 50, want: "Two weeks in Kyoto"},
		{name: "cut at word boundary", input: "<p>Two weeks in Kyoto, Japan</p>", max: 14, want: "Two weeks in…"},
		{name: "cjk cut by rune", input: "<p>在京都度過兩週的文化交流</p>", max: 5, want: "在京都度過…"},
		{name: "zero max", input: "<p>x</p>", max: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Excerpt(tt.input, tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
			assert.LessOrEqual(t, utf8.RuneCountInString(strings.TrimSuffix(got, "…")), max(tt.max, 0))
		})
	}
}
