package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanDefaultCodeFenceRoundTrip(t *testing.T) {
	in := `<div class="code-block"><pre><code>print(1)</code></pre></div>`
	got := CleanDefault(in)
	assert.Equal(t, "```\nprint(1)\n```", got)
}

func TestCleanDefaultEmbedsFencedCodeInText(t *testing.T) {
	in := `<div><p>Here is code:</p><div class="code-block"><pre><code>x = 1</code></pre></div><p>Done.</p></div>`
	got := CleanDefault(in)
	assert.Contains(t, got, "Here is code:")
	assert.Contains(t, got, "```\nx = 1\n```")
	assert.Contains(t, got, "Done.")
}

func TestCleanDefaultIdempotent(t *testing.T) {
	in := `<div class="code-block"><pre><code>print(1)</code></pre></div>`
	once := CleanDefault(in)
	twice := CleanDefault(once)
	assert.Equal(t, once, twice)
}

func TestCleanDefaultPlainTextUnchanged(t *testing.T) {
	in := "Hello there.\n```\ncode\n```\nBye."
	assert.Equal(t, in, CleanDefault(in))
}

func TestStrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"tags removed", "<b>bold</b> and <i>italic</i>", "bold and italic"},
		{"entities decoded", "a &lt; b &amp;&amp; c", "a < b && c"},
		{"script content dropped", "<script>alert(1)</script>text", "text"},
		{"plain text unchanged", "just text", "just text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Strip(tt.in))
		})
	}
}

func TestCollapseNewlines(t *testing.T) {
	assert.Equal(t, "a\nb\nc", CollapseNewlines("a\n\n\nb\n\nc"))
	assert.Equal(t, "unchanged", CollapseNewlines("unchanged"))
}

func TestFlattenSeparated(t *testing.T) {
	doc, err := Parse("<div><p>one</p><p>two</p><style>.x{}</style></div>")
	require.NoError(t, err)
	got := FlattenSeparated(doc.Selection, "\n")
	assert.Equal(t, "one\ntwo", got)
}

func TestFenceSelection(t *testing.T) {
	doc, err := Parse("<div><code>f()</code></div>")
	require.NoError(t, err)
	FenceSelection(doc.Find("code"))
	text := Strip(Render(doc))
	assert.Equal(t, "\n```\nf()\n```\n", text)
}
