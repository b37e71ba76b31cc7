// ABOUTME: Tests for text, markdown and HTML table output
// ABOUTME: Checks alignment, escaping and empty tables

package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/automation-console/internal/api"
)

var remotes = Table{
	Title:   "Remotes",
	Headers: []string{"Name", "URL"},
	Rows: [][]string{
		{"community", "https://galaxy.ansible.com/"},
		{"rh-certified", "https://console.redhat.com/api/automation-hub/"},
	},
	Footer: "Page 1, 2 items",
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TEXT": FormatText, "md": FormatMarkdown, "markdown": FormatMarkdown, "html": FormatHTML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("yaml")
	assert.ErrorIs(t, err, api.ErrInvalidInput)
}

func TestWrite_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, remotes))

	lines := strings.Split(buf.String(), "\n")
	assert.Contains(t, lines, "  Remotes")
	assert.Contains(t, lines, "  NAME          URL")
	assert.Contains(t, lines, "  community     https://galaxy.ansible.com/")
	assert.Contains(t, buf.String(), "Page 1, 2 items")
}

func TestWrite_TextEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, Table{Headers: []string{"Name"}}))
	assert.Equal(t, "  (no items)\n", buf.String())
}

func TestWrite_TextTruncatesAndFlattens(t *testing.T) {
	var buf bytes.Buffer
	long := strings.Repeat("x", 80)
	require.NoError(t, Write(&buf, FormatText, Table{
		Headers: []string{"Description"},
		Rows:    [][]string{{"line one\nline two"}, {long}},
	}))
	assert.Contains(t, buf.String(), "line one line two")
	assert.Contains(t, buf.String(), strings.Repeat("x", 57)+"...")
	assert.NotContains(t, buf.String(), long)
}

func TestMarkdown(t *testing.T) {
	md := Markdown(remotes)
	assert.Equal(t, "## Remotes\n\n"+
		"| Name | URL |\n"+
		"| --- | --- |\n"+
		"| community | https://galaxy.ansible.com/ |\n"+
		"| rh-certified | https://console.redhat.com/api/automation-hub/ |\n"+
		"\nPage 1, 2 items\n", md)
}

func TestMarkdown_EscapesCells(t *testing.T) {
	md := Markdown(Table{
		Headers: []string{"Name"},
		Rows:    [][]string{{"a|b *c* <d>"}, {}},
	})
	assert.Contains(t, md, `| a\|b \*c\* \<d\> |`)
	assert.Contains(t, md, "|  |\n", "short rows are padded")
}

func TestMarkdown_Empty(t *testing.T) {
	assert.Equal(t, "_No items._\n", Markdown(Table{Headers: []string{"Name"}}))
}

func TestWrite_HTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatHTML, Table{
		Title:   "Users",
		Headers: []string{"Username", "Email"},
		Rows:    [][]string{{"dev_ops", "<script>alert(1)</script>"}, {"a|b", "x & y"}},
	}))

	out := buf.String()
	assert.Contains(t, out, "<h2>Users</h2>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<th>Username</th>")
	assert.Contains(t, out, "<td>dev_ops</td>")
	assert.Contains(t, out, "<td>a|b</td>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "x &amp; y")
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, Format("pdf"), remotes)
	assert.ErrorIs(t, err, api.ErrInvalidInput)
}
