// ABOUTME: Table output for list views as aligned text, GitHub-flavored markdown, or HTML
// ABOUTME: HTML is produced by rendering the markdown table through goldmark

package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/2389/automation-console/internal/api"
)

// Format is an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat accepts "text", "markdown" (or "md") and "html".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("%w: unknown output format %q (use text, markdown, html)", api.ErrInvalidInput, s)
	}
}

// Table is one page of a list view ready for output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Footer  string // e.g. page position and item count
}

// Write renders t to w in the given format.
func Write(w io.Writer, format Format, t Table) error {
	switch format {
	case FormatText, "":
		return writeText(w, t)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(t))
		return err
	case FormatHTML:
		return writeHTML(w, t)
	default:
		return fmt.Errorf("%w: unknown output format %q", api.ErrInvalidInput, format)
	}
}

func writeText(w io.Writer, t Table) error {
	var buf bytes.Buffer
	if t.Title != "" {
		fmt.Fprintf(&buf, "\n  %s\n  %s\n", t.Title, strings.Repeat("-", len(t.Title)))
	}

	if len(t.Rows) == 0 {
		buf.WriteString("  (no items)\n")
	} else {
		tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
		headers := make([]string, len(t.Headers))
		rules := make([]string, len(t.Headers))
		for i, h := range t.Headers {
			headers[i] = strings.ToUpper(h)
			rules[i] = strings.Repeat("-", len(h))
		}
		fmt.Fprintln(tw, "  "+strings.Join(headers, "\t"))
		fmt.Fprintln(tw, "  "+strings.Join(rules, "\t"))
		for _, row := range t.Rows {
			cells := make([]string, len(row))
			for i, c := range row {
				cells[i] = truncate(oneLine(c), 60)
			}
			fmt.Fprintln(tw, "  "+strings.Join(cells, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if t.Footer != "" {
		fmt.Fprintf(&buf, "\n  %s\n", t.Footer)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Markdown renders t as a GitHub-flavored markdown table. Cell text is
// escaped so it never breaks the table or turns into markup.
func Markdown(t Table) string {
	var b strings.Builder
	if t.Title != "" {
		fmt.Fprintf(&b, "## %s\n\n", escapeMarkdown(t.Title))
	}

	if len(t.Rows) == 0 {
		b.WriteString("_No items._\n")
	} else {
		cells := make([]string, len(t.Headers))
		for i, h := range t.Headers {
			cells[i] = escapeMarkdown(h)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		b.WriteString("|" + strings.Repeat(" --- |", len(t.Headers)) + "\n")

		for _, row := range t.Rows {
			cells := make([]string, len(t.Headers))
			for i := range cells {
				if i < len(row) {
					cells[i] = escapeMarkdown(oneLine(row[i]))
				}
			}
			b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
	}

	if t.Footer != "" {
		fmt.Fprintf(&b, "\n%s\n", escapeMarkdown(t.Footer))
	}
	return b.String()
}

var markdownRenderer = goldmark.New(goldmark.WithExtensions(extension.Table))

func writeHTML(w io.Writer, t Table) error {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(Markdown(t)), &buf); err != nil {
		return fmt.Errorf("rendering html: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
	`<`, `\<`,
	`>`, `\>`,
	`&`, `\&`,
	`|`, `\|`,
	`#`, `\#`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
