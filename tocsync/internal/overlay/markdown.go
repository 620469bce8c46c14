package overlay

import (
	"fmt"
	"html"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
)

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
	),
)

// OutlineHTML renders entries as nested lists following heading levels.
// A level deeper than its predecessor opens a sub-list; a shallower level
// closes sub-lists back to the nearest open level, never above the first.
func OutlineHTML(entries []Entry) string {
	var sb strings.Builder
	var stack []int

	for _, e := range entries {
		switch {
		case len(stack) == 0 || e.Level > stack[len(stack)-1]:
			sb.WriteString("<ul>")
			stack = append(stack, e.Level)
		default:
			sb.WriteString("</li>")
			for len(stack) > 1 && e.Level < stack[len(stack)-1] {
				sb.WriteString("</ul></li>")
				stack = stack[:len(stack)-1]
			}
		}
		fmt.Fprintf(&sb, `<li><a href="#%s">%s</a>`,
			html.EscapeString(e.HeadingID), html.EscapeString(e.Text))
	}

	if len(stack) > 0 {
		sb.WriteString("</li>")
		for i := len(stack); i > 1; i-- {
			sb.WriteString("</ul></li>")
		}
		sb.WriteString("</ul>")
	}
	return sb.String()
}

// Markdown renders entries as a nested markdown list of fragment links.
func Markdown(entries []Entry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	md, err := mdConverter.ConvertString(OutlineHTML(entries))
	if err != nil {
		return "", fmt.Errorf("overlay: markdown: %w", err)
	}
	return strings.TrimSpace(md) + "\n", nil
}
