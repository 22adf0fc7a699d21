package telegram

import (
	"strings"

	"blog-social/domain/model"
)

var (
	markdownEscaper = strings.NewReplacer(
		`\`, `\\`,
		"_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
		"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`,
		"=", `\=`, "|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
	)
	// inside (...) of an inline link only ')' and '\' need escaping
	linkEscaper = strings.NewReplacer(`\`, `\\`, ")", `\)`)
)

// EscapeMarkdown escapes every MarkdownV2 reserved character.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// FormatMarkdown renders a bold title, the body and an optional read-more link.
func FormatMarkdown(content model.AdaptedContent) string {
	var b strings.Builder
	b.WriteString("*")
	b.WriteString(EscapeMarkdown(content.Title))
	b.WriteString("*\n\n")
	b.WriteString(EscapeMarkdown(content.Text))
	if content.Link != "" {
		b.WriteString("\n\n[Read more](")
		b.WriteString(linkEscaper.Replace(content.Link))
		b.WriteString(")")
	}
	return b.String()
}
