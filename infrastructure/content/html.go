// Package content turns the HTML stored in post blocks into the plain text and
// image list that social platforms accept.
package content

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const blockSelector = "p, div, li, h1, h2, h3, h4, h5, h6, blockquote, pre, tr"

// Extracted is the plain-text rendition of an HTML fragment
type Extracted struct {
	Text   string
	Images []string
}

// ExtractHTML strips markup from fragment, keeping one paragraph per block
// element, and collects <img src> values resolved against base.
func ExtractHTML(fragment, base string) (Extracted, error) {
	if !strings.Contains(fragment, "<") {
		return Extracted{Text: normalize(fragment)}, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return Extracted{}, fmt.Errorf("parse html: %w", err)
	}

	var out Extracted
	seen := map[string]bool{}
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		src = abs(base, strings.TrimSpace(src))
		if src == "" || seen[src] {
			return
		}
		seen[src] = true
		out.Images = append(out.Images, src)
	})

	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n\n")
	})
	out.Text = normalize(doc.Text())
	return out, nil
}

// normalize trims every line and collapses runs of blank lines into one.
func normalize(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	var (
		b     strings.Builder
		blank bool
	)
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blank = b.Len() > 0
			continue
		}
		if b.Len() > 0 {
			if blank {
				b.WriteString("\n\n")
			} else {
				b.WriteString("\n")
			}
		}
		blank = false
		b.WriteString(line)
	}
	return b.String()
}

func abs(base, ref string) string {
	if ref == "" || base == "" {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(u).String()
}
