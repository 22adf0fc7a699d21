package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CanonicalPost is the platform-agnostic representation of a blog post
type CanonicalPost struct {
	ID       string   `json:"id"`
	AuthorID string   `json:"authorId,omitempty"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Images   []string `json:"images"`
	Link     string   `json:"link,omitempty"`
}

type BlockType string

const (
	BlockText    BlockType = "text"
	BlockImage   BlockType = "image"
	BlockGallery BlockType = "gallery"
	BlockVideo   BlockType = "video"
	BlockQuote   BlockType = "quote"
	BlockCode    BlockType = "code"
	BlockEmbed   BlockType = "embed"
)

// BlockContent is the typed payload of a post block, keyed by BlockType.
type BlockContent interface {
	Type() BlockType
	// Text returns the block's contribution to the post body; may contain HTML.
	Text() string
	// ImageURLs returns the images the block contributes, in display order.
	ImageURLs() []string
}

type TextBlock struct {
	Body string `json:"text"`
}

func (TextBlock) Type() BlockType { return BlockText }
func (b TextBlock) Text() string { return b.Body }
func (TextBlock) ImageURLs() []string { return nil }

type ImageBlock struct {
	URL     string `json:"url"`
	Alt     string `json:"alt,omitempty"`
	Caption string `json:"caption,omitempty"`
}

func (ImageBlock) Type() BlockType { return BlockImage }
func (b ImageBlock) Text() string { return b.Caption }
func (b ImageBlock) ImageURLs() []string {
	if b.URL == "" {
		return nil
	}
	return []string{b.URL}
}

type GalleryBlock struct {
	Images []ImageBlock `json:"images"`
}

func (GalleryBlock) Type() BlockType { return BlockGallery }
func (GalleryBlock) Text() string { return "" }
func (b GalleryBlock) ImageURLs() []string {
	out := make([]string, 0, len(b.Images))
	for _, img := range b.Images {
		out = append(out, img.ImageURLs()...)
	}
	return out
}

type VideoBlock struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

func (VideoBlock) Type() BlockType { return BlockVideo }
func (b VideoBlock) Text() string { return strings.TrimSpace(b.Caption + " " + b.URL) }
func (VideoBlock) ImageURLs() []string { return nil }

type QuoteBlock struct {
	Quote  string `json:"text"`
	Author string `json:"author,omitempty"`
}

func (QuoteBlock) Type() BlockType { return BlockQuote }
func (b QuoteBlock) Text() string {
	if b.Author == "" {
		return "«" + b.Quote + "»"
	}
	return "«" + b.Quote + "» — " + b.Author
}
func (QuoteBlock) ImageURLs() []string { return nil }

type CodeBlock struct {
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
}

func (CodeBlock) Type() BlockType { return BlockCode }
func (b CodeBlock) Text() string { return b.Code }
func (CodeBlock) ImageURLs() []string { return nil }

type EmbedBlock struct {
	URL string `json:"url"`
}

func (EmbedBlock) Type() BlockType { return BlockEmbed }
func (b EmbedBlock) Text() string { return b.URL }
func (EmbedBlock) ImageURLs() []string { return nil }

// DecodeBlockContent validates raw block JSON against the schema of its type.
func DecodeBlockContent(t BlockType, raw []byte) (BlockContent, error) {
	var (
		content BlockContent
		err     error
	)
	switch t {
	case BlockText:
		var b TextBlock
		err = json.Unmarshal(raw, &b)
		content = b
	case BlockImage:
		var b ImageBlock
		err = json.Unmarshal(raw, &b)
		if err == nil && b.URL == "" {
			err = fmt.Errorf("image block without url")
		}
		content = b
	case BlockGallery:
		var b GalleryBlock
		err = json.Unmarshal(raw, &b)
		content = b
	case BlockVideo:
		var b VideoBlock
		err = json.Unmarshal(raw, &b)
		content = b
	case BlockQuote:
		var b QuoteBlock
		err = json.Unmarshal(raw, &b)
		content = b
	case BlockCode:
		var b CodeBlock
		err = json.Unmarshal(raw, &b)
		content = b
	case BlockEmbed:
		var b EmbedBlock
		err = json.Unmarshal(raw, &b)
		content = b
	default:
		return nil, &ValidationError{Field: "block.type", Message: "unknown block type " + string(t)}
	}
	if err != nil {
		return nil, &ValidationError{Field: "block.content", Message: fmt.Sprintf("invalid %s block: %v", t, err)}
	}
	return content, nil
}
