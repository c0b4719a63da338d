// Package export renders generated content as a downloadable file.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"

	DefaultFileBaseName = "generated_content"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

type Document struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ParseFormat accepts a format name or file extension in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "txt", "text":
		return FormatText, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

type Renderer struct {
	baseName string
	markdown goldmark.Markdown
}

func NewRenderer(baseName string) *Renderer {
	if baseName == "" {
		baseName = DefaultFileBaseName
	}
	return &Renderer{
		baseName: baseName,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

func (r *Renderer) Render(content string, format Format) (*Document, error) {
	switch format {
	case FormatText:
		return &Document{
			FileName:    r.baseName + ".txt",
			ContentType: "text/plain; charset=utf-8",
			Data:        []byte(content),
		}, nil
	case FormatMarkdown:
		return &Document{
			FileName:    r.baseName + ".md",
			ContentType: "text/markdown; charset=utf-8",
			Data:        []byte(content),
		}, nil
	case FormatHTML:
		var body bytes.Buffer
		if err := r.markdown.Convert([]byte(content), &body); err != nil {
			return nil, fmt.Errorf("render html: %w", err)
		}
		var doc bytes.Buffer
		doc.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
		doc.WriteString(html.EscapeString(r.baseName))
		doc.WriteString("</title>\n</head>\n<body>\n")
		doc.Write(body.Bytes())
		doc.WriteString("</body>\n</html>\n")
		return &Document{
			FileName:    r.baseName + ".html",
			ContentType: "text/html; charset=utf-8",
			Data:        doc.Bytes(),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
