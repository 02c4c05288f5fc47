// Package markdown renders post content with goldmark.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"goupi/internal/goupi"
)

// Converter implements goupi.Converter with CommonMark plus the GitHub
// extensions (tables, strikethrough, task lists, autolinks) and footnotes.
// Raw HTML is passed through.
type Converter struct {
	md goldmark.Markdown
}

func NewConverter() *Converter {
	return &Converter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}
}

// ToHTML renders source. The trailing newline goldmark emits after the
// last block is dropped.
func (c *Converter) ToHTML(source []byte) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert(source, &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

var _ goupi.Converter = (*Converter)(nil)
