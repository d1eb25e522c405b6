// Package markup, party chat metnini güvenli HTML'e çevirir.
//
// goldmark varsayılan renderer'ı raw HTML'i çıktıya koymaz
// ("<!-- raw HTML omitted -->"), bu yüzden html.WithUnsafe KULLANILMAZ.
// Linkify ile çıplak URL'ler tıklanabilir link olur.
package markup

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer, chat mesajlarını render eden goldmark instance'ını sarar.
// goldmark.Markdown eşzamanlı kullanıma uygundur; tek instance paylaşılır.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer, chat için yapılandırılmış bir renderer döner.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

// Render, markdown metni HTML'e çevirir. Sondaki newline kırpılır.
func (r *Renderer) Render(text string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("failed to render chat markdown: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
