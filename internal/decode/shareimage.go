package decode

import (
	"context"
	"fmt"
	"strings"

	"github.com/leaselens/leaselens/internal/model"
	"github.com/leaselens/leaselens/internal/reportstore"
)

// ShareImageRenderer produces the shareable report card. Rendering is best
// effort: the orchestrator logs a renderer failure and publishes anyway.
type ShareImageRenderer interface {
	Render(ctx context.Context, m *model.ReportMapping) error
}

// SVGRenderer writes a simple scorecard SVG through the report store. It
// exists so shared links have a preview card without an image service.
type SVGRenderer struct {
	store *reportstore.Store
}

func NewSVGRenderer(store *reportstore.Store) *SVGRenderer {
	return &SVGRenderer{store: store}
}

func (r *SVGRenderer) Render(ctx context.Context, m *model.ReportMapping) error {
	return r.store.SaveImage(ctx, m.ID, renderCard(m))
}

func renderCard(m *model.ReportMapping) []byte {
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="600" height="315" viewBox="0 0 600 315">`)
	b.WriteString(`<rect width="600" height="315" fill="#101728"/>`)
	fmt.Fprintf(&b, `<text x="30" y="60" fill="#ffffff" font-family="sans-serif" font-size="28">%s</text>`,
		escape(cardTitle(m)))
	fmt.Fprintf(&b, `<text x="30" y="130" fill="#7dd87d" font-family="sans-serif" font-size="64">%d/100</text>`,
		m.Report.Scorecard.Total)
	fmt.Fprintf(&b, `<text x="30" y="180" fill="#9aa4b2" font-family="sans-serif" font-size="18">%s</text>`,
		escape(m.Report.Caption))
	b.WriteString(`</svg>`)
	return []byte(b.String())
}

func cardTitle(m *model.ReportMapping) string {
	f := m.Listing.Fields
	parts := make([]string, 0, 3)
	if f.Address != "" {
		parts = append(parts, f.Address)
	}
	if f.City != "" {
		parts = append(parts, f.City)
	}
	if f.State != "" {
		parts = append(parts, strings.ToUpper(f.State))
	}
	if len(parts) == 0 {
		return "Decoded listing"
	}
	return strings.Join(parts, ", ")
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
