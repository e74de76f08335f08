package volume

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Renderer serializes a volume into its output file bytes.
type Renderer interface {
	Render(vol *Volume) ([]byte, error)
}

// ForFormat returns the renderer for a volume format.
func ForFormat(format string) (Renderer, error) {
	switch format {
	case "text":
		return &TextRenderer{}, nil
	case "pdf":
		return &PDFRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown volume format %q", format)
	}
}

// TextRenderer writes a volume as a plain-text file with a header block
// per document.
type TextRenderer struct{}

func (r *TextRenderer) Render(vol *Volume) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "VOLUME %d: %s\n", vol.Number, vol.Query)
	fmt.Fprintf(&buf, "Generated: %s\n", vol.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&buf, "Documents: %d, total words: %d\n", len(vol.Documents), vol.TotalWords())
	buf.WriteString(strings.Repeat("=", 72) + "\n\n")

	for i, doc := range vol.Documents {
		fmt.Fprintf(&buf, "[%d/%d] %s\n", i+1, len(vol.Documents), headerTitle(doc.Title))
		fmt.Fprintf(&buf, "Type: %s | URL: %s\n", doc.Source.Type, doc.Source.URL)
		if doc.Date != "" {
			fmt.Fprintf(&buf, "Date: %s\n", doc.Date)
		}
		fmt.Fprintf(&buf, "Words: %d\n", doc.WordCount)
		buf.WriteString(strings.Repeat("-", 72) + "\n")
		buf.WriteString(doc.Content.Text)
		buf.WriteString("\n\n")
	}

	return buf.Bytes(), nil
}

// PDFRenderer writes a volume as a PDF with one section per document.
type PDFRenderer struct{}

func (r *PDFRenderer) Render(vol *Volume) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 8, tr(fmt.Sprintf("Volume %d: %s", vol.Number, vol.Query)), "", "L", false)
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, tr(fmt.Sprintf("%d documents, %d words, generated %s",
		len(vol.Documents), vol.TotalWords(), vol.CreatedAt.Format("2006-01-02"))), "", "L", false)

	for _, doc := range vol.Documents {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 13)
		pdf.MultiCell(0, 7, tr(headerTitle(doc.Title)), "", "L", false)

		pdf.SetFont("Helvetica", "I", 9)
		meta := doc.Source.URL
		if doc.Date != "" {
			meta += " (" + doc.Date + ")"
		}
		pdf.MultiCell(0, 5, tr(meta), "", "L", false)
		pdf.Ln(3)

		pdf.SetFont("Helvetica", "", 11)
		for _, para := range strings.Split(doc.Content.Text, "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			pdf.MultiCell(0, 5, tr(para), "", "L", false)
			pdf.Ln(2)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf rendering failed: %w", err)
	}
	return buf.Bytes(), nil
}

func headerTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "(untitled)"
	}
	return title
}
