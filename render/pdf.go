package render

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// PDFRenderer produces a PDF file for a document.
type PDFRenderer interface {
	Render(doc *Document) ([]byte, error)
}

// FPDF renders with the core Helvetica fonts (cp1252).
type FPDF struct {
	Creator string
}

var _ PDFRenderer = FPDF{}

func (r FPDF) Render(doc *Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	creator := r.Creator
	if creator == "" {
		creator = "VeriVault"
	}

	pdf.SetTitle(doc.Title, true)
	pdf.SetSubject(doc.SubmissionID, false)
	pdf.SetAuthor(doc.Footer.SubmittedBy, true)
	pdf.SetCreator(creator, false)
	// 审计标签放进元数据，便于事后检索
	pdf.SetKeywords(doc.Footer.Watermark, false)
	if !doc.GeneratedAt.IsZero() {
		pdf.SetCreationDate(doc.GeneratedAt)
	}
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-14)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(110, 110, 110)
		pdf.CellFormat(120, 6, tr(doc.SubmissionID), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
		if doc.Footer.Watermark != "" {
			// 白色 1pt 文字，打印不可见
			pdf.SetFont("Helvetica", "", 1)
			pdf.SetTextColor(255, 255, 255)
			pdf.Text(18, 276, doc.Footer.Watermark)
		}
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	if len(doc.Meta) > 0 {
		pdf.SetFont("Helvetica", "", 9)
		for _, m := range doc.Meta {
			pdf.SetFont("Helvetica", "B", 9)
			pdf.CellFormat(40, 5, tr(m.Label), "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 9)
			pdf.MultiCell(0, 5, tr(m.Value), "", "L", false)
		}
		pdf.Ln(4)
	}

	for _, s := range doc.Sections {
		if s.Heading != "" {
			pdf.SetFont("Helvetica", "B", 12)
			pdf.SetFillColor(232, 236, 241)
			pdf.CellFormat(0, 7, tr(s.Heading), "", 1, "L", true, 0, "")
			pdf.Ln(1)
		}
		for _, f := range s.Fields {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(50, 5.5, tr(f.Label), "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5.5, tr(f.Value), "", "L", false)
		}
		pdf.SetFont("Helvetica", "", 10)
		for _, p := range s.Paragraphs {
			pdf.MultiCell(0, 5.5, tr(p), "", "L", false)
			pdf.Ln(1.5)
		}
		pdf.Ln(3)
	}

	writeVerification(pdf, tr, doc)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeVerification(pdf *fpdf.Fpdf, tr func(string) string, doc *Document) {
	f := doc.Footer
	if f.SubmittedBy == "" && f.VerificationHash == "" && f.ContentHash == "" {
		return
	}
	pdf.Ln(4)
	pdf.SetDrawColor(150, 150, 150)
	y := pdf.GetY()
	pdf.Line(18, y, 197.9, y)
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, "Verification", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if f.SubmittedBy != "" {
		line := "Digitally verified by " + f.SubmittedBy
		if !f.VerifiedAt.IsZero() {
			line += " on " + f.VerifiedAt.UTC().Format("2006-01-02 15:04:05 MST")
		}
		pdf.MultiCell(0, 5, tr(line+" (PIN verified)"), "", "L", false)
	}
	if f.VerificationHash != "" {
		pdf.MultiCell(0, 5, "Verification hash: "+f.VerificationHash, "", "L", false)
	}
	if f.ContentHash != "" {
		pdf.MultiCell(0, 5, "Content hash: "+f.ContentHash, "", "L", false)
	}
}
