// Package render turns report data into printable documents: HTML pages for
// browser print-to-PDF and real PDF files via fpdf.
package render

import (
	"strings"
	"time"
)

type Field struct {
	Label string
	Value string
}

type Section struct {
	Heading    string
	Fields     []Field
	Paragraphs []string
}

// Footer carries the verification block printed on the last page.
type Footer struct {
	SubmittedBy      string
	VerifiedAt       time.Time
	VerificationHash string
	ContentHash      string
	Watermark        string
}

type Document struct {
	Title        string
	SubmissionID string
	GeneratedAt  time.Time
	Meta         []Field
	Sections     []Section
	Footer       Footer
}

type BlockKind int

const (
	HeadingBlock BlockKind = iota
	FieldBlock
	ParagraphBlock
)

// Block is the unit of pagination. Only Text counts toward page word totals;
// a field label is repeated on every fragment of a split field.
type Block struct {
	Kind  BlockKind
	Label string
	Text  string
}

func (b Block) Words() int { return len(strings.Fields(b.Text)) }

// Blocks flattens the document body in reading order.
func (d *Document) Blocks() []Block {
	var out []Block
	for _, s := range d.Sections {
		if s.Heading != "" {
			out = append(out, Block{Kind: HeadingBlock, Text: s.Heading})
		}
		for _, f := range s.Fields {
			out = append(out, Block{Kind: FieldBlock, Label: f.Label, Text: f.Value})
		}
		for _, p := range s.Paragraphs {
			out = append(out, Block{Kind: ParagraphBlock, Text: p})
		}
	}
	return out
}

// TextDocument builds a document from assembled prose. Blank lines separate
// paragraphs; markdown-style "#" lines and short lines ending in ':' become
// section headings.
func TextDocument(title, text string, meta []Field) *Document {
	doc := &Document{Title: title, Meta: meta}
	cur := Section{}
	flush := func() {
		if cur.Heading != "" || len(cur.Paragraphs) > 0 {
			doc.Sections = append(doc.Sections, cur)
		}
		cur = Section{}
	}

	var para []string
	endPara := func() {
		if len(para) > 0 {
			cur.Paragraphs = append(cur.Paragraphs, strings.Join(para, " "))
			para = nil
		}
	}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			endPara()
		case isHeading(line):
			endPara()
			flush()
			cur.Heading = strings.TrimSuffix(strings.TrimSpace(strings.TrimLeft(line, "#")), ":")
			cur.Heading = strings.Trim(cur.Heading, "* ")
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "), strings.HasPrefix(line, "• "):
			endPara()
			cur.Paragraphs = append(cur.Paragraphs, "• "+strings.TrimSpace(line[strings.Index(line, " ")+1:]))
		default:
			para = append(para, line)
		}
	}
	endPara()
	flush()
	return doc
}

func isHeading(line string) bool {
	if strings.HasPrefix(line, "#") {
		return true
	}
	if strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**") && len(line) > 4 {
		return true
	}
	return strings.HasSuffix(line, ":") && len(strings.Fields(line)) <= 6
}
