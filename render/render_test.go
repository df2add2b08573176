package render

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = "patrol"
	}
	return strings.Join(w, " ")
}

func totalWords(pages [][]Block) int {
	n := 0
	for _, p := range pages {
		n += pageWords(p)
	}
	return n
}

func TestChunk_650WordsMakesThreeChunks(t *testing.T) {
	blocks := []Block{{Kind: ParagraphBlock, Text: words(650)}}

	chunks := Chunk(blocks, 300)
	require.Len(t, chunks, 3)
	assert.Equal(t, 300, pageWords(chunks[0]))
	assert.Equal(t, 300, pageWords(chunks[1]))
	assert.Equal(t, 50, pageWords(chunks[2]))

	pages := Paginate(blocks, 300, 20)
	require.Len(t, pages, 3)
	for _, p := range pages {
		assert.GreaterOrEqual(t, pageWords(p), 20)
	}
}

func TestPaginate_FoldsShortTrailingPage(t *testing.T) {
	blocks := []Block{
		{Kind: HeadingBlock, Text: "Narrative"},
		{Kind: FieldBlock, Label: "Description", Text: words(400)},
		{Kind: ParagraphBlock, Text: words(209)},
	}
	require.Len(t, Chunk(blocks, 300), 3)

	pages := Paginate(blocks, 300, 20)
	require.Len(t, pages, 2)
	assert.Equal(t, 610, totalWords(pages), "no words are lost")
	assert.Equal(t, 310, pageWords(pages[1]))
}

func TestPaginate_ShortFirstPageSurvives(t *testing.T) {
	pages := Paginate([]Block{{Kind: ParagraphBlock, Text: "all quiet"}}, 300, 20)
	require.Len(t, pages, 1)
	assert.Equal(t, 2, pageWords(pages[0]))
}

func TestChunk_SplitFieldKeepsLabel(t *testing.T) {
	chunks := Chunk([]Block{{Kind: FieldBlock, Label: "Findings", Text: words(15)}}, 10)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Findings", chunks[1][0].Label)
}

func TestParseReportType(t *testing.T) {
	for in, want := range map[string]ReportType{
		"medical-incident":     MedicalIncident,
		"Medical_Incident":     MedicalIncident,
		"nonMedicalIncident":   NonMedicalIncident,
		"non-medical-incident": NonMedicalIncident,
		"security audit":       SecurityAudit,
		"audit":                SecurityAudit,
	} {
		got, err := ParseReportType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseReportType("parking-ticket")
	assert.ErrorIs(t, err, ErrInvalidReportType)
}

func TestBuildSections(t *testing.T) {
	form := map[string]any{
		"reportType":     "security-audit",
		"pin":            "1234",
		"auditDate":      "2026-05-01",
		"auditor":        "J. Ortiz",
		"gatesSecured":   true,
		"doorsSecured":   false,
		"findings":       []any{"north gate chain loose", "camera 4 offline"},
		"weatherNotes":   "heavy rain",
		"emptyField":     "",
		"lightingLevels": map[string]any{"lotA": float64(3), "lotB": 2.5},
	}
	secs, err := BuildSections(SecurityAudit, form)
	require.NoError(t, err)

	flat := map[string]string{}
	var headings []string
	for _, s := range secs {
		headings = append(headings, s.Heading)
		for _, f := range s.Fields {
			flat[f.Label] = f.Value
		}
	}
	assert.Equal(t, []string{"Audit Overview", "Perimeter", "Access Control", "Findings", "Additional Information"}, headings)
	assert.Equal(t, "Yes", flat["Gates Secured"])
	assert.Equal(t, "No", flat["Doors Secured"])
	assert.Equal(t, "north gate chain loose, camera 4 offline", flat["Findings"])
	assert.Equal(t, "heavy rain", flat["Weather Notes"])
	assert.Equal(t, "Lot A: 3; Lot B: 2.5", flat["Lighting Levels"])
	assert.NotContains(t, flat, "Pin")
	assert.NotContains(t, flat, "Empty Field")

	_, err = BuildSections("parking", form)
	assert.ErrorIs(t, err, ErrInvalidReportType)
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Police Report Number", Humanize("policeReportNumber"))
	assert.Equal(t, "Police Report Number", Humanize("police_report_number"))
	assert.Equal(t, "Lot A", Humanize("lotA"))
}

func sampleDoc(body string) *Document {
	return &Document{
		Title:        "Security Audit Report",
		SubmissionID: "VV-MABC123",
		GeneratedAt:  time.Date(2026, 5, 1, 22, 0, 0, 0, time.UTC),
		Meta:         []Field{{Label: "Officer", Value: "admin"}},
		Sections:     []Section{{Heading: "Findings", Paragraphs: []string{body}}},
		Footer: Footer{
			SubmittedBy:      "admin",
			VerifiedAt:       time.Date(2026, 5, 1, 21, 59, 0, 0, time.UTC),
			VerificationHash: "0123456789abcdef",
			Watermark:        "01234567|2026-05-01T21:59:00Z|VV-MABC123|VV1.0",
		},
	}
}

var watermarkDiv = regexp.MustCompile(`<div class="watermark">([^<]*)</div>`)

func TestHTML_PagesHeaderFooterAndWatermark(t *testing.T) {
	html, pages, err := HTML(sampleDoc(words(649)), HTMLOptions{WordsPerPage: 300, MinPageWords: 20, AutoPrint: true})
	require.NoError(t, err)

	// 649 body words + 1 heading word
	assert.Equal(t, 3, pages)
	assert.Equal(t, 3, strings.Count(html, `<div class="page">`))
	assert.Equal(t, 1, strings.Count(html, "<header>"))
	assert.Equal(t, 1, strings.Count(html, `class="verification"`))
	assert.Contains(t, html, "window.print()")
	assert.Less(t, strings.Index(html, "<header>"), strings.Index(html, `class="verification"`))

	m := watermarkDiv.FindStringSubmatch(html)
	require.NotNil(t, m)
	assert.Regexp(t, `^[0-9a-f]{8}\|.+\|[A-Z0-9\-]+\|VV[0-9.]+$`, m[1])
}

func TestHTML_EscapesUserContent(t *testing.T) {
	html, _, err := HTML(sampleDoc(`<script>alert("x")</script>`), HTMLOptions{WordsPerPage: 300, MinPageWords: 20})
	require.NoError(t, err)
	assert.NotContains(t, html, `<script>alert`)
	assert.NotContains(t, html, "window.print()")
}

func TestFPDF_Render(t *testing.T) {
	doc := sampleDoc(words(900))
	out, err := FPDF{}.Render(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.True(t, bytes.Contains(out, []byte(doc.Footer.Watermark)), "watermark is in document keywords")
}

func TestTextDocument(t *testing.T) {
	doc := TextDocument("Daily Activity Report", "## Summary\nQuiet night.\nNo alarms.\n\nObservations:\n- gate 2 open\n- lot lights out\n", nil)
	require.Len(t, doc.Sections, 2)
	assert.Equal(t, "Summary", doc.Sections[0].Heading)
	assert.Equal(t, []string{"Quiet night. No alarms."}, doc.Sections[0].Paragraphs)
	assert.Equal(t, "Observations", doc.Sections[1].Heading)
	assert.Equal(t, []string{"• gate 2 open", "• lot lights out"}, doc.Sections[1].Paragraphs)
}
