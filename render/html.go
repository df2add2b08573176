package render

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

type HTMLOptions struct {
	WordsPerPage int
	MinPageWords int
	AutoPrint    bool
}

type htmlPage struct {
	Number int
	First  bool
	Last   bool
	Blocks []Block
}

type htmlView struct {
	Doc       *Document
	Pages     []htmlPage
	Total     int
	AutoPrint bool
}

var pageTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format("2006-01-02 15:04:05 MST")
	},
	"heading": func(b Block) bool { return b.Kind == HeadingBlock },
	"field":   func(b Block) bool { return b.Kind == FieldBlock },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Doc.Title}}{{with .Doc.SubmissionID}} - {{.}}{{end}}</title>
<style>
@page { size: letter; margin: 0.6in; }
body { font-family: Helvetica, Arial, sans-serif; font-size: 11pt; color: #111; }
.page { position: relative; page-break-after: always; min-height: 9in; }
.page:last-child { page-break-after: auto; }
.meta td { padding: 2px 12px 2px 0; }
.label { font-weight: bold; }
.page-number { position: absolute; bottom: 0; right: 0; font-size: 8pt; color: #666; }
.verification { border-top: 1px solid #999; margin-top: 24px; padding-top: 8px; font-size: 9pt; }
.watermark { position: absolute; left: -10000px; font-size: 1px; color: transparent; user-select: none; }
</style>
</head>
<body>
{{- range .Pages}}
<div class="page">
{{- if .First}}
<header>
<h1>{{$.Doc.Title}}</h1>
{{- if $.Doc.Meta}}
<table class="meta">
{{- range $.Doc.Meta}}
<tr><td class="label">{{.Label}}</td><td>{{.Value}}</td></tr>
{{- end}}
</table>
{{- end}}
</header>
{{- end}}
{{- range .Blocks}}
{{- if heading .}}
<h2>{{.Text}}</h2>
{{- else if field .}}
<p><span class="label">{{.Label}}:</span> {{.Text}}</p>
{{- else}}
<p>{{.Text}}</p>
{{- end}}
{{- end}}
{{- if .Last}}
<footer class="verification">
{{- with $.Doc.Footer}}
{{- if .SubmittedBy}}<p>Digitally verified by {{.SubmittedBy}}{{with stamp .VerifiedAt}} on {{.}}{{end}} (PIN verified)</p>{{end}}
{{- if .VerificationHash}}<p>Verification hash: {{.VerificationHash}}</p>{{end}}
{{- if .ContentHash}}<p>Content hash: {{.ContentHash}}</p>{{end}}
{{- end}}
{{- with $.Doc.SubmissionID}}<p>Submission ID: {{.}}</p>{{end}}
</footer>
{{- with $.Doc.Footer.Watermark}}
<div class="watermark">{{.}}</div>
{{- end}}
{{- end}}
<div class="page-number">Page {{.Number}} of {{$.Total}}</div>
</div>
{{- end}}
{{- if .AutoPrint}}
<script>window.addEventListener("load", function () { window.print(); });</script>
{{- end}}
</body>
</html>
`))

// HTML renders doc as one <div class="page"> per page and returns the page count.
func HTML(doc *Document, opts HTMLOptions) (string, int, error) {
	chunks := Paginate(doc.Blocks(), opts.WordsPerPage, opts.MinPageWords)
	view := htmlView{Doc: doc, Total: len(chunks), AutoPrint: opts.AutoPrint}
	for i, c := range chunks {
		view.Pages = append(view.Pages, htmlPage{
			Number: i + 1,
			First:  i == 0,
			Last:   i == len(chunks)-1,
			Blocks: c,
		})
	}
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, view); err != nil {
		return "", 0, fmt.Errorf("render html: %w", err)
	}
	return buf.String(), len(chunks), nil
}
