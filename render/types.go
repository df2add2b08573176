package render

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

var ErrInvalidReportType = errors.New("invalid report type")

type ReportType string

const (
	MedicalIncident    ReportType = "medical-incident"
	NonMedicalIncident ReportType = "non-medical-incident"
	SecurityAudit      ReportType = "security-audit"
)

var reportAliases = map[string]ReportType{
	"medical-incident":     MedicalIncident,
	"medical":              MedicalIncident,
	"medicalincident":      MedicalIncident,
	"non-medical-incident": NonMedicalIncident,
	"non-medical":          NonMedicalIncident,
	"nonmedicalincident":   NonMedicalIncident,
	"incident":             NonMedicalIncident,
	"security-audit":       SecurityAudit,
	"securityaudit":        SecurityAudit,
	"audit":                SecurityAudit,
}

// ParseReportType accepts canonical names plus a few spellings the forms use
// (underscores, camelCase, short forms).
func ParseReportType(s string) (ReportType, error) {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.ReplaceAll(k, "_", "-")
	k = strings.ReplaceAll(k, " ", "-")
	if t, ok := reportAliases[k]; ok {
		return t, nil
	}
	if t, ok := reportAliases[strings.ReplaceAll(k, "-", "")]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrInvalidReportType)
}

func (t ReportType) Title() string {
	switch t {
	case MedicalIncident:
		return "Medical Incident Report"
	case NonMedicalIncident:
		return "Incident Report"
	case SecurityAudit:
		return "Security Audit Report"
	}
	return "Report"
}

type fieldSpec struct {
	key   string
	label string
}

type sectionSpec struct {
	heading string
	fields  []fieldSpec
}

func f(key, label string) fieldSpec { return fieldSpec{key: key, label: label} }

var templates = map[ReportType][]sectionSpec{
	MedicalIncident: {
		{"Incident Overview", []fieldSpec{
			f("incidentDate", "Date"), f("incidentTime", "Time"), f("location", "Location"),
			f("reportedBy", "Reported By"), f("officerName", "Officer"),
		}},
		{"Patient Information", []fieldSpec{
			f("patientName", "Name"), f("patientAge", "Age"), f("patientGender", "Gender"),
			f("patientType", "Patient Type"), f("patientContact", "Contact"),
		}},
		{"Medical Response", []fieldSpec{
			f("injuryDescription", "Injury / Illness"), f("firstAidProvided", "First Aid Provided"),
			f("firstAidDetails", "First Aid Details"), f("emsCalled", "EMS Called"),
			f("emsArrivalTime", "EMS Arrival"), f("hospitalTransport", "Transported to Hospital"),
			f("hospitalName", "Hospital"),
		}},
		{"Witnesses", []fieldSpec{f("witnesses", "Witnesses"), f("witnessStatements", "Statements")}},
		{"Narrative", []fieldSpec{f("description", "Description"), f("narrative", "Narrative")}},
		{"Follow-up", []fieldSpec{f("followUpActions", "Actions"), f("supervisorNotified", "Supervisor Notified")}},
	},
	NonMedicalIncident: {
		{"Incident Overview", []fieldSpec{
			f("incidentDate", "Date"), f("incidentTime", "Time"), f("location", "Location"),
			f("incidentType", "Incident Type"), f("severity", "Severity"),
			f("reportedBy", "Reported By"), f("officerName", "Officer"),
		}},
		{"Persons Involved", []fieldSpec{f("personsInvolved", "Persons Involved"), f("witnesses", "Witnesses")}},
		{"Description", []fieldSpec{f("description", "Description"), f("narrative", "Narrative")}},
		{"Response", []fieldSpec{
			f("actionsTaken", "Actions Taken"), f("policeNotified", "Police Notified"),
			f("policeReportNumber", "Police Report #"), f("propertyDamage", "Property Damage"),
			f("estimatedLoss", "Estimated Loss"),
		}},
		{"Follow-up", []fieldSpec{f("followUpActions", "Actions"), f("supervisorNotified", "Supervisor Notified")}},
	},
	SecurityAudit: {
		{"Audit Overview", []fieldSpec{
			f("auditDate", "Date"), f("auditTime", "Time"), f("auditor", "Auditor"),
			f("location", "Site"), f("shift", "Shift"),
		}},
		{"Perimeter", []fieldSpec{
			f("perimeterCheck", "Perimeter Check"), f("fencingCondition", "Fencing"),
			f("gatesSecured", "Gates Secured"), f("lightingOperational", "Lighting Operational"),
		}},
		{"Access Control", []fieldSpec{
			f("doorsSecured", "Doors Secured"), f("alarmsTested", "Alarms Tested"),
			f("camerasOperational", "Cameras Operational"), f("keyControl", "Key Control"),
		}},
		{"Findings", []fieldSpec{
			f("findings", "Findings"), f("deficiencies", "Deficiencies"), f("recommendations", "Recommendations"),
		}},
		{"Notes", []fieldSpec{f("notes", "Notes")}},
	},
}

// never rendered, whatever the report type
var hiddenKeys = map[string]bool{
	"reportType":       true,
	"pin":              true,
	"verificationData": true,
}

// BuildSections maps free-form form data onto the template for t. Empty
// values are skipped; keys the template does not know go to a trailing
// "Additional Information" section.
func BuildSections(t ReportType, form map[string]any) ([]Section, error) {
	specs, ok := templates[t]
	if !ok {
		return nil, fmt.Errorf("%q: %w", t, ErrInvalidReportType)
	}
	used := make(map[string]bool)
	var out []Section
	for _, spec := range specs {
		sec := Section{Heading: spec.heading}
		for _, fs := range spec.fields {
			used[fs.key] = true
			if v := FormatValue(form[fs.key]); v != "" {
				sec.Fields = append(sec.Fields, Field{Label: fs.label, Value: v})
			}
		}
		if len(sec.Fields) > 0 {
			out = append(out, sec)
		}
	}

	var extra []string
	for k := range form {
		if !used[k] && !hiddenKeys[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	add := Section{Heading: "Additional Information"}
	for _, k := range extra {
		if v := FormatValue(form[k]); v != "" {
			add.Fields = append(add.Fields, Field{Label: Humanize(k), Value: v})
		}
	}
	if len(add.Fields) > 0 {
		out = append(out, add)
	}
	return out, nil
}

// FormatValue renders a decoded JSON value for display.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case bool:
		if x {
			return "Yes"
		}
		return "No"
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			if s := FormatValue(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := FormatValue(x[k]); s != "" {
				parts = append(parts, Humanize(k)+": "+s)
			}
		}
		return strings.Join(parts, "; ")
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// Humanize turns "policeReportNumber" or "police_report_number" into "Police Report Number".
func Humanize(key string) string {
	var b strings.Builder
	prevLower := false
	upNext := true
	for _, r := range key {
		if r == '_' || r == '-' || r == ' ' {
			if b.Len() > 0 && !upNext {
				b.WriteByte(' ')
			}
			upNext, prevLower = true, false
			continue
		}
		if unicode.IsUpper(r) && prevLower {
			b.WriteByte(' ')
			upNext = true
		}
		if upNext {
			r = unicode.ToUpper(r)
			upNext = false
		}
		b.WriteRune(r)
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	return b.String()
}
