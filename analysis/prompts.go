package analysis

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindIncident      Kind = "incident"
	KindDailyActivity Kind = "daily-activity"
	KindSecurityAudit Kind = "security-audit"
)

// KindFor maps a client-supplied report type onto a prompt family.
// Anything unrecognised is treated as a daily activity summary.
func KindFor(reportType string) Kind {
	t := strings.ToLower(strings.TrimSpace(reportType))
	switch {
	case strings.Contains(t, "incident"):
		return KindIncident
	case strings.Contains(t, "audit"):
		return KindSecurityAudit
	}
	return KindDailyActivity
}

func (k Kind) Title() string {
	switch k {
	case KindIncident:
		return "Incident Analysis Report"
	case KindSecurityAudit:
		return "Security Audit Summary"
	}
	return "Daily Activity Report"
}

const baseSystem = `You are an experienced security operations supervisor writing reports for a property management client.
Write in clear, factual, professional prose. Do not invent events that are not in the data.
Use short markdown headings (## Heading) and bullet lists where they help. Do not wrap the answer in code fences.`

func SystemPrompt(k Kind) string {
	switch k {
	case KindIncident:
		return baseSystem + `
Focus: incidents. Cover what happened, when and where, people involved, response taken, and open follow-up items.
Flag anything that suggests a safety risk or a policy violation.`
	case KindSecurityAudit:
		return baseSystem + `
Focus: a security audit. Summarise checks performed, deficiencies found, and prioritised recommendations.
Rate overall posture as Good, Fair or Poor with a one-line justification.`
	}
	return baseSystem + `
Focus: a daily activity summary. Summarise visitor, vendor and package traffic, patrols, and notable events.
Close with a short list of items the next shift should know about.`
}

func UserPrompt(k Kind, req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a %s from the following shift data (%d rows", strings.ToLower(k.Title()), req.Table.Rows)
	if req.Table.Truncated {
		b.WriteString(", truncated")
	}
	b.WriteString(").\n\n")
	if n := strings.TrimSpace(req.Notes); n != "" {
		b.WriteString("Officer notes:\n" + n + "\n\n")
	}
	b.WriteString("Data (CSV):\n")
	b.WriteString(req.Table.CSV)
	return b.String()
}
