package analysis

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"verivault/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadTable_CSV(t *testing.T) {
	in := "\xef\xbb\xbfTime, Type ,Detail\n22:00,patrol,lot A clear\n\n,,\n23:15,vendor\n"
	tbl, err := ReadTable("shift.csv", []byte(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"Time", "Type", "Detail"}, tbl.Header)
	assert.Equal(t, 2, tbl.Rows)
	assert.False(t, tbl.Truncated)
	assert.Equal(t, "Time,Type,Detail\n22:00,patrol,lot A clear\n23:15,vendor,\n", tbl.CSV)
}

func TestReadTable_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Time", "Type", "Detail"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"06:00", "package", "UPS x2"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tbl, err := ReadTable("shift.xlsx", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Rows)
	assert.Equal(t, "Time,Type,Detail\n06:00,package,UPS x2\n", tbl.CSV)
}

func TestReadTable_Empty(t *testing.T) {
	_, err := ReadTable("a.csv", []byte("   \n"))
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = ReadTable("a.csv", []byte("only,a,header\n"))
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestReadTable_Truncates(t *testing.T) {
	var b strings.Builder
	b.WriteString("n\n")
	for i := 0; i < MaxRows+5; i++ {
		b.WriteString("x\n")
	}
	tbl, err := ReadTable("big.csv", []byte(b.String()))
	require.NoError(t, err)
	assert.Equal(t, MaxRows, tbl.Rows)
	assert.True(t, tbl.Truncated)
}

func TestKindFor(t *testing.T) {
	assert.Equal(t, KindIncident, KindFor("medical-incident"))
	assert.Equal(t, KindIncident, KindFor("Incident"))
	assert.Equal(t, KindSecurityAudit, KindFor("security-audit"))
	assert.Equal(t, KindDailyActivity, KindFor("daily"))
	assert.Equal(t, KindDailyActivity, KindFor(""))
}

func TestPrompts(t *testing.T) {
	req := Request{Table: Table{CSV: "a,b\n1,2\n", Rows: 1}, Notes: "gate 4 sticks"}
	p := UserPrompt(KindSecurityAudit, req)
	assert.Contains(t, p, "a,b\n1,2\n")
	assert.Contains(t, p, "gate 4 sticks")
	assert.NotEqual(t, SystemPrompt(KindIncident), SystemPrompt(KindDailyActivity))
}

func TestFormatReport(t *testing.T) {
	at := time.Date(2026, 5, 2, 6, 30, 0, 0, time.UTC)
	r := FormatReport(KindDailyActivity, "  ## Summary\nQuiet.  ", Table{Rows: 12}, at)
	assert.Equal(t, "Daily Activity Report", r.Title)
	assert.True(t, strings.HasPrefix(r.Body, "# Daily Activity Report\n\nGenerated 2026-05-02 06:30 UTC from 12 data rows.\n\n## Summary\nQuiet.\n"))
}

func TestNewClaude_RequiresKey(t *testing.T) {
	_, err := NewClaude(config.LLMConfig{Model: "claude-sonnet-4-5"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

type sentMessage struct {
	Model     string `json:"model"`
	MaxTokens int64  `json:"max_tokens"`
	System    []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
}

// messagesAPI answers POST /v1/messages with reply as the only text block
// (no content blocks when reply is empty) and records the request body.
func messagesAPI(t *testing.T, reply string, sent *sentMessage) *Claude {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(sent))

		content := []map[string]string{}
		if reply != "" {
			content = append(content, map[string]string{"type": "text", "text": reply})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"model":       sent.Model,
			"content":     content,
			"stop_reason": "end_turn",
			"usage":       map[string]int{"input_tokens": 12, "output_tokens": 7},
		})
	}))
	t.Cleanup(srv.Close)

	c, err := NewClaude(config.LLMConfig{
		APIKey:    "test-key",
		BaseURL:   srv.URL,
		Model:     "claude-sonnet-4-5",
		MaxTokens: 256,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return c
}

func TestClaude_AnalyzeSendsPromptForReportType(t *testing.T) {
	tbl, err := ReadTable("shift.csv", []byte("time,event\n22:00,patrol lot A\n23:10,vendor arrived\n"))
	require.NoError(t, err)

	for reportType, kind := range map[string]Kind{
		"medical-incident": KindIncident,
		"security-audit":   KindSecurityAudit,
		"daily":            KindDailyActivity,
	} {
		t.Run(reportType, func(t *testing.T) {
			var sent sentMessage
			c := messagesAPI(t, "  ## Summary\nAll quiet.  ", &sent)

			prose, err := c.Analyze(context.Background(), Request{ReportType: reportType, Table: tbl, Notes: "gate 3 sticky"})
			require.NoError(t, err)
			assert.Equal(t, "## Summary\nAll quiet.", prose)

			assert.Equal(t, "claude-sonnet-4-5", sent.Model)
			assert.EqualValues(t, 256, sent.MaxTokens)
			require.Len(t, sent.System, 1)
			assert.Equal(t, SystemPrompt(kind), sent.System[0].Text)
			require.Len(t, sent.Messages, 1)
			assert.Equal(t, "user", sent.Messages[0].Role)
			require.Len(t, sent.Messages[0].Content, 1)
			assert.Equal(t, UserPrompt(kind, Request{ReportType: reportType, Table: tbl, Notes: "gate 3 sticky"}), sent.Messages[0].Content[0].Text)

			rep := FormatReport(kind, prose, tbl, time.Now())
			assert.True(t, strings.HasPrefix(rep.Body, "# "+kind.Title()+"\n"))
			assert.True(t, strings.HasSuffix(rep.Body, "All quiet.\n"))
		})
	}
}

func TestClaude_EmptyReply(t *testing.T) {
	tbl, err := ReadTable("shift.csv", []byte("time,event\n22:00,patrol\n"))
	require.NoError(t, err)

	for name, reply := range map[string]string{"no blocks": "", "blank text": "   \n"} {
		t.Run(name, func(t *testing.T) {
			var sent sentMessage
			c := messagesAPI(t, reply, &sent)
			_, err := c.Analyze(context.Background(), Request{Table: tbl})
			assert.ErrorIs(t, err, ErrEmptyResponse)
		})
	}
}

func TestClaude_EmptyTableSkipsCall(t *testing.T) {
	var sent sentMessage
	c := messagesAPI(t, "unused", &sent)
	_, err := c.Analyze(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Empty(t, sent.Model)
}
