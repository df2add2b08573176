package idgen

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportIDIsZeroPadded(t *testing.T) {
	g := New(nil)
	ctx := context.Background()

	id, err := g.ReportID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "RPT-000001", id)

	id, err = g.ReportID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "RPT-000002", id)
}

func TestTimestampIDsAreDistinctWithinOneMillisecond(t *testing.T) {
	g := New(nil)
	frozen := time.UnixMilli(1_700_000_000_000)
	g.daily.now = func() time.Time { return frozen }

	a, b := g.DailyLogID(), g.DailyLogID()
	assert.NotEqual(t, a, b)
	assert.Regexp(t, regexp.MustCompile(`^DL-[0-9A-Z]+$`), a)
	assert.Equal(t, "DL-"+base36(frozen.UnixMilli()), a)
	assert.Equal(t, "DL-"+base36(frozen.UnixMilli()+1), b)
}

func TestNamespaces(t *testing.T) {
	g := New(nil)
	assert.Equal(t, PrefixPrint, Namespace(g.PrintID()))
	assert.Equal(t, PrefixDailyLog, Namespace(g.DailyLogID()))
	assert.Equal(t, PrefixReport, Namespace("RPT-000123"))
	assert.Equal(t, "", Namespace("RPT-"))
	assert.Equal(t, "", Namespace("XYZ-1"))
}
