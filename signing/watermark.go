package signing

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var ErrMalformedWatermark = errors.New("malformed watermark")

var watermarkPattern = regexp.MustCompile(`^([0-9a-f]{8})\|(.+)\|([A-Z0-9\-]+)\|VV([0-9.]+)$`)

// Watermark is the hidden audit tag embedded in rendered documents.
type Watermark struct {
	Hash         string
	Timestamp    time.Time
	SubmissionID string
	Version      string
}

// String renders "hash8|RFC3339|submissionId|VV<version>".
func (w Watermark) String() string {
	h := w.Hash
	if len(h) > 8 {
		h = h[:8]
	}
	return strings.Join([]string{
		strings.ToLower(h),
		w.Timestamp.UTC().Format(time.RFC3339),
		w.SubmissionID,
		"VV" + w.Version,
	}, "|")
}

// ParseWatermark reverses String. Hash holds only the 8-char prefix.
func ParseWatermark(s string) (Watermark, error) {
	m := watermarkPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Watermark{}, ErrMalformedWatermark
	}
	ts, err := time.Parse(time.RFC3339, m[2])
	if err != nil {
		return Watermark{}, ErrMalformedWatermark
	}
	return Watermark{Hash: m[1], Timestamp: ts, SubmissionID: m[3], Version: m[4]}, nil
}

// Matches reports whether the watermark prefix belongs to the full hash.
func (w Watermark) Matches(fullHash string) bool {
	return w.Hash != "" && strings.HasPrefix(fullHash, w.Hash)
}
