package submission

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMissingField   = errors.New("required fields missing")
	ErrMalformedField = errors.New("malformed field")
)

// VerificationInput is the verificationData a client sends with a submission.
// The PIN is checked again server side; the hash the client holds is not trusted.
type VerificationInput struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	PIN      string `json:"pin"`
}

func (v *VerificationInput) UnmarshalJSON(b []byte) error {
	var raw struct {
		UserID   json.RawMessage `json:"userId"`
		Username string          `json:"username"`
		PIN      json.RawMessage `json:"pin"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	id, err := looseString(raw.UserID)
	if err != nil {
		return fmt.Errorf("userId: %w", err)
	}
	if id != "" {
		n, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			return fmt.Errorf("userId: %w", err)
		}
		v.UserID = uint(n)
	}
	pin, err := looseString(raw.PIN)
	if err != nil {
		return fmt.Errorf("pin: %w", err)
	}
	v.Username, v.PIN = raw.Username, pin
	return nil
}

// looseString accepts a JSON string or number. Numeric PINs keep no leading
// zeros, which the 4-digit check then rejects.
func looseString(m json.RawMessage) (string, error) {
	s := strings.TrimSpace(string(m))
	if s == "" || s == "null" {
		return "", nil
	}
	if strings.HasPrefix(s, `"`) {
		var out string
		err := json.Unmarshal(m, &out)
		return strings.TrimSpace(out), err
	}
	var n json.Number
	if err := json.Unmarshal(m, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func (v VerificationInput) empty() bool { return v.UserID == 0 && v.PIN == "" }

func parseVerification(raw string) (VerificationInput, error) {
	var v VerificationInput
	if strings.TrimSpace(raw) == "" {
		return v, fmt.Errorf("verificationData: %w", ErrMissingField)
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, fmt.Errorf("verificationData: %w", ErrMalformedField)
	}
	if v.empty() {
		return v, fmt.Errorf("verificationData: %w", ErrMissingField)
	}
	return v, nil
}

func parseForm(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("formData: %w", ErrMissingField)
	}
	var form map[string]any
	if err := json.Unmarshal([]byte(raw), &form); err != nil {
		return nil, fmt.Errorf("formData: %w", ErrMalformedField)
	}
	if form == nil {
		return nil, fmt.Errorf("formData: %w", ErrMissingField)
	}
	return form, nil
}
