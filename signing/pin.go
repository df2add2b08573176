// Package signing implements the PIN check that stands in for a signature,
// and the audit watermark stamped on rendered reports.
//
// Neither the verification hash nor the watermark is a cryptographic
// signature: both are plaintext audit tags that anyone holding the inputs
// can reproduce.
package signing

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"verivault/db"
	"verivault/models"
)

var (
	ErrMissingFields    = errors.New("required fields missing")
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidPIN       = errors.New("invalid PIN")
	ErrInvalidPINFormat = errors.New("PIN must be exactly 4 digits")
)

const PINLength = 4

func HashPIN(pin string) string {
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:])
}

// UserHash is the public 8-char prefix of a stored PIN hash.
func UserHash(pinHash string) string {
	if len(pinHash) < 8 {
		return pinHash
	}
	return pinHash[:8]
}

func ValidatePINFormat(pin string) error {
	if len(pin) != PINLength {
		return ErrInvalidPINFormat
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return ErrInvalidPINFormat
		}
	}
	return nil
}

// VerificationHash = first 16 hex chars of sha256("<userId>-<pin>-<unixMillis>").
func VerificationHash(userID uint, pin string, at time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d-%s-%d", userID, pin, at.UnixMilli())))
	return hex.EncodeToString(sum[:])[:16]
}

// ContentHash is the full sha256 hex of rendered content.
func ContentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

type Verification struct {
	UserID           uint      `json:"userId"`
	Username         string    `json:"username"`
	UserHash         string    `json:"userHash"`
	Timestamp        time.Time `json:"timestamp"`
	VerificationHash string    `json:"verificationHash"`
	PINVerified      bool      `json:"pinVerified"`
}

// Record converts to the form stored on report records.
func (v Verification) Record() models.Verification {
	return models.Verification{
		UserID:           v.UserID,
		Username:         v.Username,
		Timestamp:        v.Timestamp,
		PINVerified:      v.PINVerified,
		VerificationHash: v.VerificationHash,
	}
}

type Request struct {
	UserID   uint
	PIN      string
	ClientIP string
}

type Verifier struct {
	users db.UserStore
	audit db.VerificationLogStore
	log   *slog.Logger
	now   func() time.Time
}

func NewVerifier(users db.UserStore, audit db.VerificationLogStore, log *slog.Logger) *Verifier {
	return &Verifier{users: users, audit: audit, log: log, now: time.Now}
}

// Verify checks req.PIN against the stored hash. Every attempt that names an
// existing user is written to the audit log.
func (v *Verifier) Verify(ctx context.Context, req Request) (*Verification, error) {
	if req.UserID == 0 || req.PIN == "" {
		return nil, ErrMissingFields
	}
	u, err := v.users.FindUserByID(ctx, req.UserID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	now := v.now().UTC()
	ok := subtle.ConstantTimeCompare([]byte(HashPIN(req.PIN)), []byte(u.PinHash)) == 1
	entry := &models.VerificationLog{
		UserID:    u.ID,
		Username:  u.Username,
		Success:   ok,
		ClientIP:  req.ClientIP,
		CreatedAt: now,
	}
	if !ok {
		entry.Reason = "pin_mismatch"
		v.record(ctx, entry)
		return nil, ErrInvalidPIN
	}

	out := &Verification{
		UserID:           u.ID,
		Username:         u.Username,
		UserHash:         UserHash(u.PinHash),
		Timestamp:        now,
		VerificationHash: VerificationHash(u.ID, req.PIN, now),
		PINVerified:      true,
	}
	entry.Hash = out.VerificationHash
	v.record(ctx, entry)
	return out, nil
}

func (v *Verifier) record(ctx context.Context, entry *models.VerificationLog) {
	if v.audit == nil {
		return
	}
	if err := v.audit.LogVerification(ctx, entry); err != nil {
		v.log.Warn("verification audit write failed", "user_id", entry.UserID, "error", err)
	}
}
