package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"verivault/db"
	"verivault/models"
	"verivault/signing"

	"golang.org/x/crypto/bcrypt"
)

type seedUser struct {
	id       uint
	username string
	fullName string
	password string
	role     string
	pin      string
}

var seedUsers = []seedUser{
	{1, "admin", "System Administrator", "admin123", models.RoleAdmin, "1234"},
	{2, "officer", "Duty Officer", "officer123", models.RoleOfficer, "5678"},
	{3, "supervisor", "Shift Supervisor", "supervisor123", models.RoleSupervisor, "4321"},
}

// SeedUsers creates the built-in accounts if they are missing. Existing
// accounts are left untouched so changed PINs survive restarts.
func SeedUsers(ctx context.Context, users db.UserStore, log *slog.Logger) error {
	for _, s := range seedUsers {
		if _, err := users.FindUserByID(ctx, s.id); err == nil {
			continue
		} else if !errors.Is(err, db.ErrNotFound) {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(s.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", s.username, err)
		}
		u := &models.User{
			ID:           s.id,
			Username:     s.username,
			FullName:     s.fullName,
			PasswordHash: string(hash),
			Role:         s.role,
			PinHash:      signing.HashPIN(s.pin),
		}
		if err := users.CreateUser(ctx, u); err != nil && !errors.Is(err, db.ErrDuplicate) {
			return fmt.Errorf("seed %s: %w", s.username, err)
		}
		log.Info("seeded user", "id", s.id, "username", s.username, "role", s.role)
	}
	return nil
}
