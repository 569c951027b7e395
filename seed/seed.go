// Package seed loads the starting accounts and a demo client into a store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fireops/auth"
	"fireops/models"

	"github.com/rs/zerolog"
)

// Store is what seeding writes through.
type Store interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	PutUser(ctx context.Context, user *models.User) error
	StorePasswordHash(ctx context.Context, userID, passwordHash string) error
	ListClients(ctx context.Context) ([]models.Client, error)
	CreateClient(ctx context.Context, client *models.Client) error
	CreateVisit(ctx context.Context, visit *models.Visit) error
}

// Options controls what is seeded.
type Options struct {
	AdminUsername string
	Password      string // shared initial password, must pass the strength rule
	DemoData      bool
	Now           time.Time
}

// Result counts what was written.
type Result struct {
	UsersCreated int
	UsersSkipped int
	DemoClient   string
}

type account struct {
	username    string
	displayName string
	role        models.UserRole
}

// Username derives a login name from a display name: "Alan Spitel" -> "aspitel".
func Username(displayName string) string {
	parts := strings.Fields(strings.ToLower(displayName))
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return parts[0][:1] + parts[len(parts)-1]
}

// Run creates the admin and one technician account per roster entry, then
// optionally a demo client with a scheduled visit. Existing usernames are
// skipped, and the demo client is only added to an empty client list.
func Run(ctx context.Context, store Store, opts Options, logger zerolog.Logger) (*Result, error) {
	log := logger.With().Str("component", "seed").Logger()
	if err := auth.ValidatePasswordStrength(opts.Password); err != nil {
		return nil, fmt.Errorf("seed password: %w", err)
	}
	if opts.AdminUsername == "" {
		opts.AdminUsername = "admin"
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	accounts := []account{{username: opts.AdminUsername, displayName: "Administrador", role: models.RoleAdmin}}
	for _, name := range models.AvailableTechnicians {
		accounts = append(accounts, account{username: Username(name), displayName: name, role: models.RoleTechnician})
	}

	hash, err := auth.HashPassword(opts.Password)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, a := range accounts {
		if _, err := store.GetUserByUsername(ctx, a.username); err == nil {
			res.UsersSkipped++
			log.Info().Str("username", a.username).Msg("user exists, skipping")
			continue
		} else if !errors.Is(err, models.ErrNotFound) {
			return res, fmt.Errorf("look up user %s: %w", a.username, err)
		}

		user := &models.User{
			UserID:      "user-" + a.username,
			Username:    a.username,
			DisplayName: a.displayName,
			Role:        a.role,
		}
		if err := store.PutUser(ctx, user); err != nil {
			return res, fmt.Errorf("failed to create user %s: %w", a.username, err)
		}
		if err := store.StorePasswordHash(ctx, user.UserID, hash); err != nil {
			return res, fmt.Errorf("failed to store password for %s: %w", a.username, err)
		}
		res.UsersCreated++
		log.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("created user")
	}

	if !opts.DemoData {
		return res, nil
	}
	clients, err := store.ListClients(ctx)
	if err != nil {
		return res, fmt.Errorf("list clients: %w", err)
	}
	if len(clients) > 0 {
		log.Info().Int("clients", len(clients)).Msg("clients exist, skipping demo data")
		return res, nil
	}

	client := &models.Client{
		CompanyName:      "Hotel Plaza",
		ReferentName:     "María López",
		ReferentPosition: "Jefa de Mantenimiento",
		Address:          "Florida 1005, CABA",
		ContractRef:      "CT-0001",
		ReportEmails:     []string{"mantenimiento@hotelplaza.example"},
		Frequency:        models.FrequencyMonthly,
	}
	if err := store.CreateClient(ctx, client); err != nil {
		return res, fmt.Errorf("create demo client: %w", err)
	}
	y, m, d := opts.Now.AddDate(0, 0, 7).Date()
	when := time.Date(y, m, d, 9, 0, 0, 0, opts.Now.Location())
	visit := &models.Visit{
		ClientID:      client.ID,
		ScheduledDate: &when,
		Status:        models.VisitScheduled,
		Technicians:   []string{models.AvailableTechnicians[0]},
	}
	if err := store.CreateVisit(ctx, visit); err != nil {
		return res, fmt.Errorf("create demo visit: %w", err)
	}
	res.DemoClient = client.ID
	log.Info().Str("client_id", client.ID).Time("visit", when).Msg("created demo client")
	return res, nil
}
