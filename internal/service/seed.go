package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cmsapi/internal/access"
	"cmsapi/internal/config"
	"cmsapi/internal/model"
	"cmsapi/internal/repository"
)

// SeedResult reports what a seed run created.
type SeedResult struct {
	UsersCreated    int  `json:"users_created"`
	SettingsCreated bool `json:"settings_created"`
}

// Seed creates the accounts of seed whose email is not taken yet and the
// settings if none exist. Everything is written in one batch with a system
// audit record. Running it twice creates nothing the second time.
func Seed(ctx context.Context, d Deps, seed config.Seed) (*SeedResult, error) {
	users := &userService{d: d}
	var (
		res    SeedResult
		puts   []repository.Put
		emails = map[string]bool{}
	)
	for _, su := range seed.Users {
		email := strings.ToLower(strings.TrimSpace(su.Email))
		if emails[email] {
			continue
		}
		emails[email] = true
		u, err := users.newUser(ctx, UserInput{
			Name:     su.Name,
			Email:    su.Email,
			Role:     model.Role(su.Role),
			Password: su.Password,
		})
		if errors.Is(err, ErrEmailExists) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", su.Email, err)
		}
		put, err := d.Store.Users.Stage(u)
		if err != nil {
			return nil, err
		}
		puts = append(puts, put)
		res.UsersCreated++
	}

	_, err := d.Store.Settings.Get(ctx, model.SettingsID)
	switch {
	case repository.IsNotFound(err):
		st := d.Defaults
		if seed.SiteName != "" {
			st.SiteName = seed.SiteName
		}
		if len(seed.ReminderDays) > 0 {
			if cfg, _ := config.NewReminderConfig(seed.ReminderDays); len(cfg.Thresholds) > 0 {
				st.ReminderDays = cfg.Thresholds
			}
		}
		put, err := d.Store.Settings.Stage(&st)
		if err != nil {
			return nil, err
		}
		puts = append(puts, put)
		res.SettingsCreated = true
	case err != nil:
		return nil, err
	}

	if len(puts) == 0 {
		return &res, nil
	}
	desc := fmt.Sprintf("Seeded %d users", res.UsersCreated)
	if err := commit(ctx, d, access.Session{}, desc, puts...); err != nil {
		return nil, err
	}
	return &res, nil
}
