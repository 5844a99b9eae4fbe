package service

import (
	"context"
	"errors"
	"strings"

	"cmsapi/internal/access"
	"cmsapi/internal/config"
	"cmsapi/internal/logging"
	"cmsapi/internal/model"
	"cmsapi/internal/repository"
)

// SettingsInput changes the non-nil fields of the settings.
type SettingsInput struct {
	SiteName     *string `json:"site_name,omitempty"`
	ReminderDays []int   `json:"reminder_days,omitempty"`
}

// SettingsService reads and edits the process-wide settings. It is also the
// source of reminder thresholds for the reminder evaluator.
type SettingsService interface {
	Get(ctx context.Context) (*model.Settings, error)
	Update(ctx context.Context, s access.Session, in SettingsInput) (*model.Settings, error)
	ReminderConfig(ctx context.Context) (config.ReminderConfig, error)
}

type settingsService struct {
	d Deps
}

// NewSettingsService constructs a new SettingsService.
func NewSettingsService(d Deps) SettingsService {
	return &settingsService{d: d}
}

// Get returns the stored settings, or the defaults if none were saved yet.
func (s *settingsService) Get(ctx context.Context) (*model.Settings, error) {
	st, err := s.d.Store.Settings.Get(ctx, model.SettingsID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	def := s.d.Defaults
	def.ReminderDays = append([]int(nil), def.ReminderDays...)
	return &def, nil
}

func (s *settingsService) Update(ctx context.Context, sess access.Session, in SettingsInput) (*model.Settings, error) {
	if err := gate(s.d, sess, access.UpdateSettings); err != nil {
		return nil, err
	}
	st, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if in.SiteName != nil {
		name := strings.TrimSpace(*in.SiteName)
		if name == "" {
			return nil, invalid("site_name must not be empty")
		}
		st.SiteName = name
	}
	if in.ReminderDays != nil {
		cfg, cfgErr := config.NewReminderConfig(in.ReminderDays)
		if len(cfg.Thresholds) == 0 {
			return nil, invalid("reminder_days needs at least one positive number of days")
		}
		if cfgErr != nil {
			logging.Warn("settings", "reminder_days_discarded", map[string]any{
				"input":         in.ReminderDays,
				"kept":          cfg.String(),
				"error_message": cfgErr.Error(),
			})
		}
		st.ReminderDays = cfg.Thresholds
	}
	put, err := s.d.Store.Settings.Stage(st)
	if err != nil {
		return nil, err
	}
	if err := commit(ctx, s.d, sess, "Updated settings", put); err != nil {
		return nil, err
	}
	committed(st)
	return st, nil
}

// ReminderConfig is read by the evaluator on every tick, so a settings change
// takes effect on the next tick.
func (s *settingsService) ReminderConfig(ctx context.Context) (config.ReminderConfig, error) {
	st, err := s.Get(ctx)
	if err != nil {
		return config.ReminderConfig{}, err
	}
	cfg, cfgErr := config.NewReminderConfig(st.ReminderDays)
	if cfgErr != nil {
		logging.Warn("settings", "reminder_days_discarded", map[string]any{
			"kept":          cfg.String(),
			"error_message": cfgErr.Error(),
		})
	}
	return cfg, nil
}
