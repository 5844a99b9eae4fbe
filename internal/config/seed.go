package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedUser describes an account created by the seed command.
type SeedUser struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Role     string `yaml:"role"`
	Password string `yaml:"password"`
}

// Seed is the content of a seed file: initial users and settings.
type Seed struct {
	SiteName     string     `yaml:"site_name"`
	ReminderDays []int      `yaml:"reminder_days"`
	Users        []SeedUser `yaml:"users"`
}

// DefaultSeed mirrors the accounts a fresh demo install starts with.
func DefaultSeed() Seed {
	return Seed{
		SiteName:     "Compliance CMS (Demo)",
		ReminderDays: []int{90, 60, 30, 7},
		Users: []SeedUser{
			{Name: "Admin User", Email: "admin@local", Role: "Admin", Password: "password"},
			{Name: "Supervisor", Email: "super@local", Role: "Supervisor", Password: "password"},
			{Name: "Auditor", Email: "auditor@local", Role: "Auditor", Password: "password"},
			{Name: "Regular User", Email: "user@local", Role: "User", Password: "password"},
		},
	}
}

// LoadSeed reads a YAML seed file.
func LoadSeed(path string) (Seed, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(b)
}

// ParseSeed decodes YAML seed content.
func ParseSeed(b []byte) (Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	for i, u := range s.Users {
		if u.Email == "" || u.Role == "" {
			return Seed{}, fmt.Errorf("%w: seed user %d needs email and role", ErrInvalidConfig, i)
		}
	}
	return s, nil
}
