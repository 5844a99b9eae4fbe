package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cmsapi/internal/access"
	"cmsapi/internal/auth"
	"cmsapi/internal/model"
	"cmsapi/internal/repository"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      model.PublicUser `json:"user"`
}

// AuthService signs users in and out and manages passwords.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, s access.Session) error
	// Authenticate resolves a token to a session carrying the user's current role.
	Authenticate(ctx context.Context, token string) (access.Session, error)
	ChangePassword(ctx context.Context, s access.Session, oldPassword, newPassword string) error
}

type authService struct {
	d Deps
}

// NewAuthService constructs a new AuthService.
func NewAuthService(d Deps) AuthService {
	return &authService{d: d}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if s.d.Tokens == nil {
		return nil, errors.New("session tokens are not configured")
	}
	u, err := findByEmail(ctx, s.d, email)
	if err != nil {
		if isNotFound(err) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.VerifyPassword(u.PasswordHash, password); err != nil {
		return nil, err
	}
	token, exp, err := s.d.Tokens.Issue(sessionOf(u))
	if err != nil {
		return nil, err
	}
	// Best effort: a lost login record does not fail the login.
	_, _ = s.d.Trail.Record(ctx, u.ID, fmt.Sprintf("User %s logged in", u.Name))
	return &LoginResult{Token: token, ExpiresAt: exp, User: u.Public()}, nil
}

func (s *authService) Logout(ctx context.Context, sess access.Session) error {
	if sess.Anonymous() {
		return access.ErrUnauthorized
	}
	_, err := s.d.Trail.Record(ctx, sess.UserID, fmt.Sprintf("User %s logged out", sess.Name))
	return err
}

func (s *authService) Authenticate(ctx context.Context, token string) (access.Session, error) {
	if s.d.Tokens == nil {
		return access.Session{}, auth.ErrInvalidToken
	}
	claimed, err := s.d.Tokens.Parse(token)
	if err != nil {
		return access.Session{}, err
	}
	u, err := s.d.Store.Users.Get(ctx, claimed.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return access.Session{}, auth.ErrInvalidToken
		}
		return access.Session{}, err
	}
	return sessionOf(u), nil
}

func (s *authService) ChangePassword(ctx context.Context, sess access.Session, oldPassword, newPassword string) error {
	if sess.Anonymous() {
		return access.ErrUnauthorized
	}
	u, err := s.d.Store.Users.Get(ctx, sess.UserID)
	if err != nil {
		return notFound("user", sess.UserID, err)
	}
	if err := auth.VerifyPassword(u.PasswordHash, oldPassword); err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return invalid("%v", err)
	}
	u.PasswordHash = hash
	put, err := s.d.Store.Users.Stage(u)
	if err != nil {
		return err
	}
	return commit(ctx, s.d, sess, fmt.Sprintf("User %s updated password", u.Name), put)
}

func sessionOf(u *model.User) access.Session {
	return access.Session{UserID: u.ID, Name: u.Name, Role: u.Role}
}
