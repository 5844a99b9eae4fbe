package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"cmsapi/internal/access"
	"cmsapi/internal/auth"
	"cmsapi/internal/ids"
	"cmsapi/internal/model"
)

// UserInput holds the fields of a new account.
type UserInput struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Role     model.Role `json:"role"`
	Password string     `json:"password"`
}

// UserPatch changes the non-nil fields of an account.
type UserPatch struct {
	Name  *string     `json:"name,omitempty"`
	Email *string     `json:"email,omitempty"`
	Role  *model.Role `json:"role,omitempty"`
}

// UserService defines the use cases for accounts.
type UserService interface {
	Create(ctx context.Context, s access.Session, in UserInput) (*model.PublicUser, error)
	Update(ctx context.Context, s access.Session, id string, patch UserPatch) (*model.PublicUser, error)
	List(ctx context.Context) ([]model.PublicUser, error)
	Get(ctx context.Context, id string) (*model.PublicUser, error)
}

type userService struct {
	d Deps
}

// NewUserService constructs a new UserService.
func NewUserService(d Deps) UserService {
	return &userService{d: d}
}

func (s *userService) Create(ctx context.Context, sess access.Session, in UserInput) (*model.PublicUser, error) {
	if err := gate(s.d, sess, access.CreateUser); err != nil {
		return nil, err
	}
	u, err := s.newUser(ctx, in)
	if err != nil {
		return nil, err
	}
	put, err := s.d.Store.Users.Stage(u)
	if err != nil {
		return nil, err
	}
	if err := commit(ctx, s.d, sess, "Created user: "+u.Name, put); err != nil {
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}

// newUser validates input and builds an account with a hashed password.
func (s *userService) newUser(ctx context.Context, in UserInput) (*model.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	role, ok := model.ParseRole(string(in.Role))
	if !ok {
		return nil, invalid("unknown role %q", in.Role)
	}
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, invalid("%v", err)
	}
	now := s.d.Clock.Now()
	return &model.User{
		ID:           ids.NewAt(now),
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
	}, nil
}

func (s *userService) Update(ctx context.Context, sess access.Session, id string, patch UserPatch) (*model.PublicUser, error) {
	if err := gate(s.d, sess, access.UpdateUser); err != nil {
		return nil, err
	}
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, invalid("name must not be empty")
		}
		u.Name = name
	}
	if patch.Email != nil {
		email, err := normalizeEmail(*patch.Email)
		if err != nil {
			return nil, err
		}
		if err := s.ensureEmailFree(ctx, email, u.ID); err != nil {
			return nil, err
		}
		u.Email = email
	}
	if patch.Role != nil {
		role, ok := model.ParseRole(string(*patch.Role))
		if !ok {
			return nil, invalid("unknown role %q", *patch.Role)
		}
		u.Role = role
	}
	put, err := s.d.Store.Users.Stage(u)
	if err != nil {
		return nil, err
	}
	if err := commit(ctx, s.d, sess, fmt.Sprintf("Updated user %s", u.ID), put); err != nil {
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}

func (s *userService) List(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.d.Store.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.PublicUser, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out, nil
}

func (s *userService) Get(ctx context.Context, id string) (*model.PublicUser, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}

func (s *userService) load(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	u, err := s.d.Store.Users.Get(ctx, id)
	if err != nil {
		return nil, notFound("user", id, err)
	}
	return u, nil
}

// ensureEmailFree fails with ErrEmailExists if another account uses email.
func (s *userService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	u, err := findByEmail(ctx, s.d, email)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	if u.ID == selfID {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrEmailExists, email)
}

// findByEmail looks an account up by case-insensitive email.
func findByEmail(ctx context.Context, d Deps, email string) (*model.User, error) {
	users, err := d.Store.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}
	return nil, fmt.Errorf("%w: user with email %s", ErrNotFound, email)
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", invalid("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email %q is not valid", raw)
	}
	return email, nil
}
