package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/caredesk/caredesk/internal/platform/apperr"
	"github.com/caredesk/caredesk/internal/platform/auth"
)

// DoctorLinker is implemented by the doctor directory. It ties a new
// login account to the pre-created profile matching the email.
type DoctorLinker interface {
	LinkAccount(ctx context.Context, email string, userID uuid.UUID) (uuid.UUID, error)
}

type Service struct {
	users  Repository
	linker DoctorLinker
	secret string
	ttl    time.Duration
	logger zerolog.Logger
}

func NewService(users Repository, linker DoctorLinker, secret string, ttl time.Duration, logger zerolog.Logger) *Service {
	return &Service{users: users, linker: linker, secret: secret, ttl: ttl, logger: logger}
}

// RegisterInput carries a signup request. Password is plaintext here
// and hashed before anything is stored.
type RegisterInput struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
}

func (in *RegisterInput) validate() error {
	if in.FirstName == "" {
		return fmt.Errorf("%w: first_name is required", apperr.ErrValidation)
	}
	in.Email = normalizeEmail(in.Email)
	if in.Email == "" {
		return fmt.Errorf("%w: email is required", apperr.ErrValidation)
	}
	if len(in.Password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", apperr.ErrValidation, MinPasswordLength)
	}
	return nil
}

func (s *Service) createUser(ctx context.Context, in RegisterInput, role string) (*User, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		PhoneNumber:  in.PhoneNumber,
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) token(u *User) (string, error) {
	return auth.MakeToken(u.ID, u.Role, s.secret, s.ttl)
}

// Register creates a patient account and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, string, error) {
	if err := in.validate(); err != nil {
		return nil, "", err
	}
	u, err := s.createUser(ctx, in, auth.RoleUser)
	if err != nil {
		return nil, "", err
	}
	tok, err := s.token(u)
	if err != nil {
		return nil, "", err
	}
	return u, tok, nil
}

// RegisterDoctor creates a doctor account and links it to the directory
// profile matching the email. If linking fails the account is deleted
// again so a failed signup leaves no half-registered doctor behind.
func (s *Service) RegisterDoctor(ctx context.Context, in RegisterInput) (*User, string, error) {
	if err := in.validate(); err != nil {
		return nil, "", err
	}
	u, err := s.createUser(ctx, in, auth.RoleDoctor)
	if err != nil {
		return nil, "", err
	}
	if _, err := s.linker.LinkAccount(ctx, u.Email, u.ID); err != nil {
		if delErr := s.users.Delete(ctx, u.ID); delErr != nil {
			s.logger.Error().Err(delErr).Str("user_id", u.ID.String()).
				Msg("failed to roll back doctor account after link failure")
		}
		return nil, "", err
	}
	tok, err := s.token(u)
	if err != nil {
		return nil, "", err
	}
	return u, tok, nil
}

// Login checks credentials. Unknown email and wrong password produce
// the same answer so the endpoint is not an account oracle.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthenticated)
		}
		return nil, "", err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, "", fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthenticated)
	}
	tok, err := s.token(u)
	if err != nil {
		return nil, "", err
	}
	return u, tok, nil
}

// Me returns the account behind the principal.
func (s *Service) Me(ctx context.Context, principal auth.Principal) (*User, error) {
	return s.users.GetByID(ctx, principal.SubjectID)
}
