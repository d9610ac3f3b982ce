package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/simplecrud/users-service/internal/domain/entity"
	repo "github.com/simplecrud/users-service/internal/domain/repository"
	"github.com/simplecrud/users-service/pkg/helpers"
	"github.com/simplecrud/users-service/pkg/mailer"
	mailtpl "github.com/simplecrud/users-service/pkg/mailer/templates"
	"github.com/simplecrud/users-service/pkg/validation"
)

// TokenDenylist remembers refresh tokens that were explicitly invalidated.
type TokenDenylist interface {
	Deny(ctx context.Context, jti string, until time.Time) error
	IsDenied(ctx context.Context, jti string) (bool, error)
}

// EmailPublisher enqueues email jobs for the worker.
type EmailPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

type Service struct {
	Users     repo.UserRepository
	Customers repo.CustomerRepository
	JWT       *helpers.JWTManager
	Denylist  TokenDenylist
	Mail      EmailPublisher // nil disables welcome emails
	Branding  mailtpl.Branding
	Logger    *logrus.Logger
}

func NewService(users repo.UserRepository, customers repo.CustomerRepository, jwt *helpers.JWTManager, denylist TokenDenylist, mail EmailPublisher, branding mailtpl.Branding, logger *logrus.Logger) *Service {
	return &Service{
		Users:     users,
		Customers: customers,
		JWT:       jwt,
		Denylist:  denylist,
		Mail:      mail,
		Branding:  branding,
		Logger:    logger,
	}
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	Password2 string
	FirstName string
	LastName  string
}

// ValidateRegistration runs the checks that need storage: matching
// confirmation and username/email availability. All failures are
// collected. The returned error is only set for storage failures.
func (s *Service) ValidateRegistration(ctx context.Context, in RegisterInput) (validation.Result[RegisterInput], error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)

	errs := validation.FieldErrors{}
	if in.Password != in.Password2 {
		errs.Add("password2", "passwords do not match")
	}
	taken, err := s.Users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return validation.Result[RegisterInput]{}, fmt.Errorf("check username: %w", err)
	}
	if taken {
		errs.Add("username", "username already exists")
	}
	taken, err = s.Users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return validation.Result[RegisterInput]{}, fmt.Errorf("check email: %w", err)
	}
	if taken {
		errs.Add("email", "email already exists")
	}
	if errs.HasErrors() {
		return validation.Invalid[RegisterInput](errs), nil
	}
	return validation.Valid(in), nil
}

// Register creates the user and immediately issues a token pair.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, helpers.TokenPair, error) {
	res, err := s.ValidateRegistration(ctx, in)
	if err != nil {
		return nil, helpers.TokenPair{}, err
	}
	valid, ok := res.Value()
	if !ok {
		return nil, helpers.TokenPair{}, &ValidationError{Fields: res.Errors()}
	}

	hash, err := helpers.HashPassword(valid.Password)
	if err != nil {
		return nil, helpers.TokenPair{}, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{
		Username:     valid.Username,
		Email:        valid.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(valid.FirstName),
		LastName:     strings.TrimSpace(valid.LastName),
		IsActive:     true,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		var dup *repo.DuplicateError
		if errors.As(err, &dup) {
			fields := validation.FieldErrors{}
			fields.Add(dup.Field, dup.Field+" already exists")
			return nil, helpers.TokenPair{}, &ValidationError{Fields: fields}
		}
		return nil, helpers.TokenPair{}, fmt.Errorf("create user: %w", err)
	}

	pair, err := s.JWT.GeneratePair(s.identityFor(ctx, u))
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate tokens failed")
		return nil, helpers.TokenPair{}, err
	}
	counters.Add(metricRegistered, 1)
	s.enqueueWelcome(ctx, u)
	return u, pair, nil
}

// Authenticate checks a username/password pair. Unknown, inactive and
// wrong-password users all yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	u, err := s.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			helpers.BurnPasswordCheck(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, password) || !u.IsActive {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*entity.User, helpers.TokenPair, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			counters.Add(metricLoginFailed, 1)
		}
		return nil, helpers.TokenPair{}, err
	}
	pair, err := s.JWT.GeneratePair(s.identityFor(ctx, u))
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate tokens failed")
		return nil, helpers.TokenPair{}, err
	}
	now := time.Now().UTC()
	if err := s.Users.UpdateLastLogin(ctx, u.ID, now); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("update last_login failed")
	} else {
		u.LastLogin = &now
	}
	counters.Add(metricLoginOK, 1)
	return u, pair, nil
}

// Logout denylists a refresh token owned by the caller.
func (s *Service) Logout(ctx context.Context, callerID int64, refreshToken string) error {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil || claims.UserID != callerID {
		return ErrInvalidToken
	}
	denied, err := s.Denylist.IsDenied(ctx, claims.ID)
	if err != nil {
		return fmt.Errorf("check denylist: %w", err)
	}
	if denied {
		return ErrInvalidToken
	}
	if err := s.Denylist.Deny(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("deny refresh token: %w", err)
	}
	counters.Add(metricLogout, 1)
	return nil
}

// Refresh exchanges a live refresh token for a new access token whose
// claims are rebuilt from storage.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return "", time.Time{}, ErrInvalidToken
	}
	denied, err := s.Denylist.IsDenied(ctx, claims.ID)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("check denylist: %w", err)
	}
	if denied {
		return "", time.Time{}, ErrInvalidToken
	}
	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", time.Time{}, ErrInvalidToken
		}
		return "", time.Time{}, err
	}
	if !u.IsActive {
		return "", time.Time{}, ErrInvalidToken
	}
	access, exp, err := s.JWT.GenerateAccessToken(s.identityFor(ctx, u))
	if err != nil {
		return "", time.Time{}, err
	}
	counters.Add(metricRefreshed, 1)
	return access, exp, nil
}

func (s *Service) GetProfile(ctx context.Context, userID int64) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// identityFor collects the claims embedded into tokens for u, including
// customer/vendor profile data when a profile exists.
func (s *Service) identityFor(ctx context.Context, u *entity.User) helpers.Identity {
	id := helpers.Identity{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		IsStaff:  u.IsStaff,
	}
	if s.Customers == nil {
		return id
	}
	c, err := s.Customers.GetByUserID(ctx, u.ID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("load customer profile for claims failed")
		}
		return id
	}
	id.Role = string(c.Role)
	id.UserType = string(c.UserType)
	if c.Role == entity.RoleVendor {
		if c.CompanyName != nil {
			id.StoreName = *c.CompanyName
		}
		approved := c.IsApproved
		id.IsApproved = &approved
	}
	return id
}

func (s *Service) enqueueWelcome(ctx context.Context, u *entity.User) {
	if s.Mail == nil || u.Email == "" {
		return
	}
	data := mailtpl.NewWelcomeData(s.Branding, u.FullName(), u.Username, u.Email, mailtpl.WithTime(u.DateJoined))
	job := mailer.EmailJob{To: u.Email, Template: mailtpl.Welcome, Data: data}
	if err := s.Mail.PublishJSON(ctx, job); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("enqueue welcome email failed")
	}
}

// normalizeEmail trims and lowercases the domain part.
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
