package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/Harsha992004/online-bus-booking-app/internal/auth"
	intdb "github.com/Harsha992004/online-bus-booking-app/internal/db"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/Harsha992004/online-bus-booking-app/internal/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen   = 6
	resetTokenTTL    = 10 * time.Minute
	maxResetAttempts = 5
)

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type LoginResult struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	User      models.PublicUser `json:"user"`
}

type AuthService struct {
	Users     UserStore
	Resets    ResetTokenStore
	Mailer    Mailer
	Tokens    auth.Issuer
	RequestID string
}

func (s AuthService) Register(ctx context.Context, in RegisterInput) (models.PublicUser, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return models.PublicUser{}, err
	}
	if len(in.Password) < minPasswordLen {
		return models.PublicUser{}, domain.ValidationError{Field: "password", Msg: fmt.Sprintf("must be at least %d characters", minPasswordLen)}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.PublicUser{}, domain.InternalError{Err: err}
	}
	u := models.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleCustomer,
		Name:         utils.NormalizeSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		CreatedAt:    time.Now(),
	}
	id, err := s.Users.Create(ctx, u)
	if errors.Is(err, intdb.ErrDuplicateKey) {
		return models.PublicUser{}, domain.ConflictError{Resource: "user", Msg: "email already registered", Err: err}
	}
	if err != nil {
		return models.PublicUser{}, domain.InternalError{Err: err}
	}
	u.ID = id
	utils.LogEvent(s.RequestID, "auth", "register", fmt.Sprintf("user_id=%d", id))
	return u.ToPublic(), nil
}

// Login checks the password and issues a bearer token. Unknown email and
// wrong password fail the same way.
func (s AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	denied := domain.ForbiddenError{Msg: "invalid email or password"}
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, intdb.ErrNotFound) {
		return LoginResult{}, denied
	}
	if err != nil {
		return LoginResult{}, domain.InternalError{Err: err}
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return LoginResult{}, denied
	}
	token, exp, err := s.Tokens.Issue(u.ID, u.Role)
	if err != nil {
		return LoginResult{}, domain.InternalError{Err: err}
	}
	utils.LogEvent(s.RequestID, "auth", "login", fmt.Sprintf("user_id=%d", u.ID))
	return LoginResult{Token: token, ExpiresAt: exp, User: u.ToPublic()}, nil
}

func (s AuthService) Profile(ctx context.Context, userID int64) (models.PublicUser, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return models.PublicUser{}, err
	}
	return u.ToPublic(), nil
}

func (s AuthService) UpdateProfile(ctx context.Context, userID int64, name, phone string) (models.PublicUser, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return models.PublicUser{}, err
	}
	u.Name = utils.NormalizeSpace(name)
	u.Phone = strings.TrimSpace(phone)
	if err := s.Users.UpdateProfile(ctx, userID, u.Name, u.Phone); err != nil {
		return models.PublicUser{}, domain.InternalError{Err: err}
	}
	return u.ToPublic(), nil
}

func (s AuthService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	u, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return domain.ValidationError{Field: "current_password", Msg: "does not match"}
	}
	return s.setPassword(ctx, userID, next)
}

// ForgotPassword stores a reset token with a 6-digit code and mails the
// code. The returned token id is needed to reset.
func (s AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, intdb.ErrNotFound) {
		return "", domain.NotFoundError{Resource: "user", Err: err}
	}
	if err != nil {
		return "", domain.InternalError{Err: err}
	}
	code, err := otp()
	if err != nil {
		return "", domain.InternalError{Err: err}
	}
	token := models.ResetToken{ID: uuid.NewString(), UserID: u.ID, Email: u.Email, Code: code}
	if err := s.Resets.Save(ctx, token, resetTokenTTL); err != nil {
		return "", domain.InternalError{Msg: "reset unavailable", Err: err}
	}
	if s.Mailer != nil {
		body := fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.", code, int(resetTokenTTL.Minutes()))
		if err := s.Mailer.Send(ctx, u.Email, "Password reset code", body); err != nil {
			utils.LogError(s.RequestID, "auth", "forgot_password", err)
		}
	}
	utils.LogEvent(s.RequestID, "auth", "forgot_password", fmt.Sprintf("user_id=%d", u.ID))
	return token.ID, nil
}

// ResetPassword consumes the token when the code matches. A token is
// burned after maxResetAttempts wrong codes.
func (s AuthService) ResetPassword(ctx context.Context, tokenID, code, next string) error {
	expired := domain.ValidationError{Field: "token", Msg: "expired or unknown"}
	token, err := s.Resets.Get(ctx, strings.TrimSpace(tokenID))
	if errors.Is(err, intdb.ErrNotFound) {
		return expired
	}
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(code)), []byte(token.Code)) != 1 {
		return s.rejectCode(ctx, token, expired)
	}
	if err := s.setPassword(ctx, token.UserID, next); err != nil {
		return err
	}
	if err := s.Resets.Delete(ctx, token.ID); err != nil {
		utils.LogError(s.RequestID, "auth", "reset_password", err)
	}
	return nil
}

func (s AuthService) rejectCode(ctx context.Context, token models.ResetToken, expired error) error {
	failures, err := s.Resets.Fail(ctx, token.ID)
	if errors.Is(err, intdb.ErrNotFound) {
		return expired
	}
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if failures < maxResetAttempts {
		return domain.ValidationError{Field: "code", Msg: "does not match"}
	}
	if err := s.Resets.Delete(ctx, token.ID); err != nil {
		return domain.InternalError{Err: err}
	}
	utils.LogEvent(s.RequestID, "auth", "reset_password", fmt.Sprintf("token burned user_id=%d failures=%d", token.UserID, failures))
	return domain.ValidationError{Field: "code", Msg: "too many attempts, request a new code"}
}

// EnsureAdmin creates the configured administrator, or promotes the
// existing account with that email.
func (s AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" {
		return nil
	}
	u, err := s.Users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role == domain.RoleAdmin {
			return nil
		}
		if err := s.Users.SetRole(ctx, u.ID, domain.RoleAdmin); err != nil {
			return domain.InternalError{Err: err}
		}
		utils.LogEvent(s.RequestID, "auth", "ensure_admin", fmt.Sprintf("promoted user_id=%d", u.ID))
		return nil
	case !errors.Is(err, intdb.ErrNotFound):
		return domain.InternalError{Err: err}
	}

	created, err := s.Register(ctx, RegisterInput{Email: email, Password: password, Name: "Admin"})
	if err != nil {
		return err
	}
	if err := s.Users.SetRole(ctx, created.ID, domain.RoleAdmin); err != nil {
		return domain.InternalError{Err: err}
	}
	utils.LogEvent(s.RequestID, "auth", "ensure_admin", fmt.Sprintf("created user_id=%d", created.ID))
	return nil
}

func (s AuthService) user(ctx context.Context, id int64) (models.User, error) {
	u, err := s.Users.GetByID(ctx, id)
	if errors.Is(err, intdb.ErrNotFound) {
		return u, domain.NotFoundError{Resource: "user", Err: err}
	}
	if err != nil {
		return u, domain.InternalError{Err: err}
	}
	return u, nil
}

func (s AuthService) setPassword(ctx context.Context, userID int64, next string) error {
	if len(next) < minPasswordLen {
		return domain.ValidationError{Field: "new_password", Msg: fmt.Sprintf("must be at least %d characters", minPasswordLen)}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if err := s.Users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		if errors.Is(err, intdb.ErrNotFound) {
			return domain.NotFoundError{Resource: "user", Err: err}
		}
		return domain.InternalError{Err: err}
	}
	return nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return "", domain.ValidationError{Field: "email", Msg: "invalid email"}
	}
	return email, nil
}

func otp() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
