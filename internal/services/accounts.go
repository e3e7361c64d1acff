package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"
	"github.com/taskboard-dev/taskboard/internal/auth"
	"github.com/taskboard-dev/taskboard/internal/errs"
	mailer "github.com/taskboard-dev/taskboard/internal/mail"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/store"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt input limit in bytes
	maxNameLength     = 150
)

type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

// Accounts handles registration, email verification and session tokens.
type Accounts struct {
	users     store.UserStore
	tokens    *auth.Tokens
	mail      mailer.Sender
	publicURL string
	log       zerolog.Logger
}

func NewAccounts(users store.UserStore, tokens *auth.Tokens, mail mailer.Sender, publicURL string, log zerolog.Logger) *Accounts {
	return &Accounts{
		users:     users,
		tokens:    tokens,
		mail:      mail,
		publicURL: strings.TrimRight(publicURL, "/"),
		log:       log.With().Str("component", "accounts").Logger(),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegistration(in RegisterInput) error {
	if in.Email == "" {
		return errs.Validation("email", "This field is required")
	}

	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return errs.Validation("email", "Enter a valid email address")
	}

	if in.Username == "" {
		return errs.Validation("username", "This field is required")
	}

	if len(in.Username) > maxNameLength {
		return errs.Validation("username", "Ensure this field has no more than 150 characters")
	}

	if len(in.FirstName) > maxNameLength {
		return errs.Validation("first_name", "Ensure this field has no more than 150 characters")
	}

	if len(in.LastName) > maxNameLength {
		return errs.Validation("last_name", "Ensure this field has no more than 150 characters")
	}

	if len(in.Password) < minPasswordLength {
		return errs.Validation("password", "Ensure this field has at least 8 characters")
	}

	if len(in.Password) > maxPasswordLength {
		return errs.Validation("password", "Ensure this field has no more than 72 bytes")
	}

	return nil
}

// Register creates an unverified user and mails a verification link. A mail
// failure is logged and does not undo the registration.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	emailTaken, usernameTaken, err := a.users.UserExists(ctx, in.Email, in.Username)

	if err != nil {
		return nil, err
	}

	if emailTaken {
		return nil, errs.Validation("email", "User with this email address already exists")
	}

	if usernameTaken {
		return nil, errs.Validation("username", "User with this username already exists")
	}

	hash, err := auth.HashPassword(in.Password)

	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
	}

	if err := a.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	a.sendVerification(ctx, user)

	return user, nil
}

func (a *Accounts) sendVerification(ctx context.Context, user *models.User) {
	token, err := a.tokens.IssueVerification(user.ID)

	if err != nil {
		a.log.Error().Err(err).Uint("user_id", user.ID).Msg("issue verification token")
		return
	}

	link := a.publicURL + "/api/verify/" + token

	err = a.mail.Send(ctx, mailer.Message{
		To:      user.Email,
		Subject: "Verify your email",
		Body:    "Click the link to verify: " + link,
	})

	if err != nil {
		a.log.Warn().Err(err).Uint("user_id", user.ID).Msg("verification mail not sent")
	}
}

// VerifyEmail consumes a verification token. A token can verify its user
// once; replaying it after verification fails.
func (a *Accounts) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	claims, err := a.tokens.Parse(token, auth.TokenVerification)

	if err != nil {
		return nil, errs.Validation("token", "Invalid verification link")
	}

	user, err := a.users.UserByID(ctx, claims.UserID)

	if err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			return nil, errs.Validation("token", "Invalid verification link")
		}
		return nil, err
	}

	changed, err := a.users.MarkVerified(ctx, user.ID)

	if err != nil {
		return nil, err
	}

	if !changed {
		return nil, errs.Validation("token", "Email already verified")
	}

	user.IsVerified = true

	a.log.Info().Uint("user_id", user.ID).Msg("email verified")

	return user, nil
}

// ObtainToken checks credentials and issues an access/refresh pair. Users
// who have not verified their email are refused.
func (a *Accounts) ObtainToken(ctx context.Context, email, password string) (auth.TokenPair, error) {
	invalid := errs.Unauthenticated("No active account found with the given credentials")

	user, err := a.users.UserByEmail(ctx, normalizeEmail(email))

	if err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			return auth.TokenPair{}, invalid
		}
		return auth.TokenPair{}, err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return auth.TokenPair{}, invalid
	}

	if !user.IsVerified {
		return auth.TokenPair{}, errs.Validation("email", "Email not verified")
	}

	return a.tokens.IssuePair(user.ID, user.Email)
}

func (a *Accounts) RefreshToken(ctx context.Context, refresh string) (string, error) {
	claims, err := a.tokens.Parse(refresh, auth.TokenRefresh)

	if err != nil {
		return "", errs.Unauthenticated("Token is invalid or expired")
	}

	user, err := a.users.UserByID(ctx, claims.UserID)

	if err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			return "", errs.Unauthenticated("Token is invalid or expired")
		}
		return "", err
	}

	return a.tokens.IssueAccess(user.ID, user.Email)
}

// Authenticate resolves an access token to its user.
func (a *Accounts) Authenticate(ctx context.Context, access string) (*models.User, error) {
	claims, err := a.tokens.Parse(access, auth.TokenAccess)

	if err != nil {
		return nil, errs.Unauthenticated("Invalid or expired token")
	}

	user, err := a.users.UserByID(ctx, claims.UserID)

	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.Unauthenticated("User not found")
		}
		return nil, err
	}

	return user, nil
}

func (a *Accounts) DeleteAccount(ctx context.Context, userID uint, password string) error {
	if err := requireActor(userID); err != nil {
		return err
	}

	user, err := a.users.UserByID(ctx, userID)

	if err != nil {
		return err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return errs.Validation("password", "Incorrect password")
	}

	if err := a.users.DeleteUser(ctx, user.ID); err != nil {
		return err
	}

	a.log.Info().Uint("user_id", user.ID).Msg("account deleted")

	return nil
}
