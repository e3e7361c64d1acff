package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType separates the purposes a signed token can be used for.
type TokenType string

const (
	TokenAccess       TokenType = "access"
	TokenRefresh      TokenType = "refresh"
	TokenVerification TokenType = "email_verification"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	UserID uint      `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	Type   TokenType `json:"typ"`
	jwt.RegisteredClaims
}

type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	VerifyTTL  time.Duration
}

type Tokens struct {
	secret []byte
	ttl    map[TokenType]time.Duration
	now    func() time.Time
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func NewTokens(cfg TokenConfig) (*Tokens, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("JWT secret is not set")
	}

	return &Tokens{
		secret: []byte(cfg.Secret),
		ttl: map[TokenType]time.Duration{
			TokenAccess:       cfg.AccessTTL,
			TokenRefresh:      cfg.RefreshTTL,
			TokenVerification: cfg.VerifyTTL,
		},
		now: time.Now,
	}, nil
}

func (t *Tokens) issue(typ TokenType, userID uint, email string) (string, error) {
	now := t.now()

	claims := Claims{
		UserID: userID,
		Email:  email,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl[typ])),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// IssuePair mints an access and a refresh token for a user. Checking that
// the user is allowed a session is the caller's job.
func (t *Tokens) IssuePair(userID uint, email string) (TokenPair, error) {
	access, err := t.issue(TokenAccess, userID, email)

	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := t.issue(TokenRefresh, userID, email)

	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (t *Tokens) IssueAccess(userID uint, email string) (string, error) {
	return t.issue(TokenAccess, userID, email)
}

func (t *Tokens) IssueVerification(userID uint) (string, error) {
	return t.issue(TokenVerification, userID, "")
}

// Parse verifies signature, expiry and that the token was minted for typ.
func (t *Tokens) Parse(tokenString string, typ TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))

	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || claims.Type != typ || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
