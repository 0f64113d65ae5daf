package utils // package utils provides helpers for session tokens and password hashing

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/sales-backoffice/internal/config"
	"github.com/iliyamo/sales-backoffice/internal/model"
)

var (
	// ErrMissingToken is returned by Verify when no token was supplied.
	ErrMissingToken = errors.New("missing token")
	// ErrInvalidToken covers bad signatures, foreign algorithms, malformed
	// tokens and expired tokens alike.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the identity carried inside a session token.  It is what the
// authentication middleware attaches to every authenticated request.
type Claims struct {
	UserID uint64 `json:"id"`
	Nome   string `json:"nome"`
	Role   string `json:"role"`
	CPF    string `json:"cpf"`
	jwt.RegisteredClaims
}

// IssuedToken is a signed token together with its expiry.
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenService issues and verifies HS256 session tokens.  It is stateless:
// tokens are never stored and cannot be revoked before they expire.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService builds a TokenService from cfg.  A non-positive TTL falls
// back to eight hours.
func NewTokenService(cfg config.TokenConfig) *TokenService {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &TokenService{secret: []byte(cfg.Secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for u that expires after the configured TTL.
func (s *TokenService) Issue(u model.User) (IssuedToken, error) {
	now := s.now().UTC()
	exp := now.Add(s.ttl)
	claims := Claims{
		UserID: u.ID,
		Nome:   u.Nome,
		Role:   u.Role,
		CPF:    u.CPF,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{Token: signed, ExpiresAt: exp}, nil
}

// Verify parses raw and returns its claims.  Only HMAC-signed tokens under
// this service's secret that have not expired are accepted.
func (s *TokenService) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
