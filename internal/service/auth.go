package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rocketscienceinc/tictactoe-recorder/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/entity"
)

const tokenTTL = 24 * time.Hour

var errUnexpectedSigningMethod = errors.New("unexpected signing method")

type AuthService interface {
	GenerateToken(user *entity.User) (string, error)
	ParseToken(token string) (string, error)
}

type claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type authService struct {
	secretKey []byte
	now       func() time.Time
}

func NewAuthService(secretKey string) AuthService {
	return &authService{
		secretKey: []byte(secretKey),
		now:       time.Now,
	}
}

// GenerateToken - issues a signed token whose subject is the user's ID.
func (that *authService) GenerateToken(user *entity.User) (string, error) {
	now := that.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name: user.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	})

	tokenString, err := token.SignedString(that.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ParseToken - returns the user ID the token was issued for.
func (that *authService) ParseToken(tokenString string) (string, error) {
	var parsed claims

	_, err := jwt.ParseWithClaims(tokenString, &parsed, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", errUnexpectedSigningMethod, token.Header["alg"])
		}
		return that.secretKey, nil
	}, jwt.WithTimeFunc(that.now))
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperror.ErrInvalidToken, err)
	}

	if parsed.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", apperror.ErrInvalidToken)
	}

	return parsed.Subject, nil
}
