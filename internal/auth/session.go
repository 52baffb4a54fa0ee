package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTokens issues and parses the API's own bearer tokens.
type SessionTokens struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionTokens(secret []byte, ttl time.Duration) *SessionTokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionTokens{secret: secret, ttl: ttl}
}

// Issue signs a session token for the user.
func (s *SessionTokens) Issue(user *User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(s.ttl).Unix(),
	})
	return token.SignedString(s.secret)
}

// Parse validates a session token and returns the user id and username.
func (s *SessionTokens) Parse(tokenString string) (userID, username string, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		return "", "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("invalid token")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", "", fmt.Errorf("token missing subject")
	}
	name, _ := claims["username"].(string)
	return sub, name, nil
}
