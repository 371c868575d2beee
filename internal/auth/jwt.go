package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionTTL = 30 * 24 * time.Hour
	stateTTL   = 10 * time.Minute

	purposeOAuthState = "google_oauth_state"
)

func GenerateToken(secret []byte, userID int) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(sessionTTL).Unix(),
		"iat":     time.Now().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func ParseToken(secret []byte, tokenString string) (int, error) {
	claims, err := parse(secret, tokenString)
	if err != nil {
		return 0, err
	}
	if _, ok := claims["purpose"]; ok {
		return 0, errors.New("not a session token")
	}
	return userIDClaim(claims)
}

// GenerateStateToken signs the OAuth "state" parameter so the callback can
// trust the user id it carries.
func GenerateStateToken(secret []byte, userID int) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"purpose": purposeOAuthState,
		"exp":     time.Now().Add(stateTTL).Unix(),
		"iat":     time.Now().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func ParseStateToken(secret []byte, state string) (int, error) {
	claims, err := parse(secret, state)
	if err != nil {
		return 0, err
	}
	if claims["purpose"] != purposeOAuthState {
		return 0, errors.New("not an oauth state token")
	}
	return userIDClaim(claims)
}

func parse(secret []byte, tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected claims type")
	}
	return claims, nil
}

func userIDClaim(claims jwt.MapClaims) (int, error) {
	uidFloat, ok := claims["user_id"].(float64)
	if !ok || uidFloat <= 0 {
		return 0, fmt.Errorf("token has no user_id")
	}
	return int(uidFloat), nil
}
