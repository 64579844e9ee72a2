// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCookie is returned when a session cookie fails verification.
var ErrInvalidCookie = errors.New("sec: invalid session cookie")

// sessionClaims is the signed cookie payload.
//
// The cookie only carries the opaque session id. Identity and user data stay
// in the server-side session store, so revoking a session never depends on
// the cookie expiring.
type sessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// CookieSigner signs and verifies session identifiers with HMAC-SHA256.
type CookieSigner struct {
	secret []byte
	issuer string
}

// NewCookieSigner creates a [CookieSigner] for the given secret and issuer.
func NewCookieSigner(secret, issuer string) *CookieSigner {
	return &CookieSigner{secret: []byte(secret), issuer: issuer}
}

// Sign wraps a session id into a compact signed token valid for timeToLive.
func (signer *CookieSigner) Sign(sessionID string, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    signer.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		SessionID: sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(signer.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign session cookie: %w", err)
	}

	return signedToken, nil
}

// Verify checks the signature, issuer and expiry of a cookie value and
// returns the session id it carries.
func (signer *CookieSigner) Verify(value string) (string, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (any, error) {
		return signer.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(signer.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid || claims.SessionID == "" {
		return "", ErrInvalidCookie
	}

	return claims.SessionID, nil
}
