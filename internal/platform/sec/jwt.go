// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec holds the credential primitives: bcrypt password hashing, RS256
// access tokens, opaque refresh tokens and permission scopes. Domain packages
// reach it through their own narrow interfaces.
package sec

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// clockSkew tolerates small clock drift between issuer and verifier.
const clockSkew = 30 * time.Second

// TokenService signs and verifies RS256 access tokens.
type TokenService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	keyID      string
	issuer     string
	timeToLive time.Duration
	now        func() time.Time
}

// NewTokenService loads a PEM private and public key pair from disk.
func NewTokenService(privateKeyPath, publicKeyPath, issuer string, timeToLive time.Duration) (*TokenService, error) {
	privateKey, err := loadPEM(privateKeyPath, jwt.ParseRSAPrivateKeyFromPEM)
	if err != nil {
		return nil, err
	}

	publicKey, err := loadPEM(publicKeyPath, jwt.ParseRSAPublicKeyFromPEM)
	if err != nil {
		return nil, err
	}

	if !privateKey.PublicKey.Equal(publicKey) {
		return nil, fmt.Errorf("sec: %s is not the public half of %s", publicKeyPath, privateKeyPath)
	}

	return NewTokenServiceFromKeys(privateKey, publicKey, issuer, timeToLive), nil
}

func loadPEM[K any](path string, parse func([]byte) (K, error)) (K, error) {
	var zero K

	data, err := os.ReadFile(path)
	if err != nil {
		return zero, fmt.Errorf("sec: read key %s: %w", path, err)
	}

	key, err := parse(data)
	if err != nil {
		return zero, fmt.Errorf("sec: parse key %s: %w", path, err)
	}
	return key, nil
}

// NewTokenServiceFromKeys builds a TokenService from parsed keys.
func NewTokenServiceFromKeys(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, issuer string, timeToLive time.Duration) *TokenService {
	return &TokenService{
		privateKey: privateKey,
		publicKey:  publicKey,
		keyID:      keyThumbprint(publicKey),
		issuer:     issuer,
		timeToLive: timeToLive,
		now:        time.Now,
	}
}

// keyThumbprint derives a stable "kid" header from the public key so
// verifiers can tell keys apart across a rotation.
func keyThumbprint(publicKey *rsa.PublicKey) string {
	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:8])
}

// TimeToLive is the lifetime of issued access tokens.
func (service *TokenService) TimeToLive() time.Duration {
	return service.timeToLive
}

/*
GenerateAccessToken signs claims into a JWT valid for TimeToLive.

Description: iss, iat, exp and jti are always set by the service and override
caller claims of the same type. A caller "sub" claim is kept.

Parameters:
  - claims: []Claim in the order they should appear for repeated types

Returns:
  - string: the compact JWT
  - error: signing failures
*/
func (service *TokenService) GenerateAccessToken(claims []Claim) (string, error) {
	issuedAt := service.now()

	payload := jwt.MapClaims(foldClaims(claims))
	payload["iss"] = service.issuer
	payload["iat"] = jwt.NewNumericDate(issuedAt)
	payload["exp"] = jwt.NewNumericDate(issuedAt.Add(service.timeToLive))
	payload["jti"] = uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, payload)
	if service.keyID != "" {
		token.Header["kid"] = service.keyID
	}

	signed, err := token.SignedString(service.privateKey)
	if err != nil {
		return "", fmt.Errorf("sec: sign access token: %w", err)
	}
	return signed, nil
}

// VerifyToken accepts only RS256 tokens signed by this service's key, issued
// by its issuer and not yet expired.
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	claims := &AuthClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return service.publicKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(service.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(service.now),
	)
	if err != nil {
		return nil, fmt.Errorf("sec: invalid access token: %w", err)
	}
	return claims, nil
}
