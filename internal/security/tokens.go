// Package security issues and validates the access tokens presented at the session handshake.
package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"food-ordering-platform/ordersync/internal/order/domain"
)

// ErrInvalidToken is returned when a token is malformed, expired, or not issued for us.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims holds JWT claims for an actor's access token. The subject is the actor ID.
type AccessClaims struct {
	jwt.RegisteredClaims
	ActorType domain.ActorType `json:"actor_type"`
}

// TokenProvider issues and validates access JWTs signed with RS256 or ES256.
type TokenProvider struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	issuer     string
	audience   string
	accessTTL  time.Duration
	now        func() time.Time
}

// NewTokenProvider returns a TokenProvider. privateKey may be nil for validate-only use.
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, accessTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		now:        time.Now,
	}
}

// IssueAccess issues an access token for actorID acting as actorType.
func (p *TokenProvider) IssueAccess(actorID string, actorType domain.ActorType) (token string, expiresAt time.Time, err error) {
	if actorID == "" || !actorType.Valid() {
		return "", time.Time{}, ErrInvalidToken
	}
	if p.privateKey == nil {
		return "", time.Time{}, errors.New("security: no signing key configured")
	}
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now := p.now().UTC()
	expiresAt = now.Add(p.accessTTL)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   actorID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		ActorType: actorType,
	}
	var method jwt.SigningMethod
	switch p.privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", time.Time{}, ErrInvalidToken
	}
	token, err = jwt.NewWithClaims(method, claims).SignedString(p.privateKey)
	return token, expiresAt, err
}

// ValidateAccess verifies signature, expiry, issuer and audience and returns the actor.
func (p *TokenProvider) ValidateAccess(tokenString string) (actorID string, actorType domain.ActorType, err error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	claims := &AccessClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return p.publicKey, nil
	})
	if err != nil || !token.Valid {
		return "", "", ErrInvalidToken
	}
	if claims.Subject == "" || !claims.ActorType.Valid() {
		return "", "", ErrInvalidToken
	}
	return claims.Subject, claims.ActorType, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewTokenProviderFromPEM parses the key pair (inline PEM or file paths) and returns a provider.
// An empty privatePEM yields a validate-only provider.
func NewTokenProviderFromPEM(privatePEM, publicPEM, issuer, audience string, accessTTL time.Duration) (*TokenProvider, error) {
	pub, err := ParsePublicKey(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("security: public key: %w", err)
	}
	var priv crypto.Signer
	if privatePEM != "" {
		if priv, err = ParsePrivateKey(privatePEM); err != nil {
			return nil, fmt.Errorf("security: private key: %w", err)
		}
	}
	return NewTokenProvider(priv, pub, issuer, audience, accessTTL), nil
}
