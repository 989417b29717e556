package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed or invalid.
	ErrInvalidToken = errors.New("invalid token")
)

// tokenUse distinguishes access from refresh tokens so one cannot be replayed as the other.
type tokenUse string

const (
	useAccess  tokenUse = "access"
	useRefresh tokenUse = "refresh"
)

// Claims holds the JWT claims shared by access and refresh tokens. Tokens carry no workspace or
// role: permissions are always resolved from the actor's membership at request time.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string   `json:"sid"`
	Use       tokenUse `json:"use"`
}

// Token is an issued, signed JWT.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// Subject identifies the actor and session a validated token belongs to.
type Subject struct {
	UserID    string
	SessionID string
	TokenID   string
}

// TokenProvider issues and validates JWT access and refresh tokens using RS256 or ES256.
type TokenProvider struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenProvider returns a TokenProvider that signs with privateKey and verifies with publicKey.
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// AccessTTL returns the lifetime of issued access tokens.
func (p *TokenProvider) AccessTTL() time.Duration { return p.accessTTL }

// RefreshTTL returns the lifetime of issued refresh tokens.
func (p *TokenProvider) RefreshTTL() time.Duration { return p.refreshTTL }

// IssueAccess issues a short-lived access JWT for userID within sessionID.
func (p *TokenProvider) IssueAccess(sessionID, userID string) (Token, error) {
	return p.issue(sessionID, userID, useAccess, p.accessTTL)
}

// IssueRefresh issues a long-lived refresh JWT. The caller stores the returned ID on the session for rotation.
func (p *TokenProvider) IssueRefresh(sessionID, userID string) (Token, error) {
	return p.issue(sessionID, userID, useRefresh, p.refreshTTL)
}

// ValidateAccess parses and validates an access token (signature, exp, iss, aud, use).
func (p *TokenProvider) ValidateAccess(tokenString string) (Subject, error) {
	return p.validate(tokenString, useAccess)
}

// ValidateRefresh parses and validates a refresh token (signature, exp, iss, aud, use).
func (p *TokenProvider) ValidateRefresh(tokenString string) (Subject, error) {
	return p.validate(tokenString, useRefresh)
}

func (p *TokenProvider) issue(sessionID, userID string, use tokenUse, ttl time.Duration) (Token, error) {
	jti, err := generateJTI()
	if err != nil {
		return Token{}, err
	}
	now := p.now().UTC()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		SessionID: sessionID,
		Use:       use,
	}
	signed, err := p.sign(claims)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, ID: jti, ExpiresAt: expiresAt}, nil
}

func (p *TokenProvider) sign(claims jwt.Claims) (string, error) {
	var method jwt.SigningMethod
	switch p.privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", ErrInvalidToken
	}
	return jwt.NewWithClaims(method, claims).SignedString(p.privateKey)
}

func (p *TokenProvider) validate(tokenString string, use tokenUse) (Subject, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
			return p.publicKey, nil
		}
		return nil, ErrInvalidToken
	}, jwt.WithIssuer(p.issuer), jwt.WithTimeFunc(p.now))
	if err != nil || !token.Valid {
		return Subject{}, ErrInvalidToken
	}
	if claims.Use != use || claims.Subject == "" || !slices.Contains([]string(claims.Audience), p.audience) {
		return Subject{}, ErrInvalidToken
	}
	return Subject{UserID: claims.Subject, SessionID: claims.SessionID, TokenID: claims.ID}, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
