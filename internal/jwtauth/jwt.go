package jwtauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
)

// Claims represents the JWT claims for partner access tokens.
type Claims struct {
	PartnerID string `json:"partner_id"`
	jwt.RegisteredClaims
}

// Service handles partner JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	tokenTTL   time.Duration
}

// NewService constructs a JWT service. TTL bounds how long an issued partner
// token stays valid.
func NewService(signingKey string, issuer string, tokenTTL time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		tokenTTL:   tokenTTL,
	}
}

// GeneratePartnerToken issues an HS256 token for an authenticated partner.
func (s *Service) GeneratePartnerToken(partnerID id.PartnerID) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		PartnerID: partnerID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidatePartnerToken verifies a bearer token and returns the partner it
// authenticates. Satisfies middleware.TokenValidator.
func (s *Service) ValidatePartnerToken(tokenString string) (id.PartnerID, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return id.PartnerID{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return id.PartnerID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return id.PartnerID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return id.PartnerID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	partnerID, err := id.ParsePartnerID(claims.PartnerID)
	if err != nil {
		return id.PartnerID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid partner id in token")
	}
	return partnerID, nil
}
