package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HendrickPhan/go-verify-apple-id-token/validator"
	"google.golang.org/api/idtoken"
)

// ExternalTokenClaims is the provider-independent view of a verified
// sign-in token: enough to find or create the local profile.
type ExternalTokenClaims struct {
	Issuer  string
	Subject string
	Email   string
	Name    string
	Picture string
}

func VerifyGoogleIDToken(ctx context.Context, tokenString, expectedAud string) (*ExternalTokenClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, errors.New("missing id token")
	}
	if strings.TrimSpace(expectedAud) == "" {
		return nil, errors.New("missing google client id")
	}

	payload, err := idtoken.Validate(ctx, tokenString, expectedAud)
	if err != nil {
		return nil, err
	}
	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return nil, fmt.Errorf("unexpected issuer: %s", payload.Issuer)
	}

	claims := &ExternalTokenClaims{
		Issuer:  payload.Issuer,
		Subject: payload.Subject,
		Email:   strings.TrimSpace(strings.ToLower(stringClaim(payload.Claims, "email"))),
		Name:    strings.TrimSpace(stringClaim(payload.Claims, "name")),
		Picture: strings.TrimSpace(stringClaim(payload.Claims, "picture")),
	}
	return claims, nil
}

func VerifyAppleIDToken(ctx context.Context, tokenString, expectedAud string) (*ExternalTokenClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, errors.New("missing id token")
	}
	if strings.TrimSpace(expectedAud) == "" {
		return nil, errors.New("missing apple service id")
	}

	client := validator.NewClient()
	idToken, err := client.VerifyIdToken(expectedAud, tokenString)
	if err != nil {
		return nil, err
	}
	if idToken.Iss != "https://appleid.apple.com" {
		return nil, fmt.Errorf("unexpected issuer: %s", idToken.Iss)
	}

	_ = ctx
	return &ExternalTokenClaims{
		Issuer:  idToken.Iss,
		Subject: idToken.Sub,
		Email:   strings.TrimSpace(strings.ToLower(idToken.Email)),
	}, nil
}

func stringClaim(claims map[string]any, key string) string {
	if raw, ok := claims[key]; ok {
		if v, ok := raw.(string); ok {
			return v
		}
	}
	return ""
}
