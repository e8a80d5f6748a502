// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	errs "github.com/aedwatch/device-query-service/pkg/errors"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

const (
	// PS256 is what the gateway's JWT finalizer signs with.
	signatureAlgorithm = validator.PS256
	defaultIssuer      = "aedwatch-gateway"
	defaultAudience    = "aedwatch-device-query-service"
	defaultJWKSURL     = "http://gateway:4457/.well-known/jwks"
)

// JWTAuthConfig holds the configuration parameters for JWT authentication.
type JWTAuthConfig struct {
	// JWKSURL is the URL to the JSON Web Key Set endpoint
	JWKSURL string
	// Audience is the intended audience for the JWT token
	Audience string
	// MockLocalPrincipal is used for local development to bypass JWT validation
	MockLocalPrincipal string
}

// Factory for custom JWT claims target.
var customClaims = func() validator.CustomClaims {
	return &GatewayClaims{}
}

// GatewayClaims contains extra custom claims we want to parse from the JWT
// token.
type GatewayClaims struct {
	Principal string `json:"principal"`
	Email     string `json:"email,omitempty"`
}

// Validate provides additional middleware validation of any claims defined
// in GatewayClaims.
func (c *GatewayClaims) Validate(ctx context.Context) error {
	if c.Principal == "" {
		return errors.New("principal must be provided")
	}
	return nil
}

type JWTAuth struct {
	validator *validator.Validator
	config    JWTAuthConfig
}

// ParsePrincipal extracts the principal from the JWT claims.
func (j *JWTAuth) ParsePrincipal(ctx context.Context, token string) (string, error) {

	if j.config.MockLocalPrincipal != "" && token == "" {
		// Local development shortcut: no token needed.
		return j.config.MockLocalPrincipal, nil
	}

	if j.validator == nil {
		return "", errors.New("JWT validator is not set up")
	}

	parsedJWT, err := j.validator.ValidateToken(ctx, token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to validate JWT token",
			"error", err,
		)
		// Trim deeply nested errors so internals of the JWT library are not
		// echoed back to callers.
		errString := err.Error()
		firstColon := strings.Index(errString, ":")
		if firstColon != -1 && firstColon+1 < len(errString) {
			errString = strings.Replace(errString, ": go-jose/go-jose/jwt", "", 1)
			secondColon := strings.Index(errString[firstColon+1:], ":")
			if secondColon != -1 {
				errString = errString[:firstColon+secondColon+1]
			}
		}
		return "", errs.NewAccessDenied(errString)
	}

	claims, ok := parsedJWT.(*validator.ValidatedClaims)
	if !ok {
		// This should never happen.
		return "", errs.NewAccessDenied("failed to get validated authorization claims")
	}

	gatewayClaims, ok := claims.CustomClaims.(*GatewayClaims)
	if !ok {
		// This should never happen.
		return "", errs.NewAccessDenied("failed to get custom authorization claims")
	}

	return gatewayClaims.Principal, nil
}

// NewJWTAuth creates a new JWT authentication service
func NewJWTAuth(config JWTAuthConfig) (*JWTAuth, error) {
	if config.MockLocalPrincipal != "" {
		slog.Warn("JWT validation disabled, using mock local principal",
			"principal", config.MockLocalPrincipal,
		)
		return &JWTAuth{config: config}, nil
	}

	jwksURLStr := config.JWKSURL
	if jwksURLStr == "" {
		jwksURLStr = defaultJWKSURL
	}
	audience := config.Audience
	if audience == "" {
		audience = defaultAudience
	}

	jwksURL, err := url.Parse(jwksURLStr)
	if err != nil {
		slog.With("error", err).Error("invalid JWKS_URL")
		return nil, err
	}
	var issuer *url.URL
	issuer, err = url.Parse(defaultIssuer)
	if err != nil {
		// This shouldn't happen; a bare hostname is a valid URL.
		slog.Error("unexpected URL parsing of default issuer")
		return nil, err
	}
	provider := jwks.NewCachingProvider(issuer, 5*time.Minute, jwks.WithCustomJWKSURI(jwksURL))

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		signatureAlgorithm,
		issuer.String(),
		[]string{audience},
		validator.WithCustomClaims(customClaims),
		validator.WithAllowedClockSkew(5*time.Second),
	)
	if err != nil {
		slog.With("error", err).Error("failed to set up the JWT validator")
		return nil, err
	}

	return &JWTAuth{
		validator: jwtValidator,
		config:    config,
	}, nil
}
