// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"rivaas.dev/endpoint/router"
)

// ErrEmptyKey is returned by [NewJWT] for an empty signing key.
var ErrEmptyKey = errors.New("auth: signing key cannot be empty")

// JWT authorizes requests carrying an HMAC-signed bearer token.
type JWT struct {
	key        []byte
	parser     *jwt.Parser
	issuer     string
	audience   string
	rolesClaim string
	queryParam string
	policies   policies
}

// JWTOption configures a [JWT] authorizer.
type JWTOption func(*JWT)

// WithSigningMethods restricts the accepted "alg" values. Default: HS256.
func WithSigningMethods(methods ...jwt.SigningMethod) JWTOption {
	return func(j *JWT) {
		algs := make([]string, len(methods))
		for i, m := range methods {
			algs[i] = m.Alg()
		}
		j.parser = jwt.NewParser(jwt.WithValidMethods(algs))
	}
}

// WithIssuer requires the "iss" claim to equal issuer.
func WithIssuer(issuer string) JWTOption {
	return func(j *JWT) {
		j.issuer = issuer
	}
}

// WithAudience requires the "aud" claim to contain audience.
func WithAudience(audience string) JWTOption {
	return func(j *JWT) {
		j.audience = audience
	}
}

// WithRolesClaim names the claim holding the caller's roles, either a JSON
// array of strings or a space-separated string. Default: "roles".
func WithRolesClaim(name string) JWTOption {
	return func(j *JWT) {
		j.rolesClaim = name
	}
}

// WithQueryParam also accepts the token from a query parameter when the
// Authorization header is absent, for links that cannot carry headers.
func WithQueryParam(name string) JWTOption {
	return func(j *JWT) {
		j.queryParam = name
	}
}

// WithPolicy registers a custom check for a policy name.
func WithPolicy(name string, fn PolicyFunc) JWTOption {
	return func(j *JWT) {
		j.policies[name] = fn
	}
}

// NewJWT creates a JWT authorizer verifying tokens with key.
func NewJWT(key []byte, opts ...JWTOption) (*JWT, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}

	j := &JWT{
		key:        key,
		parser:     jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
		rolesClaim: "roles",
		policies:   make(policies),
	}
	for _, opt := range opts {
		opt(j)
	}

	return j, nil
}

// MustNewJWT is like [NewJWT] but panics on error.
func MustNewJWT(key []byte, opts ...JWTOption) *JWT {
	j, err := NewJWT(key, opts...)
	if err != nil {
		panic(err)
	}

	return j
}

var _ router.Authorizer = (*JWT)(nil)

// Authorize implements router.Authorizer.
func (j *JWT) Authorize(req *http.Request, required []string) (context.Context, error) {
	raw := j.token(req)
	if raw == "" {
		return nil, fmt.Errorf("%w: no bearer token", router.ErrUnauthenticated)
	}

	claims := jwt.MapClaims{}
	if _, err := j.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return j.key, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", router.ErrUnauthenticated, err)
	}

	if j.issuer != "" && !claims.VerifyIssuer(j.issuer, true) {
		return nil, fmt.Errorf("%w: unexpected issuer", router.ErrUnauthenticated)
	}
	if j.audience != "" && !claims.VerifyAudience(j.audience, true) {
		return nil, fmt.Errorf("%w: unexpected audience", router.ErrUnauthenticated)
	}

	p := Principal{Roles: rolesFrom(claims[j.rolesClaim]), Claims: claims}
	p.Subject, _ = claims["sub"].(string)

	if err := j.policies.check(p, required); err != nil {
		return nil, err
	}

	return NewContext(req.Context(), p), nil
}

func (j *JWT) token(req *http.Request) string {
	if h := req.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}

		return ""
	}

	if j.queryParam != "" {
		return req.URL.Query().Get(j.queryParam)
	}

	return ""
}

func rolesFrom(v any) []string {
	switch roles := v.(type) {
	case string:
		return strings.Fields(roles)
	case []any:
		out := make([]string, 0, len(roles))
		for _, r := range roles {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}

		return out
	case []string:
		return roles
	default:
		return nil
	}
}
