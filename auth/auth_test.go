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

//go:build !integration

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"rivaas.dev/endpoint/router"
)

var testKey = []byte("test-signing-key")

func sign(t *testing.T, method jwt.SigningMethod, key []byte, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)

	return token
}

func validClaims(roles ...any) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "user-7",
		"iss":   "https://id.example.com",
		"aud":   "orders",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"roles": roles,
	}
}

func newRouter(a router.Authorizer) *router.Router {
	r := router.MustNew(router.WithAuthorizer(a))
	admin := r.Group("/admin").RequireAuthorization("admin")
	admin.GET("/whoami", func(c *router.Context) (any, error) {
		p, ok := FromContext(c.Context())
		if !ok {
			return nil, nil
		}
		return p.Subject, nil
	})
	r.GET("/public", func(c *router.Context) (any, error) { return "public", nil })

	return r
}

func get(r http.Handler, path string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func bearer(token string) func(*http.Request) {
	return func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) }
}

func TestJWT_Authorize(t *testing.T) {
	t.Parallel()

	a := MustNewJWT(testKey, WithIssuer("https://id.example.com"), WithAudience("orders"))
	r := newRouter(a)

	expired := validClaims("admin")
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	wrongIssuer := validClaims("admin")
	wrongIssuer["iss"] = "https://evil.example.com"
	wrongAudience := validClaims("admin")
	wrongAudience["aud"] = "billing"

	tests := []struct {
		name   string
		mutate func(*http.Request)
		want   int
	}{
		{"admin token", bearer(sign(t, jwt.SigningMethodHS256, testKey, validClaims("admin"))), http.StatusOK},
		{"missing token", nil, http.StatusUnauthorized},
		{"wrong scheme", func(req *http.Request) { req.Header.Set("Authorization", "Token abc") }, http.StatusUnauthorized},
		{"garbage", bearer("not.a.jwt"), http.StatusUnauthorized},
		{"wrong key", bearer(sign(t, jwt.SigningMethodHS256, []byte("other"), validClaims("admin"))), http.StatusUnauthorized},
		{"disallowed alg", bearer(sign(t, jwt.SigningMethodHS512, testKey, validClaims("admin"))), http.StatusUnauthorized},
		{"expired", bearer(sign(t, jwt.SigningMethodHS256, testKey, expired)), http.StatusUnauthorized},
		{"wrong issuer", bearer(sign(t, jwt.SigningMethodHS256, testKey, wrongIssuer)), http.StatusUnauthorized},
		{"wrong audience", bearer(sign(t, jwt.SigningMethodHS256, testKey, wrongAudience)), http.StatusUnauthorized},
		{"missing role", bearer(sign(t, jwt.SigningMethodHS256, testKey, validClaims("viewer"))), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := get(r, "/admin/whoami", tt.mutate)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.want == http.StatusOK {
				assert.Equal(t, "user-7", w.Body.String())
			}
		})
	}
}

func TestJWT_PublicRoutesSkipAuthorization(t *testing.T) {
	t.Parallel()

	r := newRouter(MustNewJWT(testKey))
	assert.Equal(t, http.StatusOK, get(r, "/public", nil).Code)
}

func TestJWT_QueryParamAndCustomPolicy(t *testing.T) {
	t.Parallel()

	a := MustNewJWT(testKey,
		WithQueryParam("jwt"),
		WithRolesClaim("scope"),
		WithSigningMethods(jwt.SigningMethodHS256, jwt.SigningMethodHS512),
		WithPolicy("admin", func(p Principal) bool { return p.HasRole("orders:admin") }),
	)
	r := newRouter(a)

	claims := jwt.MapClaims{"sub": "svc", "scope": "orders:read orders:admin"}
	token := sign(t, jwt.SigningMethodHS512, testKey, claims)

	w := get(r, "/admin/whoami?jwt="+token, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "svc", w.Body.String())
}

func TestNewJWT_EmptyKey(t *testing.T) {
	t.Parallel()

	_, err := NewJWT(nil)
	require.ErrorIs(t, err, ErrEmptyKey)
	assert.Panics(t, func() { MustNewJWT([]byte{}) })
}

func TestBasic_Authorize(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	viewerHash, err := bcrypt.GenerateFromPassword([]byte("view"), bcrypt.MinCost)
	require.NoError(t, err)

	r := newRouter(NewBasic(
		WithUser("ops", string(hash), "admin"),
		WithUser("viewer", string(viewerHash)),
	))

	tests := []struct {
		name   string
		mutate func(*http.Request)
		want   int
	}{
		{"valid admin", func(req *http.Request) { req.SetBasicAuth("ops", "s3cret") }, http.StatusOK},
		{"wrong password", func(req *http.Request) { req.SetBasicAuth("ops", "nope") }, http.StatusUnauthorized},
		{"unknown user", func(req *http.Request) { req.SetBasicAuth("ghost", "s3cret") }, http.StatusUnauthorized},
		{"no credentials", nil, http.StatusUnauthorized},
		{"not an admin", func(req *http.Request) { req.SetBasicAuth("viewer", "view") }, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := get(r, "/admin/whoami", tt.mutate)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestBasic_Validator(t *testing.T) {
	t.Parallel()

	b := NewBasic(
		WithValidator(func(_ context.Context, username, password string) (Principal, bool) {
			return Principal{Subject: username, Roles: []string{"support"}}, password == "ldap-ok"
		}),
		WithBasicPolicy("admin", func(p Principal) bool { return p.HasRole("support") }),
	)
	r := newRouter(b)

	w := get(r, "/admin/whoami", func(req *http.Request) { req.SetBasicAuth("ada", "ldap-ok") })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ada", w.Body.String())

	w = get(r, "/admin/whoami", func(req *http.Request) { req.SetBasicAuth("ada", "bad") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHashPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("pa55")
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("pa55")))
}

func TestRolesFrom(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b"}, rolesFrom("a  b"))
	assert.Equal(t, []string{"a"}, rolesFrom([]any{"a", 3}))
	assert.Equal(t, []string{"x"}, rolesFrom([]string{"x"}))
	assert.Nil(t, rolesFrom(42))
}

func TestPrincipalContext(t *testing.T) {
	t.Parallel()

	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := NewContext(context.Background(), Principal{Subject: "s", Roles: []string{"r"}})
	p, ok := FromContext(ctx)
	require.True(t, ok)
	assert.True(t, p.HasRole("r"))
	assert.False(t, p.HasRole("x"))
}
