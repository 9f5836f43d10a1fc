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
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"rivaas.dev/endpoint/router"
)

// dummyHash is compared against when the user is unknown, so lookups of
// unknown and known users take the same time.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("rivaas-dummy-password"), bcrypt.MinCost)

// HashPassword returns the bcrypt hash of password for use with [WithUser].
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}

	return string(hash), nil
}

// Validator checks credentials against an external store. It returns the
// principal and true when they are valid.
type Validator func(ctx context.Context, username, password string) (Principal, bool)

type basicUser struct {
	hash  []byte
	roles []string
}

// Basic authorizes requests carrying HTTP Basic credentials.
type Basic struct {
	users     map[string]basicUser
	validator Validator
	policies  policies
}

// BasicOption configures a [Basic] authorizer.
type BasicOption func(*Basic)

// WithUser adds a user with a bcrypt password hash and its roles.
func WithUser(username, bcryptHash string, roles ...string) BasicOption {
	return func(b *Basic) {
		b.users[username] = basicUser{hash: []byte(bcryptHash), roles: roles}
	}
}

// WithValidator checks credentials with fn instead of the static users.
func WithValidator(fn Validator) BasicOption {
	return func(b *Basic) {
		b.validator = fn
	}
}

// WithBasicPolicy registers a custom check for a policy name.
func WithBasicPolicy(name string, fn PolicyFunc) BasicOption {
	return func(b *Basic) {
		b.policies[name] = fn
	}
}

// NewBasic creates a Basic authorizer.
//
// Example:
//
//	hash, _ := auth.HashPassword("s3cret")
//	basic := auth.NewBasic(auth.WithUser("ops", hash, "admin"))
func NewBasic(opts ...BasicOption) *Basic {
	b := &Basic{users: make(map[string]basicUser), policies: make(policies)}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

var _ router.Authorizer = (*Basic)(nil)

// Authorize implements router.Authorizer.
func (b *Basic) Authorize(req *http.Request, required []string) (context.Context, error) {
	username, password, ok := req.BasicAuth()
	if !ok {
		return nil, fmt.Errorf("%w: no basic credentials", router.ErrUnauthenticated)
	}

	p, ok := b.authenticate(req.Context(), username, password)
	if !ok {
		return nil, fmt.Errorf("%w: invalid credentials", router.ErrUnauthenticated)
	}

	if err := b.policies.check(p, required); err != nil {
		return nil, err
	}

	return NewContext(req.Context(), p), nil
}

func (b *Basic) authenticate(ctx context.Context, username, password string) (Principal, bool) {
	if b.validator != nil {
		return b.validator(ctx, username, password)
	}

	user, known := b.users[username]
	hash := user.hash
	if !known {
		hash = dummyHash
	}

	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil || !known {
		return Principal{}, false
	}

	return Principal{Subject: username, Roles: user.roles}, true
}
