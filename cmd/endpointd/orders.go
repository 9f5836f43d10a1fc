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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"rivaas.dev/endpoint/auth"
	riverrors "rivaas.dev/endpoint/errors"
	"rivaas.dev/endpoint/result"
	"rivaas.dev/endpoint/router"
)

var errOrderNotFound = riverrors.WithStatus(errors.New("order not found"), http.StatusNotFound)

// Order is a customer order.
type Order struct {
	ID        int64     `json:"id"`
	Customer  string    `json:"customer"`
	Items     []string  `json:"items"`
	Status    string    `json:"status"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderStore persists orders.
type OrderStore interface {
	Find(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, status string, limit int) ([]*Order, error)
	Create(ctx context.Context, o *Order) error
}

type memoryOrders struct {
	mu     sync.RWMutex
	nextID int64
	orders map[int64]*Order
	now    func() time.Time
}

func newMemoryOrders() *memoryOrders {
	return &memoryOrders{nextID: 1, orders: make(map[int64]*Order), now: time.Now}
}

func (m *memoryOrders) Find(_ context.Context, id int64) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", errOrderNotFound, id)
	}
	cp := *o

	return &cp, nil
}

func (m *memoryOrders) List(_ context.Context, status string, limit int) ([]*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Order, 0, len(m.orders))
	for _, o := range m.orders {
		if status == "" || o.Status == status {
			cp := *o
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *Order) int { return int(a.ID - b.ID) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (m *memoryOrders) Create(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o.ID = m.nextID
	m.nextID++
	o.CreatedAt = m.now().UTC()
	if o.Status == "" {
		o.Status = "pending"
	}
	cp := *o
	m.orders[o.ID] = &cp

	return nil
}

type getOrder struct {
	ID int64 `path:"id"`
}

type listOrders struct {
	Status string `query:"status" validate:"omitempty,oneof=pending shipped cancelled"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

type createOrder struct {
	Customer string   `json:"customer" validate:"required,max=64"`
	Items    []string `json:"items" validate:"required,min=1,dive,required"`
}

var bodyValidator = validator.New(validator.WithRequiredStructEnabled())

func registerOrders(r *router.Router, api *router.Group) {
	api.GET("/orders", router.Bind(func(ctx context.Context, in listOrders, store OrderStore) ([]*Order, error) {
		return store.List(ctx, in.Status, in.Limit)
	})).WithName("orders.list")

	api.GET("/orders/{id:int:min(1)}", router.Bind(func(ctx context.Context, in getOrder, store OrderStore) (*Order, error) {
		return store.Find(ctx, in.ID)
	})).WithName("orders.get")

	api.POST("/orders", router.Bind(createOrderHandler(r))).
		WithName("orders.create").
		RequireAuthorization("orders:write")
}

func createOrderHandler(r *router.Router) func(c *router.Context, store OrderStore) (result.Result, error) {
	return func(c *router.Context, store OrderStore) (result.Result, error) {
		var in createOrder
		dec := json.NewDecoder(c.Request.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&in); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return result.Problem(http.StatusRequestEntityTooLarge, "",
					fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)), nil
			}

			return nil, riverrors.WithStatus(fmt.Errorf("decode order: %w", err), http.StatusBadRequest)
		}

		if err := bodyValidator.Struct(in); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				return nil, err
			}
			fields := make(map[string][]string, len(verrs))
			for _, fe := range verrs {
				name := strings.ToLower(fe.Field())
				fields[name] = append(fields[name], fe.Tag())
			}
			return result.ValidationProblem(fields), nil
		}

		o := &Order{Customer: in.Customer, Items: in.Items}
		if p, ok := auth.FromContext(c.Context()); ok {
			o.CreatedBy = p.Subject
		}
		if err := store.Create(c.Context(), o); err != nil {
			return nil, err
		}

		location, err := r.URLFor("orders.get", map[string]any{"id": o.ID})
		if err != nil {
			return nil, err
		}

		return result.Created(location, o), nil
	}
}
