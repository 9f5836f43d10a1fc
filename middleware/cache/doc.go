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

// Package cache provides a response cache filter for GET and HEAD
// requests.
//
// Responses are kept in a [Store]: [MemoryStore] for a single process, or
// [RedisStore] to share entries between instances.
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	r.GET("/catalog", listCatalog).Use(cache.New(
//	    cache.WithStore(cache.NewRedisStore(rdb, "catalog:")),
//	    cache.WithTTL(5*time.Minute),
//	))
//
// Only in-memory bodies with a cacheable status (200 by default) are
// stored. Responses that set cookies or say Cache-Control: no-store or
// private are never stored. A request with Cache-Control: no-cache skips
// the lookup and refreshes the entry.
//
// Every response the filter handles carries X-Cache: HIT, MISS or BYPASS.
// Hits also carry Age.
package cache
