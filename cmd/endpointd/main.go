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

// Command endpointd is a demo service built on the endpoint router. It
// serves a small order API under /api/v1, Prometheus metrics on a separate
// listener and a health check at /healthz.
//
// Usage:
//
//	endpointd [-config config.yaml] [-env .env]
//
// Settings come from the config file, Consul (when CONSUL_HTTP_ADDR is set)
// and ENDPOINT_* environment variables, in increasing precedence. A .env
// file is loaded into the environment first when present.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "endpointd:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	flags := flag.NewFlagSet("endpointd", flag.ContinueOnError)
	configFile := flags.String("config", "", "path to a YAML, TOML or JSON config file")
	envFile := flags.String("env", ".env", "dotenv file loaded before reading settings")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if err := loadDotenv(*envFile); err != nil {
		return err
	}

	s, err := loadSettings(ctx, *configFile)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, s, out)
	if err != nil {
		return err
	}

	if isTerminal(out) {
		printBanner(out, s, a.router.Routes())
	}

	serveErr := a.serve(ctx)

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	return errors.Join(serveErr, a.close(closeCtx))
}

// loadDotenv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotenv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}

	return nil
}
