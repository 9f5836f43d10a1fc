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
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/common-nighthawk/go-figure"
	"golang.org/x/term"

	"rivaas.dev/endpoint/router"
)

var methodColors = map[string]lipgloss.Color{
	http.MethodGet:    "10",
	http.MethodPost:   "12",
	http.MethodPut:    "11",
	http.MethodPatch:  "13",
	http.MethodDelete: "9",
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}

// printBanner writes the service name, its listeners and the route table.
// Colors are stripped in production and when w is not a terminal.
func printBanner(w io.Writer, s *settings, routes []*router.Route) {
	cpw := colorprofile.NewWriter(w, os.Environ())
	if s.Service.Environment == "production" {
		cpw.Profile = colorprofile.NoTTY
	}

	var b strings.Builder
	art := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	for _, line := range figure.NewFigure(s.Service.Name, "", false).Slicify() {
		b.WriteString(art.Render(line) + "\n")
	}

	label := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(14).PaddingLeft(2)
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	line := func(k, v string) {
		b.WriteString(label.Render(k+":") + "  " + value.Render(v) + "\n")
	}

	b.WriteString("\n")
	line("Version", s.Service.Version)
	if s.Service.Environment != "" {
		line("Environment", s.Service.Environment)
	}
	line("Address", displayAddr(s.Server.Addr)+"/api/v1")
	line("Metrics", displayAddr(s.Metrics.Addr)+"/metrics")
	line("Tracing", s.Tracing.Exporter)

	if len(routes) > 0 {
		b.WriteString("\n" + routeTable(routes) + "\n")
	}

	fmt.Fprintln(cpw)
	fmt.Fprint(cpw, b.String())
	fmt.Fprintln(cpw)
}

func routeTable(routes []*router.Route) string {
	rows := make([][]string, 0, len(routes))
	for _, rt := range routes {
		methods := rt.Methods()
		for i, m := range methods {
			if c, ok := methodColors[m]; ok {
				methods[i] = lipgloss.NewStyle().Foreground(c).Bold(true).Render(m)
			}
		}
		name := rt.Name()
		if name == "" {
			name = "-"
		}
		method := strings.Join(methods, ",")
		if method == "" {
			method = "ANY"
		}
		rows = append(rows, []string{method, rt.Template(), name})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("Method", "Route", "Name").
		Rows(rows...).
		String()
}

// displayAddr turns a listen address into a URL: ":8080" becomes
// "http://0.0.0.0:8080".
func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "0.0.0.0" + addr
	}

	return "http://" + addr
}
