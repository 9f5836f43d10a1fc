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


//go:build integration

package main

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/net/http2"
)

// freeAddr reserves a loopback port and releases it for the server to bind.
func freeAddr() string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())
	addr := ln.Addr().String()
	Expect(ln.Close()).To(Succeed())

	return addr
}

func get(client *http.Client, url string) (*http.Response, string) {
	resp, err := client.Get(url)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())

	return resp, string(body)
}

var _ = Describe("endpointd", Ordered, func() {
	var (
		a         *app
		apiURL    string
		metricURL string
		cancel    context.CancelFunc
		served    chan error
	)

	BeforeAll(func() {
		s, err := loadSettings(context.Background(), "")
		Expect(err).NotTo(HaveOccurred())
		s.Server.Addr = freeAddr()
		s.Server.H2C = true
		s.Server.ShutdownTimeout = 2 * time.Second
		s.Metrics.Addr = freeAddr()

		a, err = newApp(context.Background(), s, &bytes.Buffer{})
		Expect(err).NotTo(HaveOccurred())

		apiURL = "http://" + s.Server.Addr
		metricURL = "http://" + s.Metrics.Addr + "/metrics"

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		served = make(chan error, 1)
		go func() { served <- a.serve(ctx) }()

		Eventually(func() error {
			resp, err := http.Get(apiURL + "/healthz")
			if err == nil {
				resp.Body.Close()
			}

			return err
		}, 3*time.Second, 20*time.Millisecond).Should(Succeed())
	})

	AfterAll(func() {
		cancel()
		Eventually(served, 5*time.Second).Should(Receive(BeNil()))
		Expect(a.close(context.Background())).To(Succeed())
	})

	It("serves the order API over HTTP/1.1", func() {
		resp, body := get(http.DefaultClient, apiURL+"/api/v1/orders")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("X-Request-ID")).NotTo(BeEmpty())
		Expect(body).To(HavePrefix("["))
	})

	It("answers unknown order ids with a problem", func() {
		resp, body := get(http.DefaultClient, apiURL+"/api/v1/orders/9999")
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("application/problem+json"))
		Expect(body).To(ContainSubstring(`"status":404`))
	})

	It("serves cleartext HTTP/2 when h2c is enabled", func() {
		client := &http.Client{Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		}}

		resp, body := get(client, apiURL+"/healthz")
		Expect(resp.ProtoMajor).To(Equal(2))
		Expect(body).To(Equal("ok"))
	})

	It("exports request metrics on the metrics listener", func() {
		Eventually(func() string {
			_, body := get(http.DefaultClient, metricURL)
			return body
		}, 3*time.Second, 50*time.Millisecond).Should(ContainSubstring("http_requests_total"))
	})
})

//nolint:paralleltest // Ginkgo test suite manages its own parallelization
func TestEndpointdIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	RegisterFailHandler(Fail)
	RunSpecs(t, "endpointd Integration Suite")
}
