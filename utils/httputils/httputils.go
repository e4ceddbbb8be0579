// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package httputils provides http.RoundTripper decorators for outbound calls.
package httputils

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"strings"
	"time"
)

const redacted = "REDACTED"

// LoggingRoundTripper dumps every request and response to Writer. Any value in
// Redact (an API key in a query string, for instance) is masked in the dump.
type LoggingRoundTripper struct {
	Transport http.RoundTripper
	Writer    io.Writer
	DumpBody  bool
	Redact    []string
}

func abbreviate(lines []string, prefix rune) []string {
	const maxLines, maxChars = 2048, 512

	if len(lines) > maxLines {
		lines = append(lines[:maxLines], "…")
	}

	for i, line := range lines {
		line = fmt.Sprintf("%c %s", prefix, line)
		if len(line) > maxChars {
			line = line[:maxChars] + "…"
		}

		lines[i] = line
	}

	return lines
}

func (t *LoggingRoundTripper) mask(dump []byte) string {
	s := string(dump)

	for _, secret := range t.Redact {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, redacted)
		}
	}

	return s
}

func (t *LoggingRoundTripper) write(dump []byte, prefix rune) error {
	lines := abbreviate(strings.Split(t.mask(dump), "\n"), prefix)
	lines = append(lines, "")
	_, err := fmt.Fprint(t.Writer, strings.Join(lines, "\n"))

	return err
}

func (t *LoggingRoundTripper) dumpRequest(req *http.Request) error {
	dump, err := httputil.DumpRequestOut(req, true)
	if err != nil {
		return fmt.Errorf("tracing HTTP request: %w", err)
	}

	return t.write(dump, '>')
}

func (t *LoggingRoundTripper) dumpResponse(resp *http.Response, duration time.Duration) error {
	dump, err := httputil.DumpResponse(resp, t.DumpBody)
	if err != nil {
		return fmt.Errorf("tracing HTTP response: %w", err)
	}

	if _, err := fmt.Fprintf(t.Writer, "< RESPONSE: [%v]\n", duration); err != nil {
		return fmt.Errorf("tracing HTTP response: %w", err)
	}

	return t.write(dump, '<')
}

func (t *LoggingRoundTripper) transport() http.RoundTripper {
	if t.Transport == nil {
		return http.DefaultTransport
	}

	return t.Transport
}

// RoundTrip implements the http.RoundTripper interface.
func (t *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Writer == nil {
		return t.transport().RoundTrip(req)
	}

	if err := t.dumpRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()

	resp, err := t.transport().RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if err := t.dumpResponse(resp, time.Since(start)); err != nil {
		return nil, err
	}

	return resp, nil
}

// AppendRequestHeadersRoundTripper sets Headers on every outgoing request.
type AppendRequestHeadersRoundTripper struct {
	Transport http.RoundTripper
	Headers   map[string]string
}

// RoundTrip implements the http.RoundTripper interface.
func (t *AppendRequestHeadersRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}

	if t.Transport == nil {
		return http.DefaultTransport.RoundTrip(req)
	}

	return t.Transport.RoundTrip(req)
}
