/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package syrconn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/carverauto/syrbridge/pkg/logger"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultMaxRetries     = 3
)

// Transport posts XML payloads to the vendor service with the fixed
// client headers and retries transient network failures. Non-2xx
// responses are terminal because the service signals protocol errors
// in the body, not in status codes.
type Transport struct {
	httpClient HTTPClient
	timeout    time.Duration
	maxRetries int
	logger     logger.Logger
}

// NewTransport builds a Transport. A nil httpClient falls back to a
// plain http.Client.
func NewTransport(httpClient HTTPClient, timeout time.Duration, maxRetries int, log logger.Logger) *Transport {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &Transport{
		httpClient: httpClient,
		timeout:    timeout,
		maxRetries: maxRetries,
		logger:     log,
	}
}

// Post sends the body as-is with the given content type and returns the
// response body.
func (t *Transport) Post(ctx context.Context, endpoint, contentType, body string) (string, error) {
	return t.post(ctx, endpoint, contentType, body)
}

// PostForm sends the payload form-encoded under the xml field, which is
// how every signed request travels.
func (t *Transport) PostForm(ctx context.Context, endpoint, payload string) (string, error) {
	form := url.Values{"xml": []string{payload}}

	return t.post(ctx, endpoint, contentTypeForm, form.Encode())
}

func (t *Transport) post(ctx context.Context, endpoint, contentType, body string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < t.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second

			t.logger.Debug().
				Str("endpoint", endpoint).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying request")

			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %w", ErrConnection, ctx.Err())
			case <-time.After(backoff):
			}
		}

		response, err := t.attempt(ctx, endpoint, contentType, body)
		if err == nil {
			return response, nil
		}

		// Responses with a bad status reached the service; retrying
		// will not change the answer.
		if errors.Is(err, errUnexpectedStatusCode) {
			return "", err
		}

		lastErr = err
	}

	return "", fmt.Errorf("%w: %w", ErrConnection, lastErr)
}

func (t *Transport) attempt(ctx context.Context, endpoint, contentType, body string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("Connection", "keep-alive")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: %w: %d", ErrConnection, errUnexpectedStatusCode, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(data), nil
}
