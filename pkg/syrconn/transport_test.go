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
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/syrbridge/pkg/logger"
)

type failingHTTPClient struct {
	calls int32
}

func (f *failingHTTPClient) Do(_ *http.Request) (*http.Response, error) {
	atomic.AddInt32(&f.calls, 1)
	return nil, errors.New("dial tcp: connection refused")
}

func TestTransportPostForm(t *testing.T) {
	var gotContentType, gotUserAgent, gotBody string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotUserAgent = r.Header.Get("User-Agent")

		require.NoError(t, r.ParseForm())
		gotBody = r.PostFormValue("xml")

		_, _ = w.Write([]byte(`<sc/>`))
	}))
	defer server.Close()

	tr := NewTransport(server.Client(), time.Second, 1, logger.NewTestLogger())

	resp, err := tr.PostForm(context.Background(), server.URL, `<sc><us ug="S1"/></sc>`)
	require.NoError(t, err)

	assert.Equal(t, `<sc/>`, resp)
	assert.Equal(t, contentTypeForm, gotContentType)
	assert.Equal(t, userAgent, gotUserAgent)
	assert.Equal(t, `<sc><us ug="S1"/></sc>`, gotBody)
}

func TestTransportPostXML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, contentTypeXML, r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	tr := NewTransport(server.Client(), time.Second, 1, logger.NewTestLogger())

	resp, err := tr.Post(context.Background(), server.URL, contentTypeXML, "<sc/>")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

func TestTransportBadStatusIsTerminal(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	tr := NewTransport(server.Client(), time.Second, 3, logger.NewTestLogger())

	_, err := tr.PostForm(context.Background(), server.URL, "<sc/>")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnection)
	// A bad status reached the service, so there is no retry.
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTransportRetriesNetworkFailures(t *testing.T) {
	client := &failingHTTPClient{}
	tr := NewTransport(client, time.Second, 2, logger.NewTestLogger())

	_, err := tr.PostForm(context.Background(), "http://localhost:1", "<sc/>")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnection)
	assert.Equal(t, int32(2), atomic.LoadInt32(&client.calls))
}

func TestTransportStopsOnCancelledContext(t *testing.T) {
	client := &failingHTTPClient{}
	tr := NewTransport(client, time.Second, 3, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.PostForm(ctx, "http://localhost:1", "<sc/>")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnection)
	// The first attempt runs, then the backoff wait observes the
	// cancelled context.
	assert.Equal(t, int32(1), atomic.LoadInt32(&client.calls))
}

func TestTransportDefaults(t *testing.T) {
	tr := NewTransport(nil, 0, 0, logger.NewTestLogger())

	assert.NotNil(t, tr.httpClient)
	assert.Equal(t, defaultRequestTimeout, tr.timeout)
	assert.Equal(t, defaultMaxRetries, tr.maxRetries)
}
