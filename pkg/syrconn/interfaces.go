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
	"net/http"

	"github.com/carverauto/syrbridge/pkg/models"
)

// HTTPClient abstracts the HTTP round trip for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// LoginClient is the slice of the client the session manager needs.
type LoginClient interface {
	Login(ctx context.Context) (*LoginResult, error)
}

// LoginResult carries the outcome of an authentication exchange.
type LoginResult struct {
	SessionID string
	Projects  []models.Project
}
