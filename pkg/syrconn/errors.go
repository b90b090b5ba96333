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

import "errors"

// Failure categories consumers classify with errors.Is. ErrDecrypt is
// auth-equivalent (a corrupt login payload means the credentials cannot be
// verified); ErrParse and ErrProtocol are connection-equivalent at the
// orchestrator boundary and degrade a single device or project rather than
// the whole cycle.
var (
	ErrAuth       = errors.New("authentication failed")
	ErrConnection = errors.New("connection failed")
	ErrParse      = errors.New("malformed response")
	ErrProtocol   = errors.New("unexpected response structure")
	ErrDecrypt    = errors.New("decryption failed")
	ErrNotFound   = errors.New("device not found")
)

var (
	errUnexpectedStatusCode = errors.New("unexpected status code")
	errEmptyPayload         = errors.New("encrypted payload is empty")
)
