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

package bridge

import "errors"

// ErrInvalidCommand rejects command names that are not vendor write
// commands.
var ErrInvalidCommand = errors.New("command must start with set")

var (
	errUsernameRequired      = errors.New("username is required")
	errPasswordRequired      = errors.New("password is required and SYRBRIDGE_PASSWORD is not set")
	errServiceAlreadyStarted = errors.New("service already started")
)
