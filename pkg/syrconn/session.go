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
	"sync"
	"time"

	"github.com/carverauto/syrbridge/pkg/logger"
	"github.com/carverauto/syrbridge/pkg/models"
)

// defaultSessionTTL matches the vendor's server-side session timeout.
const defaultSessionTTL = 30 * time.Minute

// SessionManager caches the login session and re-authenticates when it
// expires. Concurrent callers share a single login; the write lock is
// re-checked so only the first waiter performs the exchange.
type SessionManager struct {
	client LoginClient
	ttl    time.Duration
	logger logger.Logger
	now    func() time.Time

	mu        sync.RWMutex
	sessionID string
	projects  []models.Project
	expiresAt time.Time
}

// NewSessionManager builds a SessionManager. A non-positive ttl falls
// back to the vendor's 30 minute window.
func NewSessionManager(client LoginClient, ttl time.Duration, log logger.Logger) *SessionManager {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	return &SessionManager{
		client: client,
		ttl:    ttl,
		logger: log,
		now:    time.Now,
	}
}

// EnsureValid returns a live session ID and the account's projects,
// logging in first when no valid session is cached.
func (s *SessionManager) EnsureValid(ctx context.Context) (string, []models.Project, error) {
	s.mu.RLock()
	if s.validLocked() {
		id, projects := s.sessionID, s.projects
		s.mu.RUnlock()

		return id, projects, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have logged in while we waited for the lock.
	if s.validLocked() {
		return s.sessionID, s.projects, nil
	}

	s.logger.Debug().Msg("Session missing or expired, authenticating")

	result, err := s.client.Login(ctx)
	if err != nil {
		return "", nil, err
	}

	s.sessionID = result.SessionID
	s.projects = result.Projects
	s.expiresAt = s.now().Add(s.ttl)

	s.logger.Info().
		Int("projects", len(result.Projects)).
		Time("expires_at", s.expiresAt).
		Msg("Authenticated")

	return s.sessionID, s.projects, nil
}

// Invalidate drops the cached session so the next call logs in again.
func (s *SessionManager) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionID = ""
	s.projects = nil
	s.expiresAt = time.Time{}
}

func (s *SessionManager) validLocked() bool {
	return s.sessionID != "" && s.now().Before(s.expiresAt)
}
