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

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/syrbridge/pkg/models"
)

func TestConfigValidateDefaults(t *testing.T) {
	cfg := &Config{Username: "user@example.com", Password: "secret"}

	require.NoError(t, cfg.Validate())

	assert.Equal(t, defaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, models.Duration(defaultPollInterval), cfg.PollInterval)
	assert.Equal(t, models.Duration(defaultRequestTimeout), cfg.RequestTimeout)
	assert.Equal(t, defaultMaxRetries, cfg.MaxRetries)
	assert.Equal(t, models.Duration(defaultOptimisticWindow), cfg.OptimisticWindow)
	require.NotNil(t, cfg.Logging)
}

func TestConfigValidateKeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		Username:     "user@example.com",
		Password:     "secret",
		ListenAddr:   ":9999",
		PollInterval: models.Duration(5 * time.Second),
		MaxRetries:   7,
	}

	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, models.Duration(5*time.Second), cfg.PollInterval)
	assert.Equal(t, 7, cfg.MaxRetries)
}

func TestConfigValidateMissingUsername(t *testing.T) {
	cfg := &Config{Password: "secret"}
	assert.ErrorIs(t, cfg.Validate(), errUsernameRequired)
}

func TestConfigValidatePasswordFromEnv(t *testing.T) {
	t.Setenv(passwordEnvVar, "env-secret")

	cfg := &Config{Username: "user@example.com"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "env-secret", cfg.Password)
}

func TestConfigValidateMissingPassword(t *testing.T) {
	t.Setenv(passwordEnvVar, "")

	cfg := &Config{Username: "user@example.com"}
	assert.ErrorIs(t, cfg.Validate(), errPasswordRequired)
}
