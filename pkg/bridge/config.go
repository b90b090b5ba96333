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
	"os"
	"time"

	"github.com/carverauto/syrbridge/pkg/logger"
	"github.com/carverauto/syrbridge/pkg/models"
)

const (
	defaultPollInterval     = 60 * time.Second
	defaultRequestTimeout   = 30 * time.Second
	defaultMaxRetries       = 3
	defaultOptimisticWindow = 60 * time.Second
	defaultListenAddr       = ":8090"

	// passwordEnvVar lets deployments keep the credential out of the
	// config file.
	passwordEnvVar = "SYRBRIDGE_PASSWORD"
)

// NATSConfig selects the JetStream target for telemetry events.
type NATSConfig struct {
	URL    string `json:"url"`
	Stream string `json:"stream"`
}

// Config holds the bridge service configuration.
type Config struct {
	Username         string          `json:"username"`
	Password         string          `json:"password,omitempty"`
	BaseURL          string          `json:"base_url,omitempty"`
	ListenAddr       string          `json:"listen_addr"`
	PollInterval     models.Duration `json:"poll_interval"`
	RequestTimeout   models.Duration `json:"request_timeout"`
	MaxRetries       int             `json:"max_retries"`
	OptimisticWindow models.Duration `json:"optimistic_window"`
	NATS             *NATSConfig     `json:"nats,omitempty"`
	Logging          *logger.Config  `json:"logging,omitempty"`
}

// Validate checks required fields and applies defaults. The password
// may come from the environment instead of the config file.
func (c *Config) Validate() error {
	if c.Username == "" {
		return errUsernameRequired
	}

	if c.Password == "" {
		c.Password = os.Getenv(passwordEnvVar)
	}

	if c.Password == "" {
		return errPasswordRequired
	}

	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}

	if c.PollInterval <= 0 {
		c.PollInterval = models.Duration(defaultPollInterval)
	}

	if c.RequestTimeout <= 0 {
		c.RequestTimeout = models.Duration(defaultRequestTimeout)
	}

	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}

	if c.OptimisticWindow <= 0 {
		c.OptimisticWindow = models.Duration(defaultOptimisticWindow)
	}

	if c.Logging == nil {
		c.Logging = logger.DefaultConfig()
	}

	return nil
}
