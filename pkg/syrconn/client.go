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

// Package syrconn implements the SYR Connect vendor protocol: checksum
// signed XML requests, the AES encrypted login exchange, and the
// response shapes the service answers with.
package syrconn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/syrbridge/pkg/logger"
	"github.com/carverauto/syrbridge/pkg/models"
)

// Endpoints holds the absolute URLs of the service operations.
type Endpoints struct {
	Login        string
	DeviceList   string
	DeviceStatus string
	SetStatus    string
	Statistics   string
}

// DefaultEndpoints derives the operation URLs from a base URL. An empty
// base selects the production service.
func DefaultEndpoints(baseURL string) Endpoints {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return Endpoints{
		Login:        baseURL + loginPath,
		DeviceList:   baseURL + deviceListPath,
		DeviceStatus: baseURL + deviceStatusPath,
		SetStatus:    baseURL + setStatusPath,
		Statistics:   baseURL + statisticsPath,
	}
}

// ClientConfig configures a Client.
type ClientConfig struct {
	Username   string
	Password   string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// Client talks to the SYR Connect service. It is stateless with respect
// to sessions; callers pass the session ID obtained from a
// SessionManager into every operation.
type Client struct {
	config    ClientConfig
	endpoints Endpoints
	transport *Transport
	builder   *PayloadBuilder
	decryptor *Decryptor
	logger    logger.Logger
}

// NewClient builds a Client. A nil httpClient uses a default
// http.Client.
func NewClient(config ClientConfig, httpClient HTTPClient, log logger.Logger) (*Client, error) {
	decryptor, err := NewDecryptor(encryptionKeyHex, encryptionIVHex)
	if err != nil {
		return nil, err
	}

	return &Client{
		config:    config,
		endpoints: DefaultEndpoints(config.BaseURL),
		transport: NewTransport(httpClient, config.Timeout, config.MaxRetries, log),
		builder:   NewPayloadBuilder(),
		decryptor: decryptor,
		logger:    log,
	}, nil
}

// Login authenticates and returns the session ID and the account's
// projects. Malformed, undecryptable, or structurally wrong responses
// all mean the credentials were rejected, so they surface as ErrAuth.
// Transport failures stay ErrConnection.
func (c *Client) Login(ctx context.Context) (*LoginResult, error) {
	payload := c.builder.Login(c.config.Username, c.config.Password)

	response, err := c.transport.Post(ctx, c.endpoints.Login, contentTypeXML, payload)
	if err != nil {
		return nil, err
	}

	blob, err := ParseLogin(response)
	if err != nil {
		return nil, asAuthError(err)
	}

	decrypted, err := c.decryptor.Decrypt(blob)
	if err != nil {
		return nil, asAuthError(err)
	}

	sessionID, projects, err := ParseDecryptedLogin(decrypted)
	if err != nil {
		return nil, asAuthError(err)
	}

	c.logger.Info().
		Str("username", c.config.Username).
		Int("projects", len(projects)).
		Msg("Login succeeded")

	return &LoginResult{SessionID: sessionID, Projects: projects}, nil
}

// GetDevices lists the device collections of a project.
func (c *Client) GetDevices(ctx context.Context, sessionID, projectID string) ([]DeviceInfo, error) {
	payload := c.builder.DeviceList(sessionID, projectID)

	response, err := c.transport.PostForm(ctx, c.endpoints.DeviceList, payload)
	if err != nil {
		return nil, err
	}

	return ParseDeviceList(response)
}

// GetDeviceStatus polls the current values of one device collection.
func (c *Client) GetDeviceStatus(ctx context.Context, sessionID, controlID string) (*StatusResult, error) {
	payload := c.builder.DeviceStatus(sessionID, controlID)

	response, err := c.transport.PostForm(ctx, c.endpoints.DeviceStatus, payload)
	if err != nil {
		return nil, err
	}

	return ParseDeviceStatus(response)
}

// SetDeviceStatus writes a single command value to a device collection.
// The service acknowledges with the collection skeleton; any parseable
// answer counts as success.
func (c *Client) SetDeviceStatus(ctx context.Context, sessionID, controlID, command, value string) error {
	payload := c.builder.SetStatus(sessionID, controlID, command, value)

	response, err := c.transport.PostForm(ctx, c.endpoints.SetStatus, payload)
	if err != nil {
		return err
	}

	if _, err := ParseXML(response); err != nil {
		return fmt.Errorf("set %s on %s: %w", command, controlID, err)
	}

	c.logger.Debug().
		Str("control_id", controlID).
		Str("command", command).
		Str("value", value).
		Msg("Command accepted")

	return nil
}

// GetStatistics fetches the water or salt consumption history of a
// device collection.
func (c *Client) GetStatistics(ctx context.Context, sessionID, controlID string, kind StatisticKind) (*models.AttributeMap, error) {
	payload := c.builder.Statistics(sessionID, controlID, kind)

	response, err := c.transport.PostForm(ctx, c.endpoints.Statistics, payload)
	if err != nil {
		return nil, err
	}

	return ParseStatistics(response)
}

// asAuthError reclassifies response handling failures during login as
// authentication failures while leaving transport errors untouched.
func asAuthError(err error) error {
	if errors.Is(err, ErrConnection) {
		return err
	}

	if errors.Is(err, ErrParse) || errors.Is(err, ErrProtocol) || errors.Is(err, ErrDecrypt) {
		return fmt.Errorf("%w: %w", ErrAuth, err)
	}

	return err
}
