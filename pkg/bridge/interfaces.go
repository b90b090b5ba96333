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
	"context"
	"time"

	"github.com/carverauto/syrbridge/pkg/models"
	"github.com/carverauto/syrbridge/pkg/syrconn"
)

// Clock abstracts time-related operations.
type Clock interface {
	Now() time.Time
	Ticker(d time.Duration) Ticker
}

// Ticker abstracts the ticker behavior.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

// VendorClient is the slice of the protocol client the orchestrator uses.
type VendorClient interface {
	GetDevices(ctx context.Context, sessionID, projectID string) ([]syrconn.DeviceInfo, error)
	GetDeviceStatus(ctx context.Context, sessionID, controlID string) (*syrconn.StatusResult, error)
	SetDeviceStatus(ctx context.Context, sessionID, controlID, command, value string) error
	GetStatistics(ctx context.Context, sessionID, controlID string, kind syrconn.StatisticKind) (*models.AttributeMap, error)
}

// SessionProvider supplies a live vendor session.
type SessionProvider interface {
	EnsureValid(ctx context.Context) (string, []models.Project, error)
	Invalidate()
}

// EventSink receives telemetry produced by the polling cycles.
type EventSink interface {
	PublishSnapshot(ctx context.Context, snapshot *models.Snapshot) error
	PublishDeviceOffline(ctx context.Context, device models.Device) error
	PublishDeviceRecovered(ctx context.Context, device models.Device) error
}

// NopEventSink discards all events. Used when no NATS stream is configured.
type NopEventSink struct{}

func (NopEventSink) PublishSnapshot(context.Context, *models.Snapshot) error     { return nil }
func (NopEventSink) PublishDeviceOffline(context.Context, models.Device) error   { return nil }
func (NopEventSink) PublishDeviceRecovered(context.Context, models.Device) error { return nil }
