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

// Package events publishes bridge telemetry as CloudEvents on NATS
// JetStream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/syrbridge/pkg/logger"
	"github.com/carverauto/syrbridge/pkg/models"
)

const (
	eventSource = "syrbridge/bridge"

	subjectSnapshot        = "events.syr.snapshot"
	subjectDeviceOffline   = "events.syr.device.offline"
	subjectDeviceRecovered = "events.syr.device.recovered"

	typeSnapshot        = "com.carverauto.syrbridge.snapshot"
	typeDeviceOffline   = "com.carverauto.syrbridge.device.offline"
	typeDeviceRecovered = "com.carverauto.syrbridge.device.recovered"
)

// Publisher publishes CloudEvents to a JetStream stream.
type Publisher struct {
	js     jetstream.JetStream
	stream string
	logger logger.Logger
}

// NewPublisher creates a Publisher on an existing JetStream context.
func NewPublisher(js jetstream.JetStream, stream string, log logger.Logger) *Publisher {
	return &Publisher{js: js, stream: stream, logger: log}
}

// Connect dials NATS, ensures the stream exists, and returns a
// Publisher bound to it.
func Connect(ctx context.Context, url, stream string, log logger.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("syrbridge"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     stream,
		Subjects: []string{"events.syr.>"},
		Storage:  jetstream.FileStorage,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", stream, err)
	}

	log.Info().Str("stream", stream).Str("url", url).Msg("Connected to NATS")

	return NewPublisher(js, stream, log), nil
}

// PublishSnapshot publishes the result of a completed polling cycle.
func (p *Publisher) PublishSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	data := snapshotData(snapshot)

	return p.publish(ctx, subjectSnapshot, typeSnapshot, data.TakenAt, data)
}

func snapshotData(snapshot *models.Snapshot) models.SnapshotEventData {
	return models.SnapshotEventData{
		CycleID:      snapshot.CycleID,
		TakenAt:      snapshot.TakenAt,
		ProjectCount: len(snapshot.Projects),
		DeviceCount:  len(snapshot.Devices),
		Devices:      snapshot.Devices,
	}
}

// PublishDeviceOffline publishes a device availability loss.
func (p *Publisher) PublishDeviceOffline(ctx context.Context, device models.Device) error {
	return p.publishHealth(ctx, subjectDeviceOffline, typeDeviceOffline, device, "online", "offline")
}

// PublishDeviceRecovered publishes a device availability recovery.
func (p *Publisher) PublishDeviceRecovered(ctx context.Context, device models.Device) error {
	return p.publishHealth(ctx, subjectDeviceRecovered, typeDeviceRecovered, device, "offline", "online")
}

func (p *Publisher) publishHealth(ctx context.Context, subject, eventType string, device models.Device, prev, curr string) error {
	data := models.DeviceHealthEventData{
		DeviceID:      device.ID,
		ControlID:     device.ControlID,
		Name:          device.Name,
		Model:         device.Model,
		ProjectID:     device.ProjectID,
		PreviousState: prev,
		CurrentState:  curr,
		Timestamp:     time.Now(),
	}

	return p.publish(ctx, subject, eventType, data.Timestamp, data)
}

func newEvent(subject, eventType string, ts time.Time, data interface{}) models.CloudEvent {
	return models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          eventSource,
		Type:            eventType,
		DataContentType: "application/json",
		Subject:         subject,
		Time:            &ts,
		Data:            data,
	}
}

func (p *Publisher) publish(ctx context.Context, subject, eventType string, ts time.Time, data interface{}) error {
	event := newEvent(subject, eventType, ts, data)

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := p.js.Publish(ctx, event.Subject, eventBytes)
	if err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", event.Subject, err)
	}

	p.logger.Debug().
		Str("event_id", event.ID).
		Str("subject", event.Subject).
		Uint64("seq", ack.Sequence).
		Msg("Published event")

	return nil
}
