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

// Package bridge polls the vendor service on an interval and maintains
// an atomically swapped snapshot of all devices, republishing the
// results as events.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/carverauto/syrbridge/pkg/logger"
	"github.com/carverauto/syrbridge/pkg/models"
	"github.com/carverauto/syrbridge/pkg/syrconn"
)

type ignoreKey struct {
	deviceID string
	key      string
}

// Service is the polling orchestrator.
type Service struct {
	config  *Config
	client  VendorClient
	session SessionProvider
	events  EventSink
	clock   Clock
	logger  logger.Logger
	metrics *Metrics

	// cycleMu serializes polling cycles; the ticker loop and the
	// refresh after a command write may overlap.
	cycleMu sync.Mutex

	mu       sync.RWMutex
	snapshot *models.Snapshot
	offline  map[string]bool
	ignore   map[ignoreKey]time.Time

	started   bool
	done      chan struct{}
	closeOnce sync.Once
	ticker    Ticker
	wg        sync.WaitGroup
}

// New builds the orchestrator. A nil sink drops events, a nil clock
// uses real time, and nil metrics register on a private registry.
func New(config *Config, client VendorClient, session SessionProvider, sink EventSink, metrics *Metrics, clock Clock, log logger.Logger) *Service {
	if sink == nil {
		sink = NopEventSink{}
	}

	if clock == nil {
		clock = realClock{}
	}

	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}

	return &Service{
		config:  config,
		client:  client,
		session: session,
		events:  sink,
		clock:   clock,
		logger:  log,
		metrics: metrics,
		offline: make(map[string]bool),
		ignore:  make(map[ignoreKey]time.Time),
		done:    make(chan struct{}),
	}
}

// Start launches the polling loop. The first cycle runs immediately;
// its failure is logged, not fatal, so a vendor outage at boot does not
// kill the service.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errServiceAlreadyStarted
	}

	s.started = true
	s.mu.Unlock()

	interval := time.Duration(s.config.PollInterval)
	s.ticker = s.clock.Ticker(interval)

	s.logger.Info().Dur("interval", interval).Msg("Starting polling loop")

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer s.ticker.Stop()

		if err := s.RunCycle(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Initial polling cycle failed")
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-s.ticker.Chan():
				if err := s.RunCycle(ctx); err != nil {
					s.logger.Error().Err(err).Msg("Polling cycle failed")
				}
			}
		}
	}()

	return nil
}

// Stop halts the polling loop and waits for in-flight work, bounded by
// the context.
func (s *Service) Stop(ctx context.Context) error {
	s.closeOnce.Do(func() {
		close(s.done)
	})

	waited := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(waited)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-waited:
		return nil
	}
}

// GetSnapshot returns the latest snapshot, or nil before the first
// successful cycle. Callers must treat it as read-only.
func (s *Service) GetSnapshot() *models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot
}

// RunCycle performs one full poll: resolve the session, list devices
// per project, poll each device's status, merge with the previous
// snapshot, swap, and publish. Per-device failures degrade that device
// only; a session failure fails the cycle.
func (s *Service) RunCycle(ctx context.Context) error {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	start := s.clock.Now()

	sessionID, projects, err := s.session.EnsureValid(ctx)
	if err != nil {
		s.metrics.CycleFailures.Inc()
		return fmt.Errorf("polling cycle: %w", err)
	}

	prev := s.GetSnapshot()

	listings := s.listDevices(ctx, sessionID, projects, prev)
	statuses := s.pollStatuses(ctx, sessionID, listings)

	// A cancelled cycle is discarded wholesale: its poll results are
	// teardown noise, not device state, and must never reach the
	// published snapshot or the offline bookkeeping.
	if err := ctx.Err(); err != nil {
		s.metrics.CycleFailures.Inc()
		return fmt.Errorf("polling cycle: %w", err)
	}

	snapshot := s.mergeCycle(ctx, projects, listings, statuses, prev)

	s.mu.Lock()
	s.snapshot = snapshot
	s.pruneIgnoreLocked()
	s.pruneOfflineLocked(snapshot)
	s.mu.Unlock()

	available := 0

	for _, d := range snapshot.Devices {
		if d.Available {
			available++
		}
	}

	s.metrics.Devices.Set(float64(len(snapshot.Devices)))
	s.metrics.DevicesAvailable.Set(float64(available))
	s.metrics.CyclesTotal.Inc()
	s.metrics.CycleDuration.Observe(s.clock.Now().Sub(start).Seconds())

	if ctx.Err() == nil {
		if err := s.events.PublishSnapshot(ctx, snapshot); err != nil {
			s.metrics.EventPublishErrors.Inc()
			s.logger.Error().Err(err).Msg("Failed to publish snapshot")
		}
	}

	s.logger.Info().
		Str("cycle_id", snapshot.CycleID).
		Int("devices", len(snapshot.Devices)).
		Int("available", available).
		Msg("Polling cycle complete")

	return nil
}

type deviceListing struct {
	projectID string
	info      syrconn.DeviceInfo
}

// listDevices fans out the per-project device listings. A failed
// listing falls back to the identities known from the previous
// snapshot so one project outage does not drop its devices.
func (s *Service) listDevices(ctx context.Context, sessionID string, projects []models.Project, prev *models.Snapshot) []deviceListing {
	type projectResult struct {
		projectID string
		devices   []syrconn.DeviceInfo
		err       error
	}

	results := make(chan projectResult, len(projects))

	var wg sync.WaitGroup

	for _, p := range projects {
		wg.Add(1)

		go func(projectID string) {
			defer wg.Done()

			devices, err := s.client.GetDevices(ctx, sessionID, projectID)
			results <- projectResult{projectID: projectID, devices: devices, err: err}
		}(p.ID)
	}

	wg.Wait()
	close(results)

	byProject := make(map[string][]syrconn.DeviceInfo, len(projects))

	for r := range results {
		if r.err != nil {
			s.logger.Error().Err(r.err).Str("project_id", r.projectID).Msg("Device listing failed")

			if errors.Is(r.err, syrconn.ErrAuth) {
				s.session.Invalidate()
			}

			byProject[r.projectID] = previousListing(prev, r.projectID)

			continue
		}

		byProject[r.projectID] = r.devices
	}

	var listings []deviceListing

	seen := make(map[string]bool)

	for _, p := range projects {
		for _, info := range byProject[p.ID] {
			if seen[info.SerialNumber] {
				continue
			}

			seen[info.SerialNumber] = true

			listings = append(listings, deviceListing{projectID: p.ID, info: info})
		}
	}

	return listings
}

func previousListing(prev *models.Snapshot, projectID string) []syrconn.DeviceInfo {
	if prev == nil {
		return nil
	}

	var infos []syrconn.DeviceInfo

	for _, d := range prev.Devices {
		if d.ProjectID == projectID {
			infos = append(infos, syrconn.DeviceInfo{
				SerialNumber: d.ID,
				ControlID:    d.ControlID,
				Name:         d.Name,
			})
		}
	}

	return infos
}

type statusOutcome struct {
	result *syrconn.StatusResult
	err    error
}

// pollStatuses fans out the per-device status polls.
func (s *Service) pollStatuses(ctx context.Context, sessionID string, listings []deviceListing) map[string]statusOutcome {
	type deviceResult struct {
		serial  string
		outcome statusOutcome
	}

	results := make(chan deviceResult, len(listings))

	var wg sync.WaitGroup

	for _, l := range listings {
		wg.Add(1)

		go func(serial, controlID string) {
			defer wg.Done()

			result, err := s.client.GetDeviceStatus(ctx, sessionID, controlID)
			results <- deviceResult{serial: serial, outcome: statusOutcome{result: result, err: err}}
		}(l.info.SerialNumber, l.info.ControlID)
	}

	wg.Wait()
	close(results)

	outcomes := make(map[string]statusOutcome, len(listings))

	for r := range results {
		outcomes[r.serial] = r.outcome
	}

	return outcomes
}

// mergeCycle folds the poll outcomes into a fresh snapshot. Fresh
// status replaces the previous one, incomplete replies carry the
// previous values forward, and errors mark the device unavailable with
// empty status. Availability transitions emit events.
func (s *Service) mergeCycle(ctx context.Context, projects []models.Project, listings []deviceListing, outcomes map[string]statusOutcome, prev *models.Snapshot) *models.Snapshot {
	snapshot := &models.Snapshot{
		Projects: projects,
		TakenAt:  s.clock.Now(),
		CycleID:  uuid.New().String(),
	}

	for _, l := range listings {
		serial := l.info.SerialNumber
		prevDev, hadPrev := prev.Device(serial)

		device := models.Device{
			ID:        serial,
			ControlID: l.info.ControlID,
			Name:      l.info.Name,
			ProjectID: l.projectID,
		}

		outcome := outcomes[serial]

		switch {
		case outcome.err != nil:
			s.metrics.StatusFailures.Inc()
			s.logger.Error().Err(outcome.err).Str("device_id", serial).Msg("Status poll failed")

			if errors.Is(outcome.err, syrconn.ErrAuth) {
				s.session.Invalidate()
			}

			device.Status = models.NewAttributeMap()
			device.Available = false

			if hadPrev {
				device.Model = prevDev.Model
			}
		case outcome.result == nil || outcome.result.Incomplete:
			s.metrics.IncompleteReplies.Inc()
			s.logger.Debug().Str("device_id", serial).Msg("Incomplete status reply, keeping previous values")

			device.Available = true

			if hadPrev {
				device.Status = prevDev.Status.Clone()
				device.Model = prevDev.Model
			} else {
				device.Status = models.NewAttributeMap()
			}
		default:
			device.Status = outcome.result.Attributes
			device.Available = true

			s.applyIgnoreWindows(serial, device.Status, prevDev, hadPrev)

			device.Model = models.DetectModel(device.Status)
			if device.Model == "" && hadPrev {
				device.Model = prevDev.Model
			}
		}

		s.recordAvailability(ctx, device)

		snapshot.Devices = append(snapshot.Devices, device)
	}

	return snapshot
}

// applyIgnoreWindows keeps optimistically written values in place until
// their window expires, so a stale poll racing a command does not flap
// the value back.
func (s *Service) applyIgnoreWindows(serial string, status *models.AttributeMap, prevDev models.Device, hadPrev bool) {
	if !hadPrev {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock.Now()

	for key, expiry := range s.ignore {
		if key.deviceID != serial || !now.Before(expiry) {
			continue
		}

		if val, ok := prevDev.Status.Get(key.key); ok {
			status.Set(key.key, val)
		}
	}
}

// recordAvailability tracks offline transitions and publishes the
// corresponding events. Nothing is published on a cancelled context.
func (s *Service) recordAvailability(ctx context.Context, device models.Device) {
	s.mu.Lock()
	wasOffline := s.offline[device.ID]

	var publish func(context.Context, models.Device) error

	switch {
	case !device.Available && !wasOffline:
		s.offline[device.ID] = true
		publish = s.events.PublishDeviceOffline
	case device.Available && wasOffline:
		delete(s.offline, device.ID)
		publish = s.events.PublishDeviceRecovered
	}
	s.mu.Unlock()

	if publish == nil || ctx.Err() != nil {
		return
	}

	if err := publish(ctx, device); err != nil {
		s.metrics.EventPublishErrors.Inc()
		s.logger.Error().Err(err).Str("device_id", device.ID).Msg("Failed to publish availability event")
	}
}

// pruneOfflineLocked drops offline markers for devices absent from the
// new snapshot, so a serial that disappears and reappears later does
// not inherit stale offline state.
func (s *Service) pruneOfflineLocked(snapshot *models.Snapshot) {
	listed := make(map[string]bool, len(snapshot.Devices))

	for _, d := range snapshot.Devices {
		listed[d.ID] = true
	}

	for id := range s.offline {
		if !listed[id] {
			delete(s.offline, id)
		}
	}
}

func (s *Service) pruneIgnoreLocked() {
	now := s.clock.Now()

	for key, expiry := range s.ignore {
		if !now.Before(expiry) {
			delete(s.ignore, key)
		}
	}
}

// SetValue writes a command value to a device. The snapshot is updated
// optimistically with the corresponding read key, protected against
// stale polls for the optimistic window, and a background cycle
// refreshes the real state.
func (s *Service) SetValue(ctx context.Context, deviceID, command, value string) error {
	if !strings.HasPrefix(command, "set") || len(command) <= len("set") {
		return fmt.Errorf("%w: %q", ErrInvalidCommand, command)
	}

	device, ok := s.GetSnapshot().Device(deviceID)
	if !ok {
		return fmt.Errorf("%w: %s", syrconn.ErrNotFound, deviceID)
	}

	sessionID, _, err := s.session.EnsureValid(ctx)
	if err != nil {
		return err
	}

	s.metrics.CommandsTotal.Inc()

	if err := s.client.SetDeviceStatus(ctx, sessionID, device.ControlID, command, value); err != nil {
		s.metrics.CommandFailures.Inc()

		if errors.Is(err, syrconn.ErrAuth) {
			s.session.Invalidate()
		}

		return err
	}

	readKey := "get" + command[len("set"):]

	s.mu.Lock()

	if s.snapshot != nil {
		clone := s.snapshot.Clone()

		for i := range clone.Devices {
			if clone.Devices[i].ID != deviceID {
				continue
			}

			if clone.Devices[i].Status == nil {
				clone.Devices[i].Status = models.NewAttributeMap()
			}

			clone.Devices[i].Status.Set(readKey, value)
		}

		s.snapshot = clone
	}

	s.ignore[ignoreKey{deviceID: deviceID, key: readKey}] = s.clock.Now().Add(time.Duration(s.config.OptimisticWindow))
	s.mu.Unlock()

	s.logger.Info().
		Str("device_id", deviceID).
		Str("command", command).
		Str("value", value).
		Msg("Command written")

	// Refresh the real state without tying the cycle to the request's
	// lifetime.
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		if err := s.RunCycle(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error().Err(err).Msg("Post-command refresh failed")
		}
	}()

	return nil
}

// Statistics fetches the consumption history of a device.
func (s *Service) Statistics(ctx context.Context, deviceID string, kind syrconn.StatisticKind) (*models.AttributeMap, error) {
	device, ok := s.GetSnapshot().Device(deviceID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", syrconn.ErrNotFound, deviceID)
	}

	sessionID, _, err := s.session.EnsureValid(ctx)
	if err != nil {
		return nil, err
	}

	return s.client.GetStatistics(ctx, sessionID, device.ControlID, kind)
}
