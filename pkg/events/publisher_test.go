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

package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/syrbridge/pkg/models"
)

func TestNewEvent(t *testing.T) {
	ts := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	event := newEvent(subjectSnapshot, typeSnapshot, ts, map[string]string{"k": "v"})

	assert.Equal(t, "1.0", event.SpecVersion)
	assert.Equal(t, eventSource, event.Source)
	assert.Equal(t, subjectSnapshot, event.Subject)
	assert.Equal(t, typeSnapshot, event.Type)
	assert.Equal(t, "application/json", event.DataContentType)
	require.NotNil(t, event.Time)
	assert.Equal(t, ts, *event.Time)

	_, err := uuid.Parse(event.ID)
	assert.NoError(t, err)
}

func TestNewEventUniqueIDs(t *testing.T) {
	ts := time.Now()
	first := newEvent(subjectDeviceOffline, typeDeviceOffline, ts, nil)
	second := newEvent(subjectDeviceOffline, typeDeviceOffline, ts, nil)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestSnapshotData(t *testing.T) {
	status := models.NewAttributeMap()
	status.Set("getCEL", "185")

	snapshot := &models.Snapshot{
		CycleID: "cycle-1",
		TakenAt: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
		Projects: []models.Project{
			{ID: "P1", Name: "Home"},
		},
		Devices: []models.Device{
			{ID: "SN1", ControlID: "D1", Name: "Cellar", Status: status, Available: true},
		},
	}

	data := snapshotData(snapshot)

	assert.Equal(t, "cycle-1", data.CycleID)
	assert.Equal(t, 1, data.ProjectCount)
	assert.Equal(t, 1, data.DeviceCount)
	require.Len(t, data.Devices, 1)
	assert.Equal(t, "SN1", data.Devices[0].ID)
}

func TestEventMarshalsAsCloudEvent(t *testing.T) {
	ts := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	event := newEvent(subjectDeviceRecovered, typeDeviceRecovered, ts, models.DeviceHealthEventData{
		DeviceID:      "SN1",
		PreviousState: "offline",
		CurrentState:  "online",
		Timestamp:     ts,
	})

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "1.0", decoded["specversion"])
	assert.Equal(t, typeDeviceRecovered, decoded["type"])

	data, ok := decoded["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "online", data["current_state"])
}
