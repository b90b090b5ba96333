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

// Package models defines the data structures shared across syrbridge.
package models

import "time"

// Project is a vendor-side grouping of devices. The collection is replaced
// wholesale on each login.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Device is one water-treatment unit. ID is the user-facing serial number;
// ControlID is the vendor's internal collection identifier ("dclg") required
// for all status and control requests.
type Device struct {
	ID        string        `json:"id"`
	ControlID string        `json:"control_id"`
	Name      string        `json:"name"`
	ProjectID string        `json:"project_id"`
	Model     string        `json:"model,omitempty"`
	Status    *AttributeMap `json:"status"`
	Available bool          `json:"available"`
}

// Clone returns a deep copy of the device.
func (d Device) Clone() Device {
	clone := d
	clone.Status = d.Status.Clone()

	return clone
}

// Snapshot is the orchestrator's externally visible result, replaced
// atomically at the end of each polling cycle. Consumers must treat a
// Snapshot as read-only; the orchestrator clones before mutating.
type Snapshot struct {
	Devices  []Device  `json:"devices"`
	Projects []Project `json:"projects"`
	TakenAt  time.Time `json:"taken_at"`
	CycleID  string    `json:"cycle_id"`
}

// Device returns the device with the given serial number, if present.
func (s *Snapshot) Device(id string) (Device, bool) {
	if s == nil {
		return Device{}, false
	}

	for _, d := range s.Devices {
		if d.ID == id {
			return d, true
		}
	}

	return Device{}, false
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}

	clone := &Snapshot{
		Devices:  make([]Device, len(s.Devices)),
		Projects: make([]Project, len(s.Projects)),
		TakenAt:  s.TakenAt,
		CycleID:  s.CycleID,
	}

	for i, d := range s.Devices {
		clone.Devices[i] = d.Clone()
	}

	copy(clone.Projects, s.Projects)

	return clone
}
