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

package models

import "time"

// CloudEvent represents a CloudEvents v1.0 compliant event.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

// SnapshotEventData is the payload of a polling cycle snapshot event.
type SnapshotEventData struct {
	CycleID      string    `json:"cycle_id"`
	TakenAt      time.Time `json:"taken_at"`
	ProjectCount int       `json:"project_count"`
	DeviceCount  int       `json:"device_count"`
	Devices      []Device  `json:"devices"`
}

// DeviceHealthEventData is the payload of a device availability
// transition event.
type DeviceHealthEventData struct {
	DeviceID      string    `json:"device_id"`
	ControlID     string    `json:"control_id"`
	Name          string    `json:"name"`
	Model         string    `json:"model,omitempty"`
	ProjectID     string    `json:"project_id"`
	PreviousState string    `json:"previous_state"`
	CurrentState  string    `json:"current_state"`
	Timestamp     time.Time `json:"timestamp"`
}
