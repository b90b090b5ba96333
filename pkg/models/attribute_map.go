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

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AttributeMap is an ordered string-to-string map of vendor telemetry
// attributes (e.g. "getPRS" -> "39"). Besides the raw vendor keys it holds
// synthetic sibling keys produced during response flattening: "_text" for
// element text content and "<key>_dt", "<key>_m", "<key>_acd", "<key>_ih"
// for the metadata suffixes of a leaf element. Key insertion order is
// preserved; overwriting a key keeps its original position.
type AttributeMap struct {
	keys   []string
	values map[string]string
}

// NewAttributeMap returns an empty attribute map.
func NewAttributeMap() *AttributeMap {
	return &AttributeMap{values: make(map[string]string)}
}

// Set stores value under key, appending the key on first insertion.
func (m *AttributeMap) Set(key, value string) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}

	m.values[key] = value
}

// Get returns the value for key and whether it is present.
func (m *AttributeMap) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}

	v, ok := m.values[key]

	return v, ok
}

// Has reports whether key is present.
func (m *AttributeMap) Has(key string) bool {
	if m == nil {
		return false
	}

	_, ok := m.values[key]

	return ok
}

// Delete removes key if present.
func (m *AttributeMap) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}

	delete(m.values, key)

	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of keys.
func (m *AttributeMap) Len() int {
	if m == nil {
		return 0
	}

	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *AttributeMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)

	return out
}

// Clone returns a deep copy.
func (m *AttributeMap) Clone() *AttributeMap {
	if m == nil {
		return nil
	}

	clone := &AttributeMap{
		keys:   make([]string, len(m.keys)),
		values: make(map[string]string, len(m.values)),
	}

	copy(clone.keys, m.keys)

	for k, v := range m.values {
		clone.values[k] = v
	}

	return clone
}

// MarshalJSON renders the map as a JSON object in insertion order.
func (m *AttributeMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}

		value, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON parses a JSON object, preserving its key order.
func (m *AttributeMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("attribute map: expected JSON object, got %v", tok)
	}

	m.keys = nil
	m.values = make(map[string]string)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}

		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("attribute map: unexpected key token %v", keyTok)
		}

		var value string
		if err := dec.Decode(&value); err != nil {
			return err
		}

		m.Set(key, value)
	}

	_, err = dec.Token() // closing brace
	return err
}
