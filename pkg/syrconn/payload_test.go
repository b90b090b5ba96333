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

package syrconn

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedTimeBuilder() *PayloadBuilder {
	b := NewPayloadBuilder()
	b.now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 30, 45, 0, time.UTC)
	}

	return b
}

func TestPayloadLogin(t *testing.T) {
	b := fixedTimeBuilder()
	payload := b.Login("user@example.com", "secret")

	assert.Contains(t, payload, `<usr n="user@example.com" v="secret" />`)
	assert.Contains(t, payload, `ts="2025-06-15 12:30:45"`)
	assert.True(t, strings.HasPrefix(payload, xmlHeader))
	// Login carries no checksum element.
	assert.NotContains(t, payload, "<cs ")
}

func TestPayloadLoginEscapesCredentials(t *testing.T) {
	b := fixedTimeBuilder()
	payload := b.Login(`a<b&"c`, "p'w")

	assert.Contains(t, payload, "a&lt;b&amp;&#34;c")
	assert.NotContains(t, payload, `a<b`)
}

func TestPayloadDeviceList(t *testing.T) {
	b := fixedTimeBuilder()
	payload := b.DeviceList("S1", "P1")

	assert.Contains(t, payload, `<us ug="S1"/>`)
	assert.Contains(t, payload, `<prs><pr pg="P1"/></prs>`)
	assert.Contains(t, payload, `<cs v="1B13"/></sc>`)
}

func TestPayloadDeviceStatus(t *testing.T) {
	b := fixedTimeBuilder()
	payload := b.DeviceStatus("S1", "D1")

	assert.Contains(t, payload, `<col><dcl dclg="D1" fref="1"/></col>`)
	assert.Contains(t, payload, `<cs v="1BA1"/></sc>`)
	assert.True(t, strings.HasSuffix(payload, "</sc>"))
}

func TestPayloadSetStatus(t *testing.T) {
	b := fixedTimeBuilder()
	payload := b.SetStatus("S1", "D1", "setAB", "1")

	assert.Contains(t, payload, `<dcl dclg="D1" fref="1"><c n="setAB" v="1"/></dcl>`)
	assert.Contains(t, payload, `<cs v="1C1D"/></sc>`)
}

func TestPayloadStatistics(t *testing.T) {
	b := fixedTimeBuilder()

	water := b.Statistics("S1", "D1", StatisticWater)
	assert.Contains(t, water, `<sh t="1" rtyp="1" lg="de" rg="DE" unit="l"/>`)
	assert.Contains(t, water, `<cs v="`)

	salt := b.Statistics("S1", "D1", StatisticSalt)
	assert.Contains(t, salt, `<sh t="2" rtyp="1" lg="de" rg="DE" unit="kg"/>`)
}

func TestPayloadChecksumIgnoresCommandName(t *testing.T) {
	b := fixedTimeBuilder()

	first := b.SetStatus("S1", "D1", "setAB", "1")
	second := b.SetStatus("S1", "D1", "setPRF", "1")

	digest := func(payload string) string {
		start := strings.Index(payload, `<cs v="`)
		require.GreaterOrEqual(t, start, 0)
		rest := payload[start+len(`<cs v="`):]

		return rest[:strings.Index(rest, `"`)]
	}

	assert.Equal(t, digest(first), digest(second))
}

func TestPayloadStatusRoundTrip(t *testing.T) {
	b := fixedTimeBuilder()
	payload := b.DeviceStatus("S1", "D1")

	root, err := ParseXML(payload)
	require.NoError(t, err)
	require.Equal(t, "sc", root.Name)

	us := root.Child("us")
	require.NotNil(t, us)
	assert.Equal(t, "S1", us.Attr("ug"))

	col := root.Child("col")
	require.NotNil(t, col)
	dcl := col.Child("dcl")
	require.NotNil(t, dcl)
	assert.Equal(t, "D1", dcl.Attr("dclg"))
}
