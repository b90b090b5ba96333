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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogin(t *testing.T) {
	blob, err := ParseLogin(`<sc><api version="1.0">ENCRYPTED-BLOB</api></sc>`)
	require.NoError(t, err)
	assert.Equal(t, "ENCRYPTED-BLOB", blob)
}

func TestParseLoginFailures(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{name: "missing api element", doc: `<sc><other/></sc>`, wantErr: ErrProtocol},
		{name: "wrong root", doc: `<html><api>x</api></html>`, wantErr: ErrProtocol},
		{name: "malformed document", doc: `<sc><api>`, wantErr: ErrParse},
		{name: "empty document", doc: ``, wantErr: ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLogin(tt.doc)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseDecryptedLoginSingleProject(t *testing.T) {
	session, projects, err := ParseDecryptedLogin(`<usr id="SESS-1"/><prs><pre id="P1" n="Home"/></prs>`)
	require.NoError(t, err)

	assert.Equal(t, "SESS-1", session)
	require.Len(t, projects, 1)
	assert.Equal(t, "P1", projects[0].ID)
	assert.Equal(t, "Home", projects[0].Name)
}

func TestParseDecryptedLoginMultipleProjects(t *testing.T) {
	session, projects, err := ParseDecryptedLogin(
		`<usr id="SESS-2"/><prs><pre id="P1" n="Home"/><pre id="P2" n="Office"/></prs>`)
	require.NoError(t, err)

	assert.Equal(t, "SESS-2", session)
	require.Len(t, projects, 2)
	assert.Equal(t, "P2", projects[1].ID)
	assert.Equal(t, "Office", projects[1].Name)
}

func TestParseDecryptedLoginFailures(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "no session", doc: `<prs><pre id="P1" n="Home"/></prs>`},
		{name: "session without id", doc: `<usr/><prs><pre id="P1" n="Home"/></prs>`},
		{name: "no projects element", doc: `<usr id="S"/>`},
		{name: "empty projects element", doc: `<usr id="S"/><prs></prs>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseDecryptedLogin(tt.doc)
			assert.ErrorIs(t, err, ErrProtocol)
		})
	}
}

func TestParseDeviceList(t *testing.T) {
	doc := `<sc>` +
		`<col><dcl dclg="D1" ali="Cellar"/><dcl dclg="D2"/></col>` +
		`<dvs><d dclg="D1" sn="SN100"/><d dclg="D2" sn="SN200"/><d sn="NOID"/></dvs>` +
		`</sc>`

	devices, err := ParseDeviceList(doc)
	require.NoError(t, err)
	require.Len(t, devices, 2)

	assert.Equal(t, DeviceInfo{SerialNumber: "SN100", ControlID: "D1", Name: "Cellar"}, devices[0])
	// No alias, so the serial doubles as the name.
	assert.Equal(t, DeviceInfo{SerialNumber: "SN200", ControlID: "D2", Name: "SN200"}, devices[1])
}

func TestParseDeviceListCollapsedContainer(t *testing.T) {
	// Single-device accounts sometimes answer with the device attributes
	// directly on the dvs element.
	devices, err := ParseDeviceList(`<sc><dvs dclg="D1" sn="SN1"/></sc>`)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "D1", devices[0].ControlID)
}

func TestParseDeviceListEmpty(t *testing.T) {
	devices, err := ParseDeviceList(`<sc><col/></sc>`)
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestParseDeviceListMissingSerial(t *testing.T) {
	devices, err := ParseDeviceList(`<sc><dvs><d dclg="D1"/></dvs></sc>`)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "Unknown", devices[0].SerialNumber)
	assert.Equal(t, "Unknown", devices[0].Name)
}

func TestParseDeviceStatus(t *testing.T) {
	doc := `<sc version="1.0">` +
		`<dvs><d dclg="D1" sn="SN1">` +
		`<c n="getAB" v="1"/>` +
		`<c n="getCEL" v="185" dt="2" m="1"/>` +
		`<c n="broken"/>` +
		`</d></dvs>` +
		`<cs v="1BA1"/>` +
		`</sc>`

	result, err := ParseDeviceStatus(doc)
	require.NoError(t, err)
	require.False(t, result.Incomplete)
	require.NotNil(t, result.Attributes)

	get := func(key string) string {
		v, _ := result.Attributes.Get(key)
		return v
	}

	assert.Equal(t, "1", get("getAB"))
	assert.Equal(t, "185", get("getCEL"))
	assert.Equal(t, "2", get("getCEL_dt"))
	assert.Equal(t, "1", get("getCEL_m"))
	assert.Equal(t, "SN1", get("sn"))
	assert.Equal(t, "D1", get("dclg"))
	assert.False(t, result.Attributes.Has("broken"))
	// The response checksum never reaches device state.
	assert.False(t, result.Attributes.Has("cs"))
}

func TestParseDeviceStatusIncomplete(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "wrong root", doc: `<html/>`},
		{name: "missing device container", doc: `<sc><col><dcl dclg="D1"/></col></sc>`},
		{name: "empty device container", doc: `<sc><dvs/></sc>`},
		{name: "entries without values", doc: `<sc><dvs><d dclg="D1" sn="SN1"/></dvs></sc>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseDeviceStatus(tt.doc)
			require.NoError(t, err)
			assert.True(t, result.Incomplete)
			assert.Nil(t, result.Attributes)
		})
	}
}

func TestParseDeviceStatusCollapsedContainer(t *testing.T) {
	result, err := ParseDeviceStatus(`<sc><dvs dclg="D1"><c n="getAB" v="0"/></dvs></sc>`)
	require.NoError(t, err)
	require.False(t, result.Incomplete)

	v, ok := result.Attributes.Get("getAB")
	require.True(t, ok)
	assert.Equal(t, "0", v)
}

func TestParseDeviceStatusMalformed(t *testing.T) {
	_, err := ParseDeviceStatus(`<sc><dvs>`)
	assert.ErrorIs(t, err, ErrParse)
}

func TestParseDeviceStatusLastWriteWins(t *testing.T) {
	doc := `<sc><dvs><d dclg="D1"><c n="getAB" v="1"/><c n="getAB" v="2"/></d></dvs></sc>`

	result, err := ParseDeviceStatus(doc)
	require.NoError(t, err)

	v, _ := result.Attributes.Get("getAB")
	assert.Equal(t, "2", v)
}

func TestParseStatistics(t *testing.T) {
	doc := `<sc><col><dcl dclg="D1">` +
		`<sh t="1"><sv d="2025-06-01" v="120"/></sh>` +
		`</dcl></col></sc>`

	attrs, err := ParseStatistics(doc)
	require.NoError(t, err)

	v, ok := attrs.Get("d")
	require.True(t, ok)
	assert.Equal(t, "2025-06-01", v)
}

func TestParseStatisticsMessage(t *testing.T) {
	attrs, err := ParseStatistics(`<sc><msg>no statistics available</msg></sc>`)
	require.NoError(t, err)
	assert.Equal(t, 0, attrs.Len())
}

func TestParseXMLText(t *testing.T) {
	root, err := ParseXML(`<sc><api version="1.0">  BLOB  </api></sc>`)
	require.NoError(t, err)

	api := root.Child("api")
	require.NotNil(t, api)
	assert.Equal(t, "BLOB", api.Text)
	assert.Equal(t, "1.0", api.Attr("version"))
}
