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
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

const xmlHeader = `<?xml version="1.0" encoding="utf-8"?>`

// PayloadBuilder assembles the request documents the vendor service
// expects. Every request except login carries a checksum element that
// signs the attribute values of the document.
type PayloadBuilder struct {
	appVersion string
	alphabet   string
	key        string
	now        func() time.Time
}

// NewPayloadBuilder returns a builder stamped with the emulated app version.
func NewPayloadBuilder() *PayloadBuilder {
	return &PayloadBuilder{
		appVersion: appVersion,
		alphabet:   checksumAlphabet,
		key:        checksumKey,
		now:        time.Now,
	}
}

// Login builds the credential document. It is sent as text/xml and is
// the only request that goes unsigned.
func (b *PayloadBuilder) Login(username, password string) string {
	ts := b.now().Format("2006-01-02 15:04:05")

	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<sc><api version="1.0">`)
	sb.WriteString(`<nfo v="SYR Connect" version="3.7.10" osv="15.8.3" os="iOS" dn="iPhone" ts="`)
	sb.WriteString(ts)
	sb.WriteString(`" tzo="01:00:00" lng="de" reg="DE" />`)
	sb.WriteString(`<usr n="`)
	sb.WriteString(escapeXML(username))
	sb.WriteString(`" v="`)
	sb.WriteString(escapeXML(password))
	sb.WriteString(`" /></api></sc>`)

	return sb.String()
}

// DeviceList builds the signed request for the device collections of a project.
func (b *PayloadBuilder) DeviceList(sessionID, projectID string) string {
	payload := fmt.Sprintf(`%s<sc><si v="%s"/><us ug="%s"/><prs><pr pg="%s"/></prs></sc>`,
		xmlHeader, escapeXML(b.appVersion), escapeXML(sessionID), escapeXML(projectID))

	return b.sign(payload)
}

// DeviceStatus builds the signed status poll for a single device collection.
func (b *PayloadBuilder) DeviceStatus(sessionID, controlID string) string {
	payload := fmt.Sprintf(`%s<sc><si v="%s"/><us ug="%s"/><col><dcl dclg="%s" fref="1"/></col></sc>`,
		xmlHeader, escapeXML(b.appVersion), escapeXML(sessionID), escapeXML(controlID))

	return b.sign(payload)
}

// SetStatus builds the signed command request writing a single value.
func (b *PayloadBuilder) SetStatus(sessionID, controlID, command, value string) string {
	payload := fmt.Sprintf(`%s<sc><si v="%s"/><us ug="%s"/><col><dcl dclg="%s" fref="1"><c n="%s" v="%s"/></dcl></col></sc>`,
		xmlHeader, escapeXML(b.appVersion), escapeXML(sessionID), escapeXML(controlID),
		escapeXML(command), escapeXML(value))

	return b.sign(payload)
}

// Statistics builds the signed consumption history request. The kind
// selects the water or salt series.
func (b *PayloadBuilder) Statistics(sessionID, controlID string, kind StatisticKind) string {
	series := `<sh t="1" rtyp="1" lg="de" rg="DE" unit="l"/>`
	if kind == StatisticSalt {
		series = `<sh t="2" rtyp="1" lg="de" rg="DE" unit="kg"/>`
	}

	payload := fmt.Sprintf(`%s<sc><si v="%s"/><us ug="%s"/><col><dcl dclg="%s">%s</dcl></col></sc>`,
		xmlHeader, escapeXML(b.appVersion), escapeXML(sessionID), escapeXML(controlID), series)

	return b.sign(payload)
}

// sign computes the document checksum and splices it in before the
// closing root tag.
func (b *PayloadBuilder) sign(payload string) string {
	cs := NewChecksum(b.alphabet, b.key)
	cs.AddXML(payload)

	return strings.Replace(payload, "</sc>", fmt.Sprintf(`<cs v="%s"/></sc>`, cs.Digest()), 1)
}

func escapeXML(s string) string {
	var sb strings.Builder
	if err := xml.EscapeText(&sb, []byte(s)); err != nil {
		return s
	}

	return sb.String()
}
