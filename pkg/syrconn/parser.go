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
	"io"
	"strings"

	"github.com/carverauto/syrbridge/pkg/models"
)

// Node is a parsed XML element. The vendor responses are small and
// attribute-heavy, so a lightweight tree beats struct unmarshalling here.
type Node struct {
	Name     string
	Attrs    []xml.Attr
	Children []*Node
	Text     string
}

// Attr returns the value of the named attribute, or "" when absent.
func (n *Node) Attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}

	return ""
}

// HasAttr reports whether the named attribute is present.
func (n *Node) HasAttr(name string) bool {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return true
		}
	}

	return false
}

// Child returns the first child element with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}

	return nil
}

// ChildList returns all child elements with the given name.
func (n *Node) ChildList(name string) []*Node {
	var out []*Node

	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}

	return out
}

// ParseXML parses a response document into a Node tree. Failures wrap
// ErrParse.
func ParseXML(doc string) (*Node, error) {
	dec := xml.NewDecoder(strings.NewReader(doc))

	var root *Node

	stack := make([]*Node, 0, 8)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &Node{Name: t.Name.Local, Attrs: append([]xml.Attr(nil), t.Attr...)}

			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root elements", ErrParse)
				}

				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}

			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				if text := strings.TrimSpace(string(t)); text != "" {
					stack[len(stack)-1].Text += text
				}
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: empty document", ErrParse)
	}

	return root, nil
}

// ParseLogin extracts the encrypted session blob from a login response.
// The blob is the text content of the sc>api element.
func ParseLogin(doc string) (string, error) {
	root, err := ParseXML(doc)
	if err != nil {
		return "", err
	}

	if root.Name != "sc" {
		return "", fmt.Errorf("%w: unexpected root element %q in login response", ErrProtocol, root.Name)
	}

	api := root.Child("api")
	if api == nil {
		return "", fmt.Errorf("%w: login response has no api element", ErrProtocol)
	}

	return api.Text, nil
}

// ParseDecryptedLogin parses the decrypted login fragment into the
// session ID and the account's projects. The fragment has no single
// root, so it is wrapped before parsing.
func ParseDecryptedLogin(decrypted string) (string, []models.Project, error) {
	root, err := ParseXML("<xml>" + decrypted + "</xml>")
	if err != nil {
		return "", nil, err
	}

	usr := root.Child("usr")
	if usr == nil || !usr.HasAttr("id") {
		return "", nil, fmt.Errorf("%w: decrypted login carries no session", ErrProtocol)
	}

	sessionID := usr.Attr("id")

	prs := root.Child("prs")
	if prs == nil {
		return "", nil, fmt.Errorf("%w: no projects in account", ErrProtocol)
	}

	entries := prs.ChildList("pre")
	if len(entries) == 0 {
		return "", nil, fmt.Errorf("%w: no projects in account", ErrProtocol)
	}

	projects := make([]models.Project, 0, len(entries))
	for _, pre := range entries {
		projects = append(projects, models.Project{
			ID:   pre.Attr("id"),
			Name: pre.Attr("n"),
		})
	}

	return sessionID, projects, nil
}

// DeviceInfo is one entry from a project's device collection listing.
type DeviceInfo struct {
	SerialNumber string
	ControlID    string
	Name         string
}

// ParseDeviceList extracts the devices of a project. Aliases from the
// col>dcl entries name devices where present; the serial number is the
// fallback name. Entries without a collection ID are skipped.
func ParseDeviceList(doc string) ([]DeviceInfo, error) {
	root, err := ParseXML(doc)
	if err != nil {
		return nil, err
	}

	if root.Name != "sc" {
		return nil, fmt.Errorf("%w: unexpected root element %q in device list", ErrProtocol, root.Name)
	}

	aliases := make(map[string]string)

	if col := root.Child("col"); col != nil {
		for _, dcl := range col.ChildList("dcl") {
			if dcl.HasAttr("dclg") && dcl.HasAttr("ali") {
				aliases[dcl.Attr("dclg")] = dcl.Attr("ali")
			}
		}
	}

	dvs := root.Child("dvs")
	if dvs == nil {
		return nil, nil
	}

	entries := dvs.ChildList("d")
	if len(entries) == 0 && dvs.HasAttr("dclg") {
		entries = []*Node{dvs}
	}

	var devices []DeviceInfo

	for _, d := range entries {
		if !d.HasAttr("dclg") {
			continue
		}

		controlID := d.Attr("dclg")

		serial := d.Attr("sn")
		if serial == "" {
			serial = "Unknown"
		}

		name := aliases[controlID]
		if name == "" {
			name = serial
		}

		devices = append(devices, DeviceInfo{
			SerialNumber: serial,
			ControlID:    controlID,
			Name:         name,
		})
	}

	return devices, nil
}

// StatusResult is the outcome of a device status poll. Incomplete marks
// responses that parsed but lack the detailed value elements; callers
// keep their previous state in that case.
type StatusResult struct {
	Attributes *models.AttributeMap
	Incomplete bool
}

// ParseDeviceStatus parses a status poll response. The service
// sometimes answers with only the collection skeleton and no value
// elements, which is reported as Incomplete rather than an error.
func ParseDeviceStatus(doc string) (*StatusResult, error) {
	root, err := ParseXML(doc)
	if err != nil {
		return nil, err
	}

	if root.Name != "sc" {
		return &StatusResult{Incomplete: true}, nil
	}

	dvs := root.Child("dvs")
	if dvs == nil {
		return &StatusResult{Incomplete: true}, nil
	}

	entries := dvs.ChildList("d")
	if len(entries) == 0 && dvs.HasAttr("dclg") {
		entries = []*Node{dvs}
	}

	if len(entries) == 0 {
		return &StatusResult{Incomplete: true}, nil
	}

	detailed := false

	for _, d := range entries {
		if d.Child("c") != nil {
			detailed = true
			break
		}
	}

	if !detailed {
		return &StatusResult{Incomplete: true}, nil
	}

	return &StatusResult{Attributes: flatten(root)}, nil
}

// ParseStatistics parses a consumption history response. A msg element
// signals the device has no such series; that yields an empty map.
func ParseStatistics(doc string) (*models.AttributeMap, error) {
	root, err := ParseXML(doc)
	if err != nil {
		return nil, err
	}

	attrs := models.NewAttributeMap()

	if root.Name != "sc" || root.Child("msg") != nil {
		return attrs, nil
	}

	flattenInto(root, attrs)

	return attrs, nil
}

// flatten collapses a response tree into a flat attribute map. Element
// attributes become keys, c elements contribute their n/v pairs plus a
// small set of metadata attributes, text lands under _text, and cs
// elements are dropped. Later occurrences overwrite earlier ones.
func flatten(root *Node) *models.AttributeMap {
	attrs := models.NewAttributeMap()
	flattenInto(root, attrs)

	return attrs
}

var valueMetaAttrs = []string{"dt", "m", "acd", "ih"}

func flattenInto(n *Node, out *models.AttributeMap) {
	for _, a := range n.Attrs {
		out.Set(a.Name.Local, a.Value)
	}

	if n.Text != "" {
		out.Set("_text", n.Text)
	}

	for _, c := range n.Children {
		switch c.Name {
		case "cs":
			// The response checksum is not device state.
		case "c":
			if !c.HasAttr("n") || !c.HasAttr("v") {
				continue
			}

			name := c.Attr("n")
			out.Set(name, c.Attr("v"))

			for _, meta := range valueMetaAttrs {
				if c.HasAttr(meta) {
					out.Set(name+"_"+meta, c.Attr(meta))
				}
			}
		default:
			flattenInto(c, out)
		}
	}
}
