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

import "strings"

// modelSignature identifies a device model from its flattened status
// attributes. Matching order: exact getCNA value, then fingerprint keys
// combined with version constraints, then version constraints alone.
type modelSignature struct {
	displayName  string
	cnaEquals    string
	verPrefix    string
	verContains  string
	fingerprint  []string
	minFingerHit int
}

// Signatures are derived from captured device fixtures. NeoSoft 5000 must be
// tested before NeoSoft 2500: both report an NSS version prefix and the 2500
// fingerprint is a subset of the 5000 one.
var modelSignatures = []modelSignature{
	{displayName: "LEX Plus 10 Connect", cnaEquals: "LEXplus10"},
	{displayName: "LEX Plus 10 S Connect", cnaEquals: "LEXplus10S"},
	{displayName: "LEX Plus 10 SL Connect", cnaEquals: "LEXplus10SL"},
	{displayName: "NeoSoft 5000 Connect", verPrefix: "NSS", fingerprint: []string{"getRE1", "getRE2"}, minFingerHit: 2},
	{displayName: "NeoSoft 2500 Connect", verPrefix: "NSS", fingerprint: []string{"getRE1"}, minFingerHit: 1},
	{displayName: "Trio DFR/LS Connect", verPrefix: "syr001", fingerprint: []string{"getAFW", "getVER2"}, minFingerHit: 2},
	{displayName: "Safe-Tech+ Connect", verPrefix: "Safe-Tech"},
	{displayName: "Safe-T+ Connect", verContains: "Safe-T"},
}

// DetectModel returns a display name for the device model carried in the
// flattened status attributes, or an empty string when no signature matches.
func DetectModel(status *AttributeMap) string {
	if status == nil {
		return ""
	}

	cna, _ := status.Get("getCNA")
	ver, _ := status.Get("getVER")

	for _, sig := range modelSignatures {
		if sig.cnaEquals != "" {
			if cna == sig.cnaEquals {
				return sig.displayName
			}

			continue
		}

		if len(sig.fingerprint) > 0 {
			hits := 0

			for _, key := range sig.fingerprint {
				if status.Has(key) {
					hits++
				}
			}

			if hits < sig.minFingerHit {
				continue
			}
		}

		if sig.verPrefix != "" && !strings.HasPrefix(ver, sig.verPrefix) {
			continue
		}

		if sig.verContains != "" && !strings.Contains(ver, sig.verContains) {
			continue
		}

		if sig.verPrefix != "" || sig.verContains != "" {
			return sig.displayName
		}
	}

	return ""
}
