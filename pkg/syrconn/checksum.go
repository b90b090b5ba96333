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
	"strconv"
	"strings"
)

// Checksum computes the vendor's non-cryptographic request signature. The
// input is re-packed into 5-bit chunks; each chunk selects a character from
// the alphabet, offset by the rolling key, and the character codes are
// summed. A Checksum must be allocated per signing call and never shared
// between concurrent requests.
type Checksum struct {
	alphabet string
	key      string
	sum      uint64
}

// NewChecksum creates a checksum accumulator over the given secrets.
func NewChecksum(alphabet, key string) *Checksum {
	return &Checksum{alphabet: alphabet, key: key}
}

// ComputeChecksum returns the contribution of a single string under the
// given secrets, independent of any accumulator.
func ComputeChecksum(alphabet, key, value string) uint64 {
	return NewChecksum(alphabet, key).valueOf(value)
}

// valueOf computes the checksum contribution of one string. Leading and
// trailing whitespace is ignored; an empty string contributes zero.
func (c *Checksum) valueOf(value string) uint64 {
	normalized := strings.TrimSpace(value)
	if normalized == "" {
		return 0
	}

	buf := []byte(normalized)

	totalBits := len(buf) * 8
	numChunks := (totalBits + 4) / 5

	var contribution uint64

	bitOffset := 0
	byteIndex := 0

	for chunk := 0; chunk < numChunks; chunk++ {
		if bitOffset >= 8 {
			byteIndex++
			bitOffset %= 8
		}

		var current byte
		if byteIndex < len(buf) {
			current = buf[byteIndex]
		}

		shifted := current << bitOffset

		// A 5-bit window starting past bit 3 spans into the next byte.
		if bitOffset > 3 {
			var next byte
			if byteIndex+1 < len(buf) {
				next = buf[byteIndex+1]
			}

			shiftAmt := 8 - (bitOffset - 3)
			shifted |= (next >> shiftAmt) << 3
		}

		fiveBits := int(shifted >> 3)

		keyChar := c.key[chunk%len(c.key)]

		offset := strings.IndexByte(c.alphabet, keyChar)
		if offset < 0 {
			offset = 0 // key character outside the alphabet: safeguard, not an error
		}

		sum := fiveBits + offset
		if sum >= len(c.alphabet) {
			sum = sum - len(c.alphabet) + 1
		}

		contribution += uint64(c.alphabet[sum])

		bitOffset += 5
	}

	return contribution
}

// Add accumulates the contribution of one string.
func (c *Checksum) Add(value string) {
	c.sum += c.valueOf(value)
}

// AddXML parses an XML document and accumulates every attribute value except
// those of attributes named "n", in document order. A document that fails to
// parse contributes nothing; the error is swallowed because the server's own
// checksum validation was built against a client with this exact behavior.
func (c *Checksum) AddXML(document string) {
	dec := xml.NewDecoder(strings.NewReader(document))

	var values []string

	depth := 0
	sawRoot := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}

		if err != nil {
			return
		}

		switch t := tok.(type) {
		case xml.StartElement:
			// A second top-level element makes the document malformed,
			// same as any other parse failure.
			if depth == 0 && sawRoot {
				return
			}

			depth++
			sawRoot = true

			for _, attr := range t.Attr {
				if attr.Name.Local == "n" {
					continue
				}

				values = append(values, attr.Value)
			}
		case xml.EndElement:
			depth--
		}
	}

	for _, v := range values {
		c.Add(v)
	}
}

// Reset clears the accumulator.
func (c *Checksum) Reset() {
	c.sum = 0
}

// Digest renders the accumulator as uppercase hexadecimal with no fixed width.
func (c *Checksum) Digest() string {
	return fmt.Sprintf("%X", c.sum)
}

// SetDigest restores the accumulator from an uppercase hexadecimal digest.
func (c *Checksum) SetDigest(digest string) error {
	sum, err := strconv.ParseUint(digest, 16, 64)
	if err != nil {
		return fmt.Errorf("invalid checksum digest %q: %w", digest, err)
	}

	c.sum = sum

	return nil
}

// Sum exposes the raw accumulator, mainly for tests.
func (c *Checksum) Sum() uint64 {
	return c.sum
}
