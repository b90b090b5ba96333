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
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Decryptor decrypts the AES-256-CBC login payload. The vendor pads with
// trailing NUL bytes rather than PKCS#7, so padding is stripped manually.
// Only the decrypt direction exists in the protocol.
type Decryptor struct {
	key []byte
	iv  []byte
}

// NewDecryptor builds a Decryptor from hex-encoded key and IV.
func NewDecryptor(keyHex, ivHex string) (*Decryptor, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption iv: %w", err)
	}

	if len(key) != 32 || len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("invalid key/iv length: %d/%d", len(key), len(iv))
	}

	return &Decryptor{key: key, iv: iv}, nil
}

// Decrypt decodes a base64 payload, decrypts it, and strips the vendor's
// NUL padding plus trailing whitespace. All failures wrap ErrDecrypt.
func (d *Decryptor) Decrypt(encrypted string) (string, error) {
	if encrypted == "" {
		return "", fmt.Errorf("%w: %w", ErrDecrypt, errEmptyPayload)
	}

	data, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64: %w", ErrDecrypt, err)
	}

	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d is not a block multiple", ErrDecrypt, len(data))
	}

	block, err := aes.NewCipher(d.key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecrypt, err)
	}

	plaintext := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, d.iv).CryptBlocks(plaintext, data)

	if !utf8.Valid(plaintext) {
		return "", fmt.Errorf("%w: plaintext is not valid UTF-8", ErrDecrypt)
	}

	result := strings.TrimRight(string(plaintext), "\x00")
	result = strings.TrimRightFunc(result, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	return result, nil
}
