// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package scram

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/base64"
	"hash"
	"strings"

	"github.com/pkg/errors"

	"github.com/sharp-xmpp/go-sasl/common"
)

const (
	clientKeyLiteral = "Client Key"
	serverKeyLiteral = "Server Key"

	// nonceLen is the length of a generated client nonce in characters
	nonceLen = 24
)

type hashFunc func() hash.Hash

func computeHMAC(h hashFunc, key, data []byte) []byte {
	mac := hmac.New(h, key)
	mac.Write(data)
	return mac.Sum(nil)
}

func computeHash(h hashFunc, data []byte) []byte {
	d := h()
	d.Write(data)
	return d.Sum(nil)
}

// xorBytes returns a XOR b
func xorBytes(a, b []byte) ([]byte, error) {
	if len(a) != len(b) {
		return nil, errors.Wrapf(common.ErrLengthMismatch, "xor of %d and %d bytes", len(a), len(b))
	}

	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out, nil
}

// generateNonce returns nonceLen characters of URL safe base64 drawn from
// crypto/rand.
func generateNonce() (string, error) {
	b := make([]byte, nonceLen*3/4)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "generating client nonce")
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

var saslNameEscaper = strings.NewReplacer("=", "=3D", ",", "=2C")

// saslPrep escapes a user name for the n= attribute.  Only '=' and ',' are
// rewritten; no Unicode normalization (RFC 4013) is applied.
func saslPrep(s string) string {
	return saslNameEscaper.Replace(s)
}
