// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package common

// Secret owns a buffer of key material and zeroes it on Wipe.  The zero
// value and a nil *Secret are empty secrets.
type Secret struct {
	b []byte
}

// NewSecret takes ownership of b.  Callers that need to keep b must pass a
// copy.
func NewSecret(b []byte) *Secret {
	return &Secret{b: b}
}

// CopySecret returns a Secret holding a private copy of b.  A nil b gives a
// secret whose Bytes are empty but non-nil.
func CopySecret(b []byte) *Secret {
	return &Secret{b: append(make([]byte, 0, len(b)), b...)}
}

// Bytes returns the underlying buffer, which is only valid until Wipe.
func (s *Secret) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.b
}

func (s *Secret) Len() int {
	if s == nil {
		return 0
	}
	return len(s.b)
}

// Wipe zeroes the secret and releases it.  It is safe to call more than once.
func (s *Secret) Wipe() {
	if s == nil {
		return
	}
	Wipe(s.b)
	s.b = nil
}

// Wipe zeroes b in place
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
