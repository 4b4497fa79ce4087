// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package pbkdf2 implements the PBKDF2 key derivation function of RFC 8018
// with HMAC as the pseudorandom function.  Scratch buffers holding key
// material are zeroed before Key returns.
package pbkdf2

import (
	"crypto/hmac"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
)

var (
	ErrKeyLength  = errors.New("pbkdf2: derived key length out of range")
	ErrIterations = errors.New("pbkdf2: iteration count must be at least 1")
)

const maxBlocks = 1<<32 - 1

// Key derives a dkLen byte key from secret and salt using iter rounds of
// HMAC built on h and keyed by secret.
func Key(dkLen int, secret, salt []byte, iter int, h func() hash.Hash) ([]byte, error) {
	prf := hmac.New(h, secret)
	hLen := prf.Size()

	if dkLen < 0 || uint64(dkLen) > maxBlocks*uint64(hLen) {
		return nil, fmt.Errorf("%w: %d", ErrKeyLength, dkLen)
	}
	if iter < 1 {
		return nil, fmt.Errorf("%w: %d", ErrIterations, iter)
	}

	numBlocks := (dkLen + hLen - 1) / hLen

	block := make([]byte, len(salt)+4)
	copy(block, salt)
	u := make([]byte, 0, hLen)
	t := make([]byte, hLen)

	defer func() {
		wipe(block)
		wipe(u[:cap(u)])
		wipe(t)
	}()

	out := make([]byte, dkLen)
	for i := 1; i <= numBlocks; i++ {
		binary.BigEndian.PutUint32(block[len(salt):], uint32(i))

		prf.Reset()
		prf.Write(block)
		u = prf.Sum(u[:0])
		copy(t, u)

		for n := 2; n <= iter; n++ {
			prf.Reset()
			prf.Write(u)
			u = prf.Sum(u[:0])
			for x := range t {
				t[x] ^= u[x]
			}
		}

		// the last block is truncated to fit
		copy(out[(i-1)*hLen:], t)
	}

	return out, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
