// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package scram implements the client side of the SCRAM-SHA-512 SASL
// mechanism (RFC 5802, RFC 7677 family).  Channel binding is not offered.
package scram

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sharp-xmpp/go-sasl/common"
	"github.com/sharp-xmpp/go-sasl/pkg/loggable"
	"github.com/sharp-xmpp/go-sasl/pkg/pbkdf2"
	"github.com/sharp-xmpp/go-sasl/registry"
)

const MechName = "SCRAM-SHA-512"

const (
	// DefaultMaxIterations bounds the PBKDF2 work a server can ask for
	DefaultMaxIterations = 1000000

	// MaxIterationsProp names the MechConfig.ExtraProps entry that
	// overrides DefaultMaxIterations
	MaxIterationsProp = "scram_max_iterations"
)

func init() {
	// see: https://www.iana.org/assignments/sasl-mechanisms/sasl-mechanisms.xhtml
	registry.Register(MechName, NewMech, common.MechProps{
		MaxSSF:             0,
		SecurityProperties: common.SecNoPlainText | common.SecNoActive | common.SecNoAnonymous | common.SecMutualAuth,
		Features:           common.FeatWantClientFirst,
	})
}

type state uint8

const (
	stateClientFirst state = iota // nothing sent yet
	stateServerFirst              // awaiting server-first-message
	stateServerFinal              // awaiting server-final-message
	stateDone
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateClientFirst:
		return "client-first"
	case stateServerFirst:
		return "server-first"
	case stateServerFinal:
		return "server-final"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	}

	return "unknown(" + strconv.Itoa(int(s)) + ")"
}

// ScramMech is one SCRAM authentication attempt.  It is not safe for
// concurrent use and cannot be restarted.
type ScramMech struct {
	loggable.Loggable

	name          string
	hash          hashFunc
	keyLen        int
	maxIterations int

	username    string
	clientNonce string
	password    *common.Secret

	state          state
	verified       bool
	saltedPassword *common.Secret
	authMessage    []byte
}

// NewMech returns a SCRAM-SHA-512 mechanism for the credentials in cfg
func NewMech(cfg common.MechConfig) (common.Mech, error) {
	return newMech(MechName, sha512.New, cfg)
}

func newMech(name string, h hashFunc, cfg common.MechConfig) (*ScramMech, error) {
	if err := cfg.Credentials.Validate(); err != nil {
		return nil, err
	}

	if cfg.ChannelBinding != nil && cfg.ChannelBinding.Critical {
		return nil, &common.ConfigError{Field: "channel binding", Reason: "is not supported by " + name}
	}

	maxIter := DefaultMaxIterations
	if v, ok := cfg.ExtraProps[MaxIterationsProp]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, &common.ConfigError{Field: MaxIterationsProp, Reason: "must be a positive integer"}
		}
		maxIter = n
	}

	nonce := cfg.Nonce
	if nonce == "" {
		var err error
		if nonce, err = generateNonce(); err != nil {
			return nil, err
		}
	} else if !validNonce(nonce) {
		return nil, &common.ConfigError{Field: "nonce", Reason: "must be printable ASCII without ','"}
	}

	m := &ScramMech{
		Loggable:      cfg.Logger.With("mech", name),
		name:          name,
		hash:          h,
		keyLen:        h().Size(),
		maxIterations: maxIter,
		username:      cfg.Credentials.Username,
		clientNonce:   nonce,
		password:      common.CopySecret(cfg.Credentials.Password),
		state:         stateClientFirst,
	}
	m.Debugf("new %s mech for user %q, client nonce %s", name, cfg.Credentials.Username, nonce)

	return m, nil
}

// validNonce reports whether s only holds printable ASCII other than ','
func validNonce(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x21 || s[i] > 0x7e || s[i] == ',' {
			return false
		}
	}
	return true
}

func (m *ScramMech) Name() string {
	return m.name
}

func (m *ScramMech) MechProperties() common.MechProps {
	return registry.Properties(m.name)
}

func (m *ScramMech) IsCompleted() bool {
	return m.state == stateDone
}

// Verified reports whether the server proved knowledge of the password.
// A completed exchange that is not verified has been cancelled with '*'.
func (m *ScramMech) Verified() bool {
	return m.state == stateDone && m.verified
}

func (m *ScramMech) HasInitialResponse() bool {
	return true
}

// Step produces the client-first-message, then the client-final-message,
// then the answer to the server signature: an empty response when the
// signature checks out and the cancellation token "*" otherwise.
func (m *ScramMech) Step(challenge []byte) ([]byte, error) {
	if m.state == stateDone || m.state == stateFailed {
		return nil, errors.Wrapf(common.ErrInvalidState, "%s: step in state %s", m.name, m.state)
	}

	next, response, err := m.transition(challenge)
	if err != nil {
		m.Debugf("step in state %s failed: %v", m.state, err)
		m.state = stateFailed
		m.wipe()
		return nil, err
	}

	m.Debugf("step %s -> %s", m.state, next)
	m.state = next
	if next == stateDone {
		m.wipe()
	}

	return response, nil
}

func (m *ScramMech) transition(challenge []byte) (state, []byte, error) {
	switch m.state {
	case stateClientFirst:
		return stateServerFirst, m.clientFirst(), nil
	case stateServerFirst:
		response, err := m.clientFinal(challenge)
		return stateServerFinal, response, err
	case stateServerFinal:
		return stateDone, m.verifyServerFinal(challenge), nil
	}

	return stateFailed, nil, errors.Wrapf(common.ErrInvalidState, "%s: bad state (%d)", m.name, m.state)
}

func (m *ScramMech) clientFirst() []byte {
	return []byte(gs2Header + clientFirstMessageBare(m.username, m.clientNonce))
}

func (m *ScramMech) clientFinal(serverFirst []byte) ([]byte, error) {
	sf, err := parseServerFirst(serverFirst, m.maxIterations)
	if err != nil {
		return nil, err
	}

	if !strings.HasPrefix(sf.nonce, m.clientNonce) {
		return nil, protocolError("server nonce does not start with the client nonce", errors.Errorf("r=%s", sf.nonce))
	}

	withoutProof := clientFinalMessageWithoutProof(sf.nonce)
	m.authMessage = buildAuthMessage(clientFirstMessageBare(m.username, m.clientNonce), serverFirst, withoutProof)

	salted, err := pbkdf2.Key(m.keyLen, m.password.Bytes(), sf.salt, sf.iterations, m.hash)
	if err != nil {
		return nil, errors.Wrap(err, "deriving salted password")
	}
	m.saltedPassword = common.NewSecret(salted)

	// the password is not needed once the salted password exists
	m.password.Wipe()

	proof, err := clientProof(m.hash, m.saltedPassword.Bytes(), m.authMessage)
	if err != nil {
		return nil, err
	}
	m.Debugf("computed client proof (%d iterations)", sf.iterations)

	return []byte(withoutProof + ",p=" + base64.StdEncoding.EncodeToString(proof)), nil
}

func (m *ScramMech) verifyServerFinal(serverFinal []byte) []byte {
	msg := string(serverFinal)

	if !strings.HasPrefix(msg, "v=") {
		if reason, ok := strings.CutPrefix(msg, "e="); ok {
			m.Warnf("server rejected authentication: %s", reason)
		} else {
			m.Warnf("malformed server-final-message")
		}
		return []byte(common.CancelToken)
	}

	sigB64, _, _ := strings.Cut(msg[2:], ",")
	signature, err := base64.StdEncoding.DecodeString(sigB64)
	// An undecodable signature is treated like a mismatch and cancelled with
	// '*', not raised as a protocol error: the server still learns the
	// exchange was aborted and the caller sees a completed, unverified mech.
	if err != nil {
		m.Warnf("server signature is not valid base64: %v", err)
		return []byte(common.CancelToken)
	}

	serverKey := computeHMAC(m.hash, m.saltedPassword.Bytes(), []byte(serverKeyLiteral))
	defer common.Wipe(serverKey)
	expected := computeHMAC(m.hash, serverKey, m.authMessage)

	if !hmac.Equal(signature, expected) {
		m.Warnf("server signature does not match")
		return []byte(common.CancelToken)
	}

	m.verified = true
	m.Debugf("server signature verified")
	return []byte{}
}

func (m *ScramMech) wipe() {
	m.password.Wipe()
	m.saltedPassword.Wipe()
}

func (m *ScramMech) ContextParams() common.ContextParams {
	return common.ContextParams{}
}

func (m *ScramMech) Encode(input []byte) ([]byte, error) {
	return nil, errors.New("can't encode data: no security layer negotiated")
}

func (m *ScramMech) Decode(inputToken []byte) ([]byte, error) {
	return nil, errors.New("can't decode data: no security layer negotiated")
}

// clientProof computes ClientKey XOR HMAC(H(ClientKey), AuthMessage)
func clientProof(h hashFunc, saltedPassword, authMessage []byte) ([]byte, error) {
	clientKey := computeHMAC(h, saltedPassword, []byte(clientKeyLiteral))
	defer common.Wipe(clientKey)

	storedKey := computeHash(h, clientKey)
	defer common.Wipe(storedKey)

	signature := computeHMAC(h, storedKey, authMessage)
	defer common.Wipe(signature)

	return xorBytes(clientKey, signature)
}
