// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package common

import (
	"github.com/sharp-xmpp/go-sasl/pkg/loggable"
)

type MechProps struct {
	MaxSSF             uint
	SecurityProperties SecurityFlag
	Features           Feature
}

type ContextParams struct {
	SSF                uint
	MaxPeerMessageSize uint32
}

// ChannelBinding carries the data of an outer channel (eg. TLS) that a
// mechanism may bind the exchange to.
type ChannelBinding struct {
	Critical bool
	Data     []byte
}

// MechConfig is handed to a mechanism factory.  It is validated by the
// factory, so a mechanism that was constructed successfully can run its
// exchange without further configuration checks.
type MechConfig struct {
	Logger         loggable.Loggable
	Service        string
	ServerFQDN     string
	MinSSF         uint
	MaxSSF         uint
	MaxBufSize     uint
	ExternalSSF    uint
	SecProps       SecurityFlag
	HTTPMode       bool
	ExtraProps     map[string]string
	ChannelBinding *ChannelBinding
	Credentials    Credentials

	// Nonce overrides the client nonce of mechanisms that use one.  Leave
	// empty outside of tests.
	Nonce string
}

// Mech is a client side SASL mechanism.  An instance serves exactly one
// authentication attempt and must not be shared between connections.
type Mech interface {
	// Name returns the IANA registered name of the mechanism
	Name() string
	MechProperties() MechProps

	// IsCompleted reports whether the final response has been produced
	IsCompleted() bool

	// HasInitialResponse reports whether the client sends the first message
	HasInitialResponse() bool

	ContextParams() ContextParams

	// Step turns a server challenge into the client response and advances
	// the exchange.  It is the only way the mechanism changes state.
	Step(challenge []byte) (response []byte, err error)

	Encode(input []byte) (outToken []byte, err error)
	Decode(inputToken []byte) (output []byte, err error)
}
