// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package common

import (
	"errors"
	"fmt"
)

var (
	ErrNoMech         = errors.New("no worthy mechs found")
	ErrNotStarted     = errors.New("must use Start() before Step()")
	ErrNotEstablished = errors.New("context is not established")

	// ErrInvalidState is returned when a mechanism is stepped after it
	// completed or failed, or out of its fixed step order.
	ErrInvalidState = errors.New("mechanism cannot accept another step")

	// ErrAlreadyCompleted is an ErrInvalidState raised by the client
	// before it reaches the mechanism.
	ErrAlreadyCompleted = fmt.Errorf("%w: exchange already completed", ErrInvalidState)

	ErrLengthMismatch = errors.New("operands differ in length")

	// ErrServerNotVerified is returned by transports that can only abort an
	// exchange with an error, in place of the cancellation token.
	ErrServerNotVerified = errors.New("server could not be authenticated")
)

// ConfigError reports missing or unusable mechanism configuration.  It is
// raised when the mechanism is constructed, before any message is computed.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("bad configuration: %s %s", e.Field, e.Reason)
}

// ProtocolError reports a malformed or hostile message from the server.
// The attempt is aborted and must not be retried with the same mechanism.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Reason, e.Err)
	}
	return "protocol error: " + e.Reason
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// SaslError is the single failure type handed to callers of a client or the
// base64 wrappers.  The original cause is available through errors.Unwrap,
// errors.Is and errors.As.
type SaslError struct {
	Mech string
	Err  error
}

func (e *SaslError) Error() string {
	if e.Mech == "" {
		return fmt.Sprintf("sasl: the challenge-response could not be computed: %v", e.Err)
	}
	return fmt.Sprintf("sasl: %s: the challenge-response could not be computed: %v", e.Mech, e.Err)
}

func (e *SaslError) Unwrap() error {
	return e.Err
}

// WrapError wraps err in a SaslError unless it already is one
func WrapError(mech string, err error) error {
	if err == nil {
		return nil
	}

	var se *SaslError
	if errors.As(err, &se) {
		return err
	}

	return &SaslError{Mech: mech, Err: err}
}
