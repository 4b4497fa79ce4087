// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package gosasl exposes mechanisms as github.com/emersion/go-sasl clients,
// so that they can be handed to go-imap, go-smtp and friends.
package gosasl

import (
	"github.com/emersion/go-sasl"

	"github.com/sharp-xmpp/go-sasl/common"
	"github.com/sharp-xmpp/go-sasl/scram"
)

type client struct {
	mech common.Mech
}

// NewClient wraps m.  The returned client, like m, serves a single attempt.
func NewClient(m common.Mech) sasl.Client {
	return &client{mech: m}
}

// NewScramSHA512Client returns a SCRAM-SHA-512 client for username and
// password.
func NewScramSHA512Client(username, password string) (sasl.Client, error) {
	m, err := scram.NewMech(common.MechConfig{
		Credentials: common.Credentials{Username: username, Password: []byte(password)},
	})
	if err != nil {
		return nil, err
	}

	return NewClient(m), nil
}

func (c *client) Start() (mech string, ir []byte, err error) {
	mech = c.mech.Name()
	if !c.mech.HasInitialResponse() {
		return mech, nil, nil
	}

	ir, err = c.mech.Step(nil)
	if err != nil {
		return "", nil, common.WrapError(mech, err)
	}

	return mech, ir, nil
}

// Next steps the mechanism.  go-sasl clients abort by returning an error, so
// a final cancellation token is reported as ErrServerNotVerified instead of
// being sent as a response the server could accept.
func (c *client) Next(challenge []byte) ([]byte, error) {
	resp, err := c.mech.Step(challenge)
	if err != nil {
		return nil, common.WrapError(c.mech.Name(), err)
	}

	if c.mech.IsCompleted() && string(resp) == common.CancelToken {
		return nil, common.WrapError(c.mech.Name(), common.ErrServerNotVerified)
	}

	return resp, nil
}
