// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package registry

import (
	"errors"
	"testing"

	"github.com/sharp-xmpp/go-sasl/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dummyMech struct {
	rand int
}

func (m dummyMech) Name() string {
	return "MOCK"
}
func (m dummyMech) MechProperties() common.MechProps {
	return common.MechProps{}
}
func (m dummyMech) IsCompleted() bool {
	return false
}
func (m dummyMech) HasInitialResponse() bool {
	return false
}
func (m dummyMech) Step(challenge []byte) (response []byte, err error) {
	return nil, nil
}
func (m dummyMech) ContextParams() common.ContextParams {
	return common.ContextParams{}
}
func (m dummyMech) Encode([]byte) ([]byte, error) {
	return nil, nil
}
func (m dummyMech) Decode([]byte) ([]byte, error) {
	return nil, nil
}

func factory(rand int) MechFactory {
	return func(common.MechConfig) (common.Mech, error) {
		return dummyMech{rand: rand}, nil
	}
}

func TestRegister(t *testing.T) {
	props := common.MechProps{}

	assert.NotPanics(t, func() { Register("TEST", factory(123), props) })

	// panics because its already registered
	assert.Panics(t, func() { Register("TEST", factory(123), props) })

	// panics because the mech name isn't valid (lower case not allowed)
	assert.Panics(t, func() { Register("bad-mech-name", factory(123), props) })

	// too long
	assert.Panics(t, func() { Register("ABCDEFGHIJKLMNOPQRSTU", factory(123), props) })
}

func TestIsRegistered(t *testing.T) {
	assert.NotPanics(t, func() { Register("TEST1", factory(456), common.MechProps{}) })
	assert.True(t, IsRegistered("TEST1"))
	assert.False(t, IsRegistered("NEVER_REGISTERED"))
}

func TestMechs(t *testing.T) {
	// start with empty mech list
	mu.Lock()
	mechs = make(map[string]mech)
	mu.Unlock()

	assert.NotPanics(t, func() { Register("TEST3", factory(789), common.MechProps{}) })
	assert.NotPanics(t, func() { Register("TEST2", factory(789), common.MechProps{}) })

	assert.Equal(t, []string{"TEST2", "TEST3"}, Mechs())
}

func TestProperties(t *testing.T) {
	props := common.MechProps{MaxSSF: 7, Features: common.FeatWantClientFirst}
	Register("TEST4", factory(1), props)

	assert.Equal(t, props, Properties("TEST4"))
	assert.Equal(t, common.MechProps{}, Properties("NO_SUCH_MECH"))
}

func TestNewMech(t *testing.T) {
	Register("TEST5", factory(98765), common.MechProps{})
	Register("TEST6", factory(54321), common.MechProps{})

	mech1, err := NewMech("TEST5", common.MechConfig{})
	require.NoError(t, err)
	mech2, err := NewMech("TEST6", common.MechConfig{})
	require.NoError(t, err)
	mech3, err := NewMech("no-such-mech", common.MechConfig{})
	assert.ErrorIs(t, err, common.ErrNoMech)
	assert.Nil(t, mech3)

	testMech1, ok1 := mech1.(dummyMech)
	testMech2, ok2 := mech2.(dummyMech)
	assert.True(t, ok1)
	assert.True(t, ok2)

	assert.Equal(t, 98765, testMech1.rand)
	assert.Equal(t, 54321, testMech2.rand)
}

func TestNewMechFactoryError(t *testing.T) {
	bad := errors.New("bad config")
	Register("TEST7", func(common.MechConfig) (common.Mech, error) { return nil, bad }, common.MechProps{})

	_, err := NewMech("TEST7", common.MechConfig{})
	assert.ErrorIs(t, err, bad)
}
