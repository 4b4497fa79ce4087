// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package registry

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/sharp-xmpp/go-sasl/common"
)

// See RFC 4422 § 3.1
var saslMechRegexp = regexp.MustCompile(`^[A-Z0-9-_]{1,20}$`)

// MechFactory builds a mechanism for one authentication attempt.  It
// validates cfg and returns an error rather than a half configured mech.
type MechFactory func(common.MechConfig) (common.Mech, error)

type mech struct {
	factory    MechFactory
	properties common.MechProps
}

var (
	mu    sync.RWMutex
	mechs = make(map[string]mech)
)

// Register should be called by Mech implementations to enable
// a mechanism to be used by clients
func Register(name string, f MechFactory, props common.MechProps) {
	if !saslMechRegexp.MatchString(name) {
		panic("Bad mech name: " + name)
	}

	mu.Lock()
	defer mu.Unlock()

	// can't register two mechs with the same name
	if _, ok := mechs[name]; ok {
		panic("Cannot have two mechs named " + name)
	}

	mechs[name] = mech{
		factory:    f,
		properties: props,
	}
}

// IsRegistered can be used to find out whether a named
// mechanism is registered or not
func IsRegistered(name string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := mechs[name]
	return ok
}

// NewMech returns a new mechanism instance by name
func NewMech(name string, cfg common.MechConfig) (common.Mech, error) {
	mu.RLock()
	m, ok := mechs[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s is not registered", common.ErrNoMech, name)
	}

	return m.factory(cfg)
}

func Properties(name string) common.MechProps {
	mu.RLock()
	defer mu.RUnlock()

	return mechs[name].properties
}

// Mechs returns the sorted list of registered mechanism names
func Mechs() (l []string) {
	mu.RLock()
	defer mu.RUnlock()

	l = make([]string, 0, len(mechs))
	for name := range mechs {
		l = append(l, name)
	}
	sort.Strings(l)

	return
}
