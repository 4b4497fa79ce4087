// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package common

const (
	PropUsername = "username"
	PropPassword = "password"
)

// Credentials identify the client to password based mechanisms.  A nil
// Password means it was never set; an empty non-nil Password is a valid
// (if unwise) secret.
type Credentials struct {
	Username string
	Password []byte
}

// Validate checks that the credentials can be used by a password based
// mechanism.
func (c Credentials) Validate() error {
	if c.Username == "" {
		return &ConfigError{Field: PropUsername, Reason: "must not be empty"}
	}
	if c.Password == nil {
		return &ConfigError{Field: PropPassword, Reason: "must be set"}
	}

	return nil
}

// Property looks up a credential by name.  ok is false when the property is
// unknown or has not been set, which is distinct from a set but empty value.
func (c Credentials) Property(name string) (value []byte, ok bool) {
	switch name {
	case PropUsername:
		if c.Username == "" {
			return nil, false
		}
		return []byte(c.Username), true
	case PropPassword:
		if c.Password == nil {
			return nil, false
		}
		return c.Password, true
	}

	return nil, false
}

// SetProperty sets a credential by name.  A nil value clears it.
func (c *Credentials) SetProperty(name string, value []byte) error {
	switch name {
	case PropUsername:
		c.Username = string(value)
	case PropPassword:
		if value == nil {
			c.Password = nil
		} else {
			c.Password = append(make([]byte, 0, len(value)), value...)
		}
	default:
		return &ConfigError{Field: name, Reason: "is not a known credential"}
	}

	return nil
}
