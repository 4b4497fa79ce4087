// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package scram

import (
	"crypto/sha512"

	"github.com/pkg/errors"

	"github.com/sharp-xmpp/go-sasl/common"
	"github.com/sharp-xmpp/go-sasl/pkg/pbkdf2"
)

// StoredCredentials is what a SCRAM-SHA-512 server keeps for a user in place
// of the password.
type StoredCredentials struct {
	Salt       []byte
	Iterations int
	StoredKey  []byte
	ServerKey  []byte
}

// DeriveStoredCredentials computes the server side verifier for password
func DeriveStoredCredentials(password, salt []byte, iterations int) (StoredCredentials, error) {
	salted, err := pbkdf2.Key(sha512.Size, password, salt, iterations, sha512.New)
	if err != nil {
		return StoredCredentials{}, errors.Wrap(err, "deriving salted password")
	}
	defer common.Wipe(salted)

	clientKey := computeHMAC(sha512.New, salted, []byte(clientKeyLiteral))
	defer common.Wipe(clientKey)

	return StoredCredentials{
		Salt:       append([]byte(nil), salt...),
		Iterations: iterations,
		StoredKey:  computeHash(sha512.New, clientKey),
		ServerKey:  computeHMAC(sha512.New, salted, []byte(serverKeyLiteral)),
	}, nil
}
