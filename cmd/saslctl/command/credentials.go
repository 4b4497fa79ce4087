// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package command

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sharp-xmpp/go-sasl/common"
	"github.com/sharp-xmpp/go-sasl/scram"
)

const defaultSaltLen = 16

func newCredentialsCommand(sc *saslctl) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Derive SCRAM-SHA-512 server credentials for a password",
		Args:  cobra.NoArgs,
		RunE:  sc.runCredentials,
	}

	fs := cmd.Flags()
	fs.String("salt", "", "base64 salt (random when empty)")
	fs.Int("iterations", 4096, "PBKDF2 iteration count")
	sc.bindFlags(fs)

	return cmd
}

func (sc *saslctl) runCredentials(cmd *cobra.Command, _ []string) error {
	password := sc.password()
	if password == nil {
		return &common.ConfigError{Field: common.PropPassword, Reason: "must be set"}
	}
	defer common.Wipe(password)

	var salt []byte
	if s := sc.v.GetString("salt"); s != "" {
		var err error
		if salt, err = base64.StdEncoding.DecodeString(s); err != nil {
			return fmt.Errorf("salt: %w", err)
		}
	} else {
		salt = make([]byte, defaultSaltLen)
		if _, err := rand.Read(salt); err != nil {
			return err
		}
	}
	if len(salt) == 0 {
		return errors.New("salt must not be empty")
	}

	creds, err := scram.DeriveStoredCredentials(password, salt, sc.v.GetInt("iterations"))
	if err != nil {
		return err
	}

	b64 := base64.StdEncoding.EncodeToString
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "salt=%s\niterations=%d\nstored-key=%s\nserver-key=%s\n",
		b64(creds.Salt), creds.Iterations, b64(creds.StoredKey), b64(creds.ServerKey))
	return err
}
