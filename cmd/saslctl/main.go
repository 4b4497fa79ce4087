// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// saslctl runs client side SASL exchanges by hand and derives the server
// side credentials for SCRAM.
package main

import (
	"fmt"
	"os"

	"github.com/sharp-xmpp/go-sasl/cmd/saslctl/command"
)

func main() {
	if err := command.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "saslctl:", err)
		os.Exit(1)
	}
}
