// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sharp-xmpp/go-sasl/common"
	"github.com/sharp-xmpp/go-sasl/registry"
)

func newMechsCommand(sc *saslctl) *cobra.Command {
	return &cobra.Command{
		Use:   "mechs",
		Short: "List the registered mechanisms and their properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printMechs(cmd.OutOrStdout())
		},
	}
}

func printMechs(w io.Writer) error {
	for _, name := range registry.Mechs() {
		props := registry.Properties(name)

		var sec, feat []string
		for _, f := range common.FlagList(props.SecurityProperties) {
			sec = append(sec, common.FlagName(f))
		}
		for _, f := range common.FeatureList(props.Features) {
			feat = append(feat, common.FeatureName(f))
		}

		if _, err := fmt.Fprintf(w, "%s\n  max SSF: %d\n  security: %s\n  features: %s\n",
			name, props.MaxSSF, strings.Join(sec, ", "), strings.Join(feat, ", ")); err != nil {
			return err
		}
	}

	return nil
}
