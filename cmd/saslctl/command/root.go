// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package command

import (
	"fmt"
	"strings"

	"github.com/go-kit/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharp-xmpp/go-sasl/pkg/loggable"
)

const envPrefix = "SASLCTL"

type saslctl struct {
	v      *viper.Viper
	logger loggable.Loggable
}

// NewRootCommand returns the saslctl command tree.  Every flag can also be
// given as SASLCTL_<FLAG> in the environment or in the file named by --config.
func NewRootCommand() *cobra.Command {
	sc := &saslctl{v: viper.New()}

	root := &cobra.Command{
		Use:   "saslctl",
		Short: "Drive SASL client exchanges by hand",
		Long: `saslctl runs the client side of a SASL exchange over stdin and stdout,
lists the mechanisms it knows and derives SCRAM server credentials.

Configuration is read from flags, then SASLCTL_* environment variables,
then the file given with --config (yaml, json or toml).`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// flag errors have been reported by now; don't print usage for the rest
			cmd.SilenceUsage = true
			return sc.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file")
	pf.String("log-level", "warn", "log level: debug, info, warn, error or none")
	pf.String("username", "", "user name to authenticate as")
	pf.String("password", "", "password (prefer SASLCTL_PASSWORD)")
	sc.bindFlags(pf)

	sc.v.SetEnvPrefix(envPrefix)
	sc.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	sc.v.AutomaticEnv()

	root.AddCommand(
		newMechsCommand(sc),
		newExchangeCommand(sc),
		newCredentialsCommand(sc),
	)

	return root
}

func (sc *saslctl) bindFlags(fs *pflag.FlagSet) {
	// BindPFlags only fails on a nil flag set
	_ = sc.v.BindPFlags(fs)
}

func (sc *saslctl) load(cmd *cobra.Command) error {
	if file := sc.v.GetString("config"); file != "" {
		sc.v.SetConfigFile(file)
		if err := sc.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	logger, err := loggable.New(
		loggable.WithLogger(log.NewLogfmtLogger(log.NewSyncWriter(cmd.ErrOrStderr()))),
		loggable.WithLevelName(sc.v.GetString("log-level")),
	)
	if err != nil {
		return err
	}
	sc.logger = logger.With("ts", log.DefaultTimestampUTC)

	return nil
}

// password returns nil when no password was configured at all
func (sc *saslctl) password() []byte {
	if !sc.v.IsSet("password") {
		return nil
	}
	return []byte(sc.v.GetString("password"))
}
