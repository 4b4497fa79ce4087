// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package command

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	sasl "github.com/sharp-xmpp/go-sasl"
	"github.com/sharp-xmpp/go-sasl/common"
	"github.com/sharp-xmpp/go-sasl/scram"
)

var errExchangeCut = errors.New("input ended before the exchange completed")

func newExchangeCommand(sc *saslctl) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Run a client exchange over stdin and stdout",
		Long: `exchange prints the base64 initial response (if the mechanism has one),
then reads one base64 server challenge per line from stdin and prints the
base64 response to each, until the mechanism completes.`,
		Args: cobra.NoArgs,
		RunE: sc.runExchange,
	}

	fs := cmd.Flags()
	fs.StringSlice("mech", []string{scram.MechName}, "mechanisms offered by the server, in order of preference")
	fs.String("service", "xmpp", "service name")
	fs.Int("max-iterations", scram.DefaultMaxIterations, "largest SCRAM iteration count accepted from the server")
	fs.String("nonce", "", "fixed client nonce, for reproducing an exchange")
	_ = fs.MarkHidden("nonce")
	sc.bindFlags(fs)

	return cmd
}

func (sc *saslctl) runExchange(cmd *cobra.Command, _ []string) error {
	v := sc.v

	cli, err := sasl.NewSaslClient(v.GetString("service"),
		sasl.WithMechList(v.GetStringSlice("mech")),
		sasl.WithCredentials(v.GetString("username"), sc.password()),
		sasl.WithNonce(v.GetString("nonce")),
		sasl.WithExtraProps(scram.MaxIterationsProp, strconv.Itoa(v.GetInt("max-iterations"))),
		sasl.WithLogger(sc.logger.Logger()),
	)
	if err != nil {
		return err
	}

	ir, err := cli.Start()
	if err != nil {
		return err
	}
	sc.logger.Infof("using mech %s", cli.Mech().Name())

	out := cmd.OutOrStdout()
	if ir != nil {
		fmt.Fprintln(out, common.EncodeResponse(ir))
	}

	cancel := common.EncodeResponse([]byte(common.CancelToken))
	in := bufio.NewScanner(cmd.InOrStdin())

	var last string
	for !cli.IsCompleted() {
		if !in.Scan() {
			if err := in.Err(); err != nil {
				return err
			}
			return errExchangeCut
		}

		last, err = cli.GetResponse(strings.TrimSpace(in.Text()))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, last)
	}

	if last == cancel {
		return common.WrapError(cli.Mech().Name(), common.ErrServerNotVerified)
	}

	sc.logger.Infof("exchange completed")
	return nil
}
