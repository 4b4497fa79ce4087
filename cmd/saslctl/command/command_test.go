// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package command

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharp-xmpp/go-sasl/common"
	"github.com/sharp-xmpp/go-sasl/scram"
)

// a complete SHA-512 exchange for user/pencil with a fixed client nonce
const (
	testNonce       = "rOprNGfwEbeRWgbNEkqO"
	testClientFirst = "n,,n=user,r=" + testNonce
	testServerFirst = "r=rOprNGfwEbeRWgbNEkqO%hvYDpWUa2RaTCAfuxFIlj)hNlF$k0,s=W22ZaJ0SNY7soEsUEjb6gQ==,i=4096"
	testClientFinal = "c=biws,r=rOprNGfwEbeRWgbNEkqO%hvYDpWUa2RaTCAfuxFIlj)hNlF$k0," +
		"p=gMGXRcevScNtxZ6/8lQYpGtnsNAc3mGcmNomv+xnoOMw+3R2xNJdMNnzMlTN8PPC6wdp6dybEmDYXYTxwnYPJQ=="
	testServerFinal = "v=ZQnYEgWQMFmmsM8aQMF0nDDCy/AgCzkwk8CmMZYcMg0vSVlKDanekLtifDSeVGT4+5ZxXnJq199RVG2rR7N7Zw=="
)

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestMechs(t *testing.T) {
	out, _, err := run(t, "", "mechs")
	require.NoError(t, err)

	assert.Contains(t, out, scram.MechName+"\n")
	assert.Contains(t, out, "max SSF: 0")
	assert.Contains(t, out, common.FlagName(common.SecMutualAuth))
	assert.Contains(t, out, common.FeatureName(common.FeatWantClientFirst))
}

func TestExchange(t *testing.T) {
	stdin := b64(testServerFirst) + "\n" + b64(testServerFinal) + "\n"

	out, _, err := run(t, stdin, "exchange",
		"--username", "user", "--password", "pencil", "--nonce", testNonce)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, b64(testClientFirst), lines[0])
	assert.Equal(t, b64(testClientFinal), lines[1])
	assert.Equal(t, "", lines[2], "verified server answered with an empty response")
	assert.Equal(t, "", lines[3])
}

func TestExchangeBadServerSignature(t *testing.T) {
	forged := "v=" + base64.StdEncoding.EncodeToString(make([]byte, 64))
	stdin := b64(testServerFirst) + "\n" + b64(forged) + "\n"

	out, _, err := run(t, stdin, "exchange",
		"--username", "user", "--password", "pencil", "--nonce", testNonce)
	assert.ErrorIs(t, err, common.ErrServerNotVerified)
	assert.True(t, strings.HasSuffix(out, b64(common.CancelToken)+"\n"))
}

func TestExchangeServerError(t *testing.T) {
	stdin := b64(testServerFirst) + "\n" + b64("e=invalid-proof") + "\n"

	_, stderr, err := run(t, stdin, "exchange",
		"--username", "user", "--password", "pencil", "--nonce", testNonce)
	assert.ErrorIs(t, err, common.ErrServerNotVerified)
	assert.Contains(t, stderr, "invalid-proof")
}

func TestExchangeInputEnds(t *testing.T) {
	_, _, err := run(t, b64(testServerFirst)+"\n", "exchange",
		"--username", "user", "--password", "pencil", "--nonce", testNonce)
	assert.ErrorIs(t, err, errExchangeCut)
}

func TestExchangeIterationCap(t *testing.T) {
	_, _, err := run(t, b64(testServerFirst)+"\n", "exchange",
		"--username", "user", "--password", "pencil", "--nonce", testNonce,
		"--max-iterations", "1000")

	var pe *common.ProtocolError
	assert.ErrorAs(t, err, &pe)
}

func TestExchangeNeedsPassword(t *testing.T) {
	_, _, err := run(t, "", "exchange", "--username", "user")

	var ce *common.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, common.PropPassword, ce.Field)
}

func TestExchangeFromConfigFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "saslctl.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("username: user\npassword: pencil\n"), 0o600))

	stdin := b64(testServerFirst) + "\n" + b64(testServerFinal) + "\n"
	out, _, err := run(t, stdin, "exchange", "--config", cfg, "--nonce", testNonce)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, b64(testClientFirst)+"\n"))
}

func TestCredentials(t *testing.T) {
	salt := []byte("0123456789abcdef")
	out, _, err := run(t, "", "credentials",
		"--password", "pencil",
		"--salt", base64.StdEncoding.EncodeToString(salt),
		"--iterations", "4096")
	require.NoError(t, err)

	want, err := scram.DeriveStoredCredentials([]byte("pencil"), salt, 4096)
	require.NoError(t, err)

	enc := base64.StdEncoding.EncodeToString
	assert.Equal(t,
		"salt="+enc(salt)+"\niterations=4096\nstored-key="+enc(want.StoredKey)+"\nserver-key="+enc(want.ServerKey)+"\n",
		out)
}

func TestCredentialsRandomSalt(t *testing.T) {
	out, _, err := run(t, "", "credentials", "--password", "pencil", "--iterations", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "iterations=1\n")
	assert.Regexp(t, `^salt=[A-Za-z0-9+/]{22}==\n`, out)
}

func TestCredentialsErrors(t *testing.T) {
	_, _, err := run(t, "", "credentials")
	assert.Error(t, err, "password required")

	_, _, err = run(t, "", "credentials", "--password", "x", "--salt", "not base64!")
	assert.Error(t, err)

	_, _, err = run(t, "", "credentials", "--password", "x", "--iterations", "0")
	assert.Error(t, err)
}

func TestBadLogLevel(t *testing.T) {
	_, _, err := run(t, "", "mechs", "--log-level", "loud")
	assert.Error(t, err)
}
