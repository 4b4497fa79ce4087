// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package scram

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sharp-xmpp/go-sasl/common"
)

// gs2Header announces no channel binding and no authorization identity
const gs2Header = "n,,"

var channelBindingAttr = base64.StdEncoding.EncodeToString([]byte(gs2Header))

type serverFirstMessage struct {
	nonce      string
	salt       []byte
	iterations int
}

func protocolError(reason string, err error) error {
	return &common.ProtocolError{Reason: reason, Err: err}
}

// parseServerFirst parses "r=<nonce>,s=<salt>,i=<count>[,ext]".  Attributes
// without a '=' and unknown attributes are ignored.
func parseServerFirst(msg []byte, maxIterations int) (serverFirstMessage, error) {
	var (
		sf                  serverFirstMessage
		salt, iter          string
		haveR, haveS, haveI bool
	)

	for _, attr := range strings.Split(string(msg), ",") {
		key, value, found := strings.Cut(attr, "=")
		if !found {
			continue
		}

		switch key {
		case "m":
			return sf, protocolError("server requires an unsupported mandatory extension", nil)
		case "r":
			if haveR {
				return sf, protocolError("duplicate nonce attribute", nil)
			}
			sf.nonce, haveR = value, true
		case "s":
			if haveS {
				return sf, protocolError("duplicate salt attribute", nil)
			}
			salt, haveS = value, true
		case "i":
			if haveI {
				return sf, protocolError("duplicate iteration count attribute", nil)
			}
			iter, haveI = value, true
		}
	}

	switch {
	case !haveR:
		return sf, protocolError("server-first-message has no nonce", nil)
	case !haveS:
		return sf, protocolError("server-first-message has no salt", nil)
	case !haveI:
		return sf, protocolError("server-first-message has no iteration count", nil)
	}

	var err error
	if sf.salt, err = base64.StdEncoding.DecodeString(salt); err != nil {
		return sf, protocolError("salt is not valid base64", err)
	}

	if sf.iterations, err = strconv.Atoi(iter); err != nil {
		return sf, protocolError("iteration count is not a number", err)
	}
	if sf.iterations < 1 {
		return sf, protocolError("iteration count must be positive", errors.Errorf("i=%d", sf.iterations))
	}
	if sf.iterations > maxIterations {
		return sf, protocolError("iteration count exceeds the configured limit",
			errors.Errorf("i=%d, limit %d", sf.iterations, maxIterations))
	}

	return sf, nil
}

func clientFirstMessageBare(username, nonce string) string {
	return "n=" + saslPrep(username) + ",r=" + nonce
}

func clientFinalMessageWithoutProof(nonce string) string {
	return "c=" + channelBindingAttr + ",r=" + nonce
}

func buildAuthMessage(clientFirstBare string, serverFirst []byte, clientFinalWithoutProof string) []byte {
	am := make([]byte, 0, len(clientFirstBare)+len(serverFirst)+len(clientFinalWithoutProof)+2)
	am = append(am, clientFirstBare...)
	am = append(am, ',')
	am = append(am, serverFirst...)
	am = append(am, ',')
	am = append(am, clientFinalWithoutProof...)
	return am
}
