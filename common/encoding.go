// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package common

import (
	"encoding/base64"
)

// CancelToken is the SASL response that aborts an exchange
const CancelToken = "*"

// DecodeChallenge decodes a base64 server challenge.  An empty string is an
// empty challenge.
func DecodeChallenge(challenge string) ([]byte, error) {
	if challenge == "" {
		return []byte{}, nil
	}

	return base64.StdEncoding.DecodeString(challenge)
}

// EncodeResponse base64 encodes a client response
func EncodeResponse(response []byte) string {
	return base64.StdEncoding.EncodeToString(response)
}

// StepBase64 is the text form of Mech.Step: it decodes the base64 challenge,
// steps m and returns the base64 response.  Any failure is returned as a
// *SaslError wrapping the cause.
func StepBase64(m Mech, challenge string) (string, error) {
	data, err := DecodeChallenge(challenge)
	if err != nil {
		return "", WrapError(m.Name(), &ProtocolError{Reason: "challenge is not valid base64", Err: err})
	}

	response, err := m.Step(data)
	if err != nil {
		return "", WrapError(m.Name(), err)
	}

	return EncodeResponse(response), nil
}
