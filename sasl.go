// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package sasl

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/sharp-xmpp/go-sasl/common"
	"github.com/sharp-xmpp/go-sasl/pkg/loggable"
	"github.com/sharp-xmpp/go-sasl/registry"

	_ "github.com/sharp-xmpp/go-sasl/scram"
)

type SaslClientOption func(*SaslClient) error

// SaslClient chooses a mechanism and drives it through one authentication
// attempt.  Create a new client for every attempt.
type SaslClient struct {
	loggable.Loggable

	mech common.Mech

	service         string
	mechList        []string
	serverFQDN      string
	minSSF          uint
	maxSSF          uint
	maxBufSize      uint // max the client can receive
	secProps        common.SecurityFlag
	extProps        externalProperties
	needHTTP        bool
	channelBindings *common.ChannelBinding
	extraProps      map[string]string
	credentials     common.Credentials
	nonce           string
}

type externalProperties struct {
	ssf uint
	//	authID string
}

type channelBindingDisposition int

const (
	channelBindingDispNone channelBindingDisposition = iota
	channelBindingDispWant
	channelBindingDispMust
)

func NewSaslClient(service string, opts ...SaslClientOption) (client *SaslClient, err error) {
	client = &SaslClient{
		service:    service,
		secProps:   common.SecNoAnonymous | common.SecNoPlainText,
		maxBufSize: 65536,
		maxSSF:     ^uint(0),
		extraProps: make(map[string]string),
	}

	for _, o := range opts {
		if err = o(client); err != nil {
			return nil, err
		}
	}

	if len(client.mechList) > 0 {
		// trim the mech list to only those that are registered
		var newMechList []string

		for _, name := range client.mechList {
			if registry.IsRegistered(name) {
				newMechList = append(newMechList, name)
			}
		}

		client.mechList = newMechList
		client.Debugf("using specified registered mechs: [%s]", strings.Join(client.mechList, ", "))
	} else {
		// default to all registered mechs
		client.mechList = registry.Mechs()
		client.Debugf("using all registered mechs: [%s]", strings.Join(client.mechList, ", "))
	}

	if len(client.mechList) == 0 {
		return nil, common.ErrNoMech
	}

	return client, nil
}

var validHostnameRegex = regexp.MustCompile(`^(([a-zA-Z0-9]|[a-zA-Z0-9][a-zA-Z0-9\-]*[a-zA-Z0-9])\.)*([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9\-]*[A-Za-z0-9])$`)

func WithServerFQDN(fqdn string) SaslClientOption {
	return func(c *SaslClient) error {
		if fqdn != "" {
			if !validHostnameRegex.MatchString(fqdn) {
				return errors.New("bad hostname")
			}

			c.serverFQDN = fqdn
		}

		return nil
	}
}

// WithMechList restricts the client to mechs, in order of preference.  Pass
// the mechanisms the server offered.
func WithMechList(mechs []string) SaslClientOption {
	return func(c *SaslClient) error {
		if len(mechs) > 0 {
			c.mechList = mechs
		}

		return nil
	}
}

// WithCredentials sets the user name and password for password based mechs
func WithCredentials(username string, password []byte) SaslClientOption {
	return func(c *SaslClient) error {
		if err := c.credentials.SetProperty(common.PropUsername, []byte(username)); err != nil {
			return err
		}
		return c.credentials.SetProperty(common.PropPassword, password)
	}
}

// WithNonce fixes the client nonce.  Only useful for reproducible tests.
func WithNonce(nonce string) SaslClientOption {
	return func(c *SaslClient) error {
		c.nonce = nonce
		return nil
	}
}

func WithMinSSF(ssf uint) SaslClientOption {
	return func(c *SaslClient) error {
		c.minSSF = ssf
		return nil
	}
}

func WithMaxSSF(ssf uint) SaslClientOption {
	return func(c *SaslClient) error {
		c.maxSSF = ssf
		return nil
	}
}

func WithNeedHTTP() SaslClientOption {
	return func(c *SaslClient) error {
		c.needHTTP = true
		return nil
	}
}

func WithChannelBindings(cb common.ChannelBinding) SaslClientOption {
	return func(c *SaslClient) error {
		c.channelBindings = &cb
		return nil
	}
}

func WithMaxBufSize(size uint) SaslClientOption {
	return func(c *SaslClient) error {
		c.maxBufSize = size
		return nil
	}
}

func WithSecurityProps(props common.SecurityFlag) SaslClientOption {
	return func(c *SaslClient) error {
		c.secProps = props & common.SecAll
		return nil
	}
}

func WithExtraProps(key, value string) SaslClientOption {
	return func(c *SaslClient) error {
		c.extraProps[key] = value
		return nil
	}
}

// WithLogger sends the client's and the mechanism's log messages to l
func WithLogger(l log.Logger) SaslClientOption {
	return func(c *SaslClient) error {
		return loggable.WithLogger(l)(&c.Loggable)
	}
}

// WithLogLevel filters log messages, eg. level.AllowInfo()
func WithLogLevel(opt level.Option) SaslClientOption {
	return func(c *SaslClient) error {
		return loggable.WithLevel(opt)(&c.Loggable)
	}
}

// Mech returns the mechanism chosen by Start, or nil
func (c *SaslClient) Mech() common.Mech {
	return c.mech
}

func (c *SaslClient) IsCompleted() bool {
	if c.mech != nil {
		return c.mech.IsCompleted()
	}

	return false
}

// Start chooses the first acceptable mechanism and returns its initial
// response, or nil if the server speaks first.  The client's copy of the
// password is wiped before Start returns.
func (c *SaslClient) Start() (outToken []byte, err error) {
	c.mech = nil

	// the mech takes its own copy of the credentials
	defer c.wipeCredentials()

	// how much 'extra ssf' do we need if we take the external layer into account?
	var minSSF uint
	if c.minSSF > c.extProps.ssf {
		minSSF = c.minSSF - c.extProps.ssf
	}

	cbDisposition, err := c.channelBindingDisposition()
	if err != nil {
		return nil, err
	}

	// find the first mech that matches the security requirements
	var chosenMech string
	for _, mech := range c.mechList {
		mechProps := registry.Properties(mech)

		// discard if the mech does not meet the min SSF requirement
		if minSSF > mechProps.MaxSSF {
			c.Debugf("mech %s max SSF (%d) too low (want %d)", mech, mechProps.MaxSSF, minSSF)
			continue
		}

		wantSecProps := c.secProps
		if (c.extProps.ssf > c.minSSF) && (c.extProps.ssf > 1) {
			c.Debugf("mech %s (max SSF %d) upgraded to non-plaintext (external SSF: %d)", mech, mechProps.MaxSSF, c.extProps.ssf)
			wantSecProps &^= common.SecNoPlainText
		}

		// does mech meet security requirements?
		if wantSecProps&^mechProps.SecurityProperties != 0 {
			c.Debugf("mech %s does not meet security requirements", mech)
			continue
		}

		// does our configuration meet the mech's feature requirements?
		if cbDisposition == channelBindingDispMust && (mechProps.Features&common.FeatChannelBindings == 0) {
			c.Debugf("mech %s does not support channel bindings", mech)
			continue
		}

		if (mechProps.Features&common.FeatNeedServerFQDN != 0) && c.serverFQDN == "" {
			c.Debugf("mech %s requires server FQDN", mech)
			continue
		}

		// do the mech's features cover the required features?
		if c.needHTTP && (mechProps.Features&common.FeatSupportsHTTP == 0) {
			c.Debugf("mech %s does not support HTTP", mech)
			continue
		}

		// this looks like a good fit..
		chosenMech = mech
		break
	}

	if chosenMech == "" {
		return nil, common.ErrNoMech
	}

	c.Debugf("Chose mech %s", chosenMech)

	// Create an instance of the chosen mech
	cfg := common.MechConfig{
		Logger:         c.Loggable,
		Service:        c.service,
		ServerFQDN:     c.serverFQDN,
		MinSSF:         c.minSSF,
		MaxSSF:         c.maxSSF,
		MaxBufSize:     c.maxBufSize,
		ExternalSSF:    c.extProps.ssf,
		SecProps:       c.secProps,
		HTTPMode:       c.needHTTP,
		ExtraProps:     c.extraProps,
		ChannelBinding: c.channelBindings,
		Credentials:    c.credentials,
		Nonce:          c.nonce,
	}
	mech, err := registry.NewMech(chosenMech, cfg)
	if err != nil {
		return nil, common.WrapError(chosenMech, err)
	}
	c.mech = mech

	// Don't return a token if the mech wants the server to go first
	if !c.mech.HasInitialResponse() {
		return nil, nil
	}

	// otherwise execute the first step
	return c.Step(nil)
}

// Step passes a decoded server challenge to the mechanism.  Failures are
// returned as a *common.SaslError.
func (c *SaslClient) Step(inToken []byte) (outToken []byte, err error) {
	if c.mech == nil {
		return nil, common.ErrNotStarted
	}

	if c.IsCompleted() {
		return nil, common.WrapError(c.mech.Name(), common.ErrAlreadyCompleted)
	}

	outToken, err = c.mech.Step(inToken)
	if err != nil {
		c.Warnf("%s step failed: %v", c.mech.Name(), err)
		return nil, common.WrapError(c.mech.Name(), err)
	}

	return outToken, nil
}

// GetResponse is Step for base64 encoded challenges and responses
func (c *SaslClient) GetResponse(challenge string) (string, error) {
	if c.mech == nil {
		return "", common.ErrNotStarted
	}

	if c.IsCompleted() {
		return "", common.WrapError(c.mech.Name(), common.ErrAlreadyCompleted)
	}

	return common.StepBase64(c.mech, challenge)
}

func (c *SaslClient) ContextParams() (params common.ContextParams, err error) {
	if c.mech == nil {
		err = common.ErrNotStarted
		return
	}

	if !c.IsCompleted() {
		err = common.ErrNotEstablished
		return
	}

	return c.mech.ContextParams(), nil
}

func (c *SaslClient) Encode(input []byte) (outToken []byte, err error) {
	if c.mech == nil {
		return nil, common.ErrNotStarted
	}

	if !c.IsCompleted() {
		return nil, common.ErrNotEstablished
	}

	// output is the same as input if there is no negotiated security layer
	if c.mech.ContextParams().SSF == 0 {
		outToken = input
	} else {
		outToken, err = c.mech.Encode(input)
	}

	return
}

func (c *SaslClient) Decode(inputToken []byte) (output []byte, err error) {
	if c.mech == nil {
		return nil, common.ErrNotStarted
	}

	if !c.IsCompleted() {
		return nil, common.ErrNotEstablished
	}

	// output is the same as input if there is no negotiated security layer
	if c.mech.ContextParams().SSF == 0 {
		output = inputToken
	} else {
		output, err = c.mech.Decode(inputToken)
	}

	return
}

func (c *SaslClient) wipeCredentials() {
	common.Wipe(c.credentials.Password)
	c.credentials.Password = nil
}

func supportsChannelBindings(mechList []string) bool {
	for _, mech := range mechList {
		if registry.Properties(mech).Features&common.FeatChannelBindings != 0 {
			return true
		}
	}

	return false
}

// port of Cyrus SASL _sasl_cbinding_disp
func (c *SaslClient) channelBindingDisposition() (disp channelBindingDisposition, err error) {
	serverSupported := supportsChannelBindings(c.mechList)
	disp = channelBindingDispNone
	if c.channelBindings == nil {
		c.Debugf("no channel binding requested")
		return
	}

	switch {
	// if negotiating mechs..
	case len(c.mechList) > 0:
		// error if we require CB and none of the mechs support it
		if !serverSupported && c.channelBindings.Critical {
			c.Debugf("no negotiating mechs support channel binding which is critical for us")
			err = common.ErrNoMech
			return
		}
		// otherwise indicate that we want CB for now
		disp = channelBindingDispWant
	// if not negotiating mechs, we must have CB if critical
	case c.channelBindings.Critical:
		disp = channelBindingDispMust
	}

	return
}
