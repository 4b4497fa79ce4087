// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package loggable

import (
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

type LoggableOption func(*Loggable) error

// Loggable gives its embedder printf style leveled logging on top of a
// go-kit logger.  The zero value discards everything.
type Loggable struct {
	base   log.Logger
	filter []level.Option
	logger log.Logger
}

// New returns a Loggable configured by opts
func New(opts ...LoggableOption) (Loggable, error) {
	var l Loggable
	for _, o := range opts {
		if err := o(&l); err != nil {
			return Loggable{}, err
		}
	}

	return l, nil
}

func (c *Loggable) Debugf(msg string, args ...interface{}) {
	c.log(level.Debug, msg, args...)
}
func (c *Loggable) Infof(msg string, args ...interface{}) {
	c.log(level.Info, msg, args...)
}
func (c *Loggable) Warnf(msg string, args ...interface{}) {
	c.log(level.Warn, msg, args...)
}
func (c *Loggable) Errorf(msg string, args ...interface{}) {
	c.log(level.Error, msg, args...)
}

func (c *Loggable) log(lvl func(log.Logger) log.Logger, msg string, args ...interface{}) {
	if c.logger == nil {
		return
	}

	_ = lvl(c.logger).Log("msg", fmt.Sprintf(msg, args...))
}

// With returns a copy of c whose messages carry keyvals as context
func (c Loggable) With(keyvals ...interface{}) Loggable {
	if c.base == nil {
		return c
	}

	c.base = log.With(c.base, keyvals...)
	c.rebuild()
	return c
}

// Logger returns the underlying logger, or a no-op logger when none is set
func (c Loggable) Logger() log.Logger {
	if c.logger == nil {
		return log.NewNopLogger()
	}
	return c.logger
}

func (c *Loggable) rebuild() {
	switch {
	case c.base == nil:
		c.logger = nil
	case len(c.filter) > 0:
		c.logger = level.NewFilter(c.base, c.filter...)
	default:
		c.logger = c.base
	}
}

// WithLogger sends messages to l
func WithLogger(l log.Logger) LoggableOption {
	return func(c *Loggable) error {
		c.base = l
		c.rebuild()
		return nil
	}
}

// WithLevel drops messages below the level allowed by opt, eg. level.AllowInfo()
func WithLevel(opt level.Option) LoggableOption {
	return func(c *Loggable) error {
		c.filter = []level.Option{opt}
		c.rebuild()
		return nil
	}
}

// WithLevelName is WithLevel for a level given by name
func WithLevelName(name string) LoggableOption {
	return func(c *Loggable) error {
		opt, err := ParseLevel(name)
		if err != nil {
			return err
		}
		return WithLevel(opt)(c)
	}
}

// ParseLevel maps a level name to a go-kit filter option
func ParseLevel(name string) (level.Option, error) {
	switch name {
	case "debug":
		return level.AllowDebug(), nil
	case "info", "":
		return level.AllowInfo(), nil
	case "warn":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	case "none":
		return level.AllowNone(), nil
	}

	return nil, fmt.Errorf("unknown log level %q", name)
}
