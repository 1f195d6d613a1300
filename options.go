// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import "go.uber.org/zap"

// Option configures a [Scheduler].
type Option func(*options)

type options struct {
	policy Policy
	logger *zap.Logger
	name   string
}

// WithPolicy installs p as the scheduler's policy. A policy instance serves
// exactly one scheduler. The default is a fresh [RoundRobin].
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithLogger sets the scheduler's logger. The default is [Logger].
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithName labels the scheduler in log output.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}
