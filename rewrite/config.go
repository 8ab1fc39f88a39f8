// File: config.go
// Role: RewriteConfig — the explicit, caller-constructed configuration
// every driver in this package reads; there is no global mutable state.
package rewrite

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// FailureCallback decides what a driver does when a rewriter's Apply or
// Transform call returns an error: return nil to swallow it and continue,
// or return an error (typically the original err, wrapped) to abort the
// whole rewrite session. SeqOptimizer and EquilibriumOptimizer record a
// swallowed GlobalRewriter error in Profile.Warnings; a swallowed
// NodeRewriter or validation error in a traversal driver is not recorded.
type FailureCallback func(err error, rewriterName string) error

// Reraise is the default FailureCallback: it aborts on the first error.
func Reraise(err error, rewriterName string) error {
	return fmt.Errorf("rewrite: %s: %w", rewriterName, err)
}

// Warn is a FailureCallback that swallows the error and continues; see
// FailureCallback for which swallowed errors appear in Profile.Warnings.
func Warn(err error, rewriterName string) error { return nil }

// RewriteConfig holds the knobs every driver in this package reads. There
// is deliberately no package-level default instance: callers construct one
// with NewRewriteConfig and pass it explicitly, so a rewrite session never
// depends on ambient mutable state.
type RewriteConfig struct {
	OnFailure       FailureCallback
	MaxUseRatio     float64
	CheckStackTrace bool
}

// Option configures a RewriteConfig at construction time.
type Option func(*RewriteConfig)

// WithOnFailure sets the FailureCallback drivers invoke when a sub-rewriter
// errors. Defaults to Reraise.
func WithOnFailure(cb FailureCallback) Option {
	return func(c *RewriteConfig) { c.OnFailure = cb }
}

// WithMaxUseRatio sets EquilibriumOptimizer's safety bound: it aborts once
// the number of local-rewrite applications exceeds
// maxNodesSeen * ratio. The zero value disables the bound.
func WithMaxUseRatio(ratio float64) Option {
	return func(c *RewriteConfig) { c.MaxUseRatio = ratio }
}

// WithCheckStackTrace records whether the host compiler's (external)
// stack-trace propagation utility should be consulted by drivers that
// accept one; this package never implements stack-trace checking itself.
func WithCheckStackTrace(enabled bool) Option {
	return func(c *RewriteConfig) { c.CheckStackTrace = enabled }
}

// NewRewriteConfig builds a RewriteConfig with Reraise as the default
// failure policy and no use-ratio bound, then applies opts left to right.
func NewRewriteConfig(opts ...Option) *RewriteConfig {
	c := &RewriteConfig{OnFailure: Reraise, MaxUseRatio: 0}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// yamlRewriteConfig mirrors RewriteConfig's serializable fields; OnFailure
// is a function and is never serialized.
type yamlRewriteConfig struct {
	MaxUseRatio     float64 `yaml:"max_use_ratio"`
	CheckStackTrace bool    `yaml:"check_stack_trace"`
}

// LoadRewriteConfigYAML reads a RewriteConfig from r, leaving OnFailure at
// its Reraise default since a failure policy is a caller-supplied Go
// function and cannot be named in a config file.
func LoadRewriteConfigYAML(r io.Reader) (*RewriteConfig, error) {
	var raw yamlRewriteConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("rewrite: LoadRewriteConfigYAML: %w", err)
	}
	return &RewriteConfig{
		OnFailure:       Reraise,
		MaxUseRatio:     raw.MaxUseRatio,
		CheckStackTrace: raw.CheckStackTrace,
	}, nil
}
