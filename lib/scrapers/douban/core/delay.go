package core

import (
	"sync/atomic"
	"time"

	"github.com/mazen160/go-random"
)

// rates the site tolerates without flagging the session. the slow set
// takes over once the session has issued more than SlowModeThreshold
// requests, long sessions are what get accounts flagged.
const (
	defaultNormalBaseDelay   = 4000 * time.Millisecond
	defaultNormalRandomRange = 4000 * time.Millisecond
	defaultSlowBaseDelay     = 10000 * time.Millisecond
	defaultSlowRandomRange   = 5000 * time.Millisecond
	defaultSlowModeThreshold = 200
	defaultRetryBackoffMin   = 5000 * time.Millisecond
	defaultRetryBackoffMax   = 10000 * time.Millisecond
	defaultMaxAttempts       = 3
	defaultTimeout           = 30 * time.Second
)

// PacingConfig tunes the request pacing of a session. The zero value
// means the production constants, tests override with tiny values.
type PacingConfig struct {
	NormalBaseDelay   time.Duration
	NormalRandomRange time.Duration
	SlowBaseDelay     time.Duration
	SlowRandomRange   time.Duration
	SlowModeThreshold uint64
	RetryBackoffMin   time.Duration
	RetryBackoffMax   time.Duration
	MaxAttempts       int
	Timeout           time.Duration
}

func (c PacingConfig) withDefaults() PacingConfig {
	if c.NormalBaseDelay <= 0 {
		c.NormalBaseDelay = defaultNormalBaseDelay
	}
	if c.NormalRandomRange <= 0 {
		c.NormalRandomRange = defaultNormalRandomRange
	}
	if c.SlowBaseDelay <= 0 {
		c.SlowBaseDelay = defaultSlowBaseDelay
	}
	if c.SlowRandomRange <= 0 {
		c.SlowRandomRange = defaultSlowRandomRange
	}
	if c.SlowModeThreshold == 0 {
		c.SlowModeThreshold = defaultSlowModeThreshold
	}
	if c.RetryBackoffMin <= 0 {
		c.RetryBackoffMin = defaultRetryBackoffMin
	}
	if c.RetryBackoffMax <= c.RetryBackoffMin {
		c.RetryBackoffMax = c.RetryBackoffMin + (defaultRetryBackoffMax - defaultRetryBackoffMin)
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

type DelayMode string

const (
	DelayModeNormal DelayMode = "normal"
	DelayModeSlow   DelayMode = "slow"
)

// DelayConfig reports which delay constants are in force.
type DelayConfig struct {
	Mode        DelayMode
	BaseDelay   time.Duration
	RandomRange time.Duration
}

// Pacer computes the randomized wait inserted before every request of
// a crawl session. Requests are issued one at a time, the counter is
// atomic only so Stats/SetCount can be read from other goroutines.
type Pacer struct {
	config PacingConfig
	count  atomic.Uint64
}

func NewPacer(config PacingConfig) *Pacer {
	return &Pacer{config: config.withDefaults()}
}

// NextDelay increments the session request counter and draws the wait
// for the upcoming request uniformly from [base, base+range]. It never
// fails: if the random source errors, the base delay alone is used.
func (p *Pacer) NextDelay() time.Duration {
	n := p.count.Add(1)
	cfg := p.configFor(n)
	jitter, err := random.IntRange(0, int(cfg.RandomRange/time.Millisecond)+1)
	if err != nil {
		return cfg.BaseDelay
	}
	return cfg.BaseDelay + time.Duration(jitter)*time.Millisecond
}

// RetryBackoff draws the additional wait inserted before a retry
// attempt, independent of the per-request pacing.
func (p *Pacer) RetryBackoff() time.Duration {
	spread := p.config.RetryBackoffMax - p.config.RetryBackoffMin
	jitter, err := random.IntRange(0, int(spread/time.Millisecond)+1)
	if err != nil {
		return p.config.RetryBackoffMin
	}
	return p.config.RetryBackoffMin + time.Duration(jitter)*time.Millisecond
}

func (p *Pacer) configFor(count uint64) DelayConfig {
	if count > p.config.SlowModeThreshold {
		return DelayConfig{
			Mode:        DelayModeSlow,
			BaseDelay:   p.config.SlowBaseDelay,
			RandomRange: p.config.SlowRandomRange,
		}
	}
	return DelayConfig{
		Mode:        DelayModeNormal,
		BaseDelay:   p.config.NormalBaseDelay,
		RandomRange: p.config.NormalRandomRange,
	}
}

// Current reports the delay constants in force at the present count.
func (p *Pacer) Current() DelayConfig {
	return p.configFor(p.count.Load())
}

func (p *Pacer) Count() uint64 {
	return p.count.Load()
}

func (p *Pacer) Reset() {
	p.count.Store(0)
}

func (p *Pacer) SetCount(n uint64) {
	p.count.Store(n)
}
