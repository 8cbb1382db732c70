package genvr

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/bobmcallan/genvr-mcp/internal/common"
)

// errStillPending marks a non-terminal status check. It is the only outcome
// the poller retries.
var errStillPending = errors.New("task still pending")

// JobClient is the subset of the remote API the poller needs.
type JobClient interface {
	Status(ctx context.Context, taskID, category, subcategory string, creds Credentials) (TaskStatus, error)
	FetchResult(ctx context.Context, taskID, category, subcategory string, creds Credentials) (json.RawMessage, error)
}

// PollerConfig bounds the completion loop.
type PollerConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// DefaultPollerConfig returns 60 checks backing off 2s, 3s, 4.5s ... capped at 10s.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		MaxAttempts:  60,
		InitialDelay: 2 * time.Second,
		Multiplier:   1.5,
		MaxDelay:     10 * time.Second,
	}
}

// Delay returns the wait after status check i (0-indexed).
func (c PollerConfig) Delay(i int) time.Duration {
	d := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(i))
	if d > float64(c.MaxDelay) || math.IsInf(d, 0) {
		return c.MaxDelay
	}
	return time.Duration(d)
}

func (c PollerConfig) withDefaults() PollerConfig {
	def := DefaultPollerConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = def.InitialDelay
	}
	if c.Multiplier < 1 {
		c.Multiplier = def.Multiplier
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = def.MaxDelay
	}
	return c
}

// Poller observes one task at a time until it reaches a terminal status.
// It is safe for concurrent use; each Await runs an independent loop.
type Poller struct {
	client JobClient
	config PollerConfig
	timer  retry.Timer
	logger *common.Logger
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithTimer replaces the wall-clock timer used between checks.
func WithTimer(t retry.Timer) PollerOption {
	return func(p *Poller) {
		if t != nil {
			p.timer = t
		}
	}
}

type wallTimer struct{}

func (wallTimer) After(d time.Duration) <-chan time.Time { return time.After(d) }

// NewPoller creates a poller. Zero config fields take their defaults.
func NewPoller(client JobClient, config PollerConfig, logger *common.Logger, opts ...PollerOption) *Poller {
	p := &Poller{
		client: client,
		config: config.withDefaults(),
		timer:  wallTimer{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the effective poll settings.
func (p *Poller) Config() PollerConfig {
	return p.config
}

// Await polls the task until it completes, fails or exhausts its attempts.
// On completion exactly one result fetch is made. Transport errors end the
// loop immediately; only non-terminal statuses are retried.
func (p *Poller) Await(ctx context.Context, taskID, category, subcategory string, creds Credentials) (json.RawMessage, error) {
	task := Task{ID: taskID, Category: category, Subcategory: subcategory}
	checks := 0

	err := retry.Do(
		func() error {
			checks++
			st, err := p.client.Status(ctx, taskID, category, subcategory, creds)
			if err != nil {
				return err
			}
			task.Status = st.Status
			task.Error = st.Error

			if !task.Terminal() {
				if checks < p.config.MaxAttempts {
					p.logger.Debug().Str("task_id", taskID).Int("check", checks).Str("status", task.Status).Msg("task not finished")
				}
				return errStillPending
			}
			if task.Status == StatusFailed {
				return &TaskFailedError{TaskID: taskID, Detail: st.Error}
			}
			return nil
		},
		retry.Attempts(uint(p.config.MaxAttempts)),
		retry.DelayType(func(_ uint, _ error, _ *retry.Config) time.Duration {
			return p.config.Delay(checks - 1)
		}),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, errStillPending)
		}),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.WithTimer(p.timer),
	)

	switch {
	case err == nil:
	case errors.Is(err, errStillPending):
		p.logger.Warn().Str("task_id", taskID).Int("checks", checks).Msg("task polling timed out")
		return nil, &TaskTimedOutError{TaskID: taskID, Attempts: checks}
	default:
		var failed *TaskFailedError
		if errors.As(err, &failed) {
			p.logger.Info().Str("task_id", taskID).Str("detail", failed.Detail).Msg("task failed")
		}
		return nil, err
	}

	result, err := p.client.FetchResult(ctx, taskID, category, subcategory, creds)
	if err != nil {
		return nil, err
	}
	task.Result = result

	p.logger.Info().Str("task_id", task.ID).Str("category", task.Category).Str("subcategory", task.Subcategory).Int("checks", checks).Msg("task completed")
	return task.Result, nil
}
