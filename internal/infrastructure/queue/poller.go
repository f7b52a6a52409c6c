// Package queue keeps the admin approval queue fresh by polling the backend
// on a cron schedule while an admin is signed in.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/intbank/portal/internal/core/domain"
)

const defaultPollTimeout = 20 * time.Second

// Refresher reloads the pending-payment list.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// SessionReader exposes the signed-in role.
type SessionReader interface {
	Current() domain.Session
}

// Poller triggers Refresh on a schedule. A poll that is still running when
// the next tick fires causes that tick to be skipped.
type Poller struct {
	cron      *cron.Cron
	refresher Refresher
	sessions  SessionReader
	log       zerolog.Logger
	timeout   time.Duration
	ctx       context.Context
}

// NewPoller parses schedule (standard cron or "@every 30s" descriptors).
func NewPoller(schedule string, refresher Refresher, sessions SessionReader, log zerolog.Logger) (*Poller, error) {
	if schedule == "" {
		return nil, errors.New("poller: empty schedule")
	}
	cl := cronLogger{log: log}
	p := &Poller{
		cron: cron.New(cron.WithChain(
			cron.Recover(cl),
			cron.SkipIfStillRunning(cl),
		)),
		refresher: refresher,
		sessions:  sessions,
		log:       log,
		timeout:   defaultPollTimeout,
		ctx:       context.Background(),
	}
	if _, err := p.cron.AddFunc(schedule, func() { p.Poll(p.ctx) }); err != nil {
		return nil, fmt.Errorf("poller: schedule %q: %w", schedule, err)
	}
	return p, nil
}

// Start begins polling. Polls stop issuing backend calls once ctx is done.
func (p *Poller) Start(ctx context.Context) {
	p.ctx = ctx
	p.cron.Start()
	p.log.Info().Msg("pending payment poller started")
}

// Stop halts the schedule and returns a context that is done once the
// running poll, if any, has finished.
func (p *Poller) Stop() context.Context {
	return p.cron.Stop()
}

// Poll refreshes the queue once. It does nothing unless an admin is signed in.
func (p *Poller) Poll(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s := p.sessions.Current()
	if !s.Authenticated() || s.Role != domain.RoleAdmin {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.refresher.Refresh(ctx); err != nil {
		p.log.Warn().Err(err).Msg("scheduled pending payment refresh failed")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
