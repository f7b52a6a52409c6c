package service

import (
	"sync"
	"time"

	"github.com/facebookgo/clock"

	"github.com/intbank/portal/internal/core/domain"
)

// NoticeBoard holds the single notice of one surface. A new notice replaces
// the previous one and cancels its expiry.
type NoticeBoard struct {
	clock clock.Clock

	mu     sync.Mutex
	notice *domain.Notice
	expiry *clock.Timer
	seq    uint64
}

func NewNoticeBoard(clk clock.Clock) *NoticeBoard {
	if clk == nil {
		clk = clock.New()
	}
	return &NoticeBoard{clock: clk}
}

// Post shows a notice until it is replaced or cleared.
func (b *NoticeBoard) Post(kind domain.NoticeKind, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replaceLocked(&domain.Notice{Kind: kind, Text: text})
}

// PostTransient shows a notice that clears itself after ttl. then, when not
// nil, runs after the clear unless the notice was superseded first.
func (b *NoticeBoard) PostTransient(kind domain.NoticeKind, text string, ttl time.Duration, then func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	seq := b.replaceLocked(&domain.Notice{Kind: kind, Text: text})
	b.expiry = b.clock.AfterFunc(ttl, func() {
		b.mu.Lock()
		if b.seq != seq {
			b.mu.Unlock()
			return
		}
		b.notice = nil
		b.expiry = nil
		b.mu.Unlock()
		if then != nil {
			then()
		}
	})
}

func (b *NoticeBoard) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replaceLocked(nil)
}

// Current returns the notice on display, if any.
func (b *NoticeBoard) Current() (domain.Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.notice == nil {
		return domain.Notice{}, false
	}
	return *b.notice, true
}

func (b *NoticeBoard) replaceLocked(n *domain.Notice) uint64 {
	if b.expiry != nil {
		b.expiry.Stop()
		b.expiry = nil
	}
	b.seq++
	b.notice = n
	return b.seq
}
