package services

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/changeset-demo/changeset-demo/common"
	"github.com/changeset-demo/changeset-demo/metrics"
)

type fakePage struct {
	mounts   atomic.Int32
	unmounts atomic.Int32
}

func (p *fakePage) Mount() {
	p.mounts.Add(1)
}

func (p *fakePage) Unmount() {
	p.unmounts.Add(1)
}

func newTestSessionsService(t *testing.T, idleTimeout time.Duration, sweepInterval time.Duration) (*SessionsService, *[]*fakePage) {
	return newLimitedTestSessionsService(t, idleTimeout, sweepInterval, 100)
}

func newLimitedTestSessionsService(t *testing.T, idleTimeout time.Duration, sweepInterval time.Duration, maxSessions int) (*SessionsService, *[]*fakePage) {
	t.Helper()

	var pages []*fakePage
	ss := NewSessionsService(func() Page {
		p := &fakePage{}
		pages = append(pages, p)
		return p
	}, idleTimeout, sweepInterval, maxSessions, metrics.NewMetricsService(false, nil))
	t.Cleanup(func() { ss.Close() })

	return ss, &pages
}

func TestSessionsService(t *testing.T) {
	t.Run("should mount a page per session", func(t *testing.T) {
		ss, pages := newTestSessionsService(t, time.Minute, time.Hour)

		first, _, err := ss.CreateSession()
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		second, _, _ := ss.CreateSession()

		if first == second {
			t.Fatalf("\nwanted:\ndistinct session ids\ngot:\n%s twice", first)
		}
		if len(*pages) != 2 {
			t.Fatalf("\nwanted:\n2\ngot:\n%d", len(*pages))
		}
		for _, p := range *pages {
			if p.mounts.Load() != 1 {
				t.Fatalf("\nwanted:\n1\ngot:\n%d", p.mounts.Load())
			}
		}
	})

	t.Run("should return the page of a live session", func(t *testing.T) {
		ss, _ := newTestSessionsService(t, time.Minute, time.Hour)

		id, page, _ := ss.CreateSession()

		got, ok := ss.GetSession(id)
		if !ok {
			t.Fatalf("\nwanted:\ntrue\ngot:\nfalse")
		}
		if got != page {
			t.Fatalf("\nwanted:\n%p\ngot:\n%p", page, got)
		}
		if _, ok := ss.GetSession("unknown"); ok {
			t.Fatalf("\nwanted:\nfalse\ngot:\ntrue")
		}
	})

	t.Run("should unmount the page on invalidation", func(t *testing.T) {
		ss, pages := newTestSessionsService(t, time.Minute, time.Hour)

		id, _, _ := ss.CreateSession()
		ss.InvalidateSession(id)
		ss.InvalidateSession(id)

		if got := (*pages)[0].unmounts.Load(); got != 1 {
			t.Fatalf("\nwanted:\n1\ngot:\n%d", got)
		}
		if _, ok := ss.GetSession(id); ok {
			t.Fatalf("\nwanted:\nfalse\ngot:\ntrue")
		}
	})

	t.Run("should sweep idle sessions", func(t *testing.T) {
		ss, pages := newTestSessionsService(t, 10*time.Millisecond, 5*time.Millisecond)

		ss.CreateSession()

		deadline := time.Now().Add(2 * time.Second)
		for (*pages)[0].unmounts.Load() == 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		if ss.Count() != 0 {
			t.Fatalf("\nwanted:\n0\ngot:\n%d", ss.Count())
		}
		if got := (*pages)[0].unmounts.Load(); got != 1 {
			t.Fatalf("\nwanted:\n1\ngot:\n%d", got)
		}
	})

	t.Run("should unmount every page on close", func(t *testing.T) {
		ss, pages := newTestSessionsService(t, time.Minute, time.Hour)

		ss.CreateSession()
		ss.CreateSession()
		ss.Close()

		for _, p := range *pages {
			if p.unmounts.Load() != 1 {
				t.Fatalf("\nwanted:\n1\ngot:\n%d", p.unmounts.Load())
			}
		}
	})

	t.Run("should refuse new sessions after close", func(t *testing.T) {
		ss, pages := newTestSessionsService(t, time.Minute, time.Hour)

		ss.Close()
		_, page, err := ss.CreateSession()

		if !errors.Is(err, common.ErrSessionsClosed) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", common.ErrSessionsClosed, err)
		}
		if page != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", page)
		}
		if len(*pages) != 0 {
			t.Fatalf("\nwanted:\nno page mounted\ngot:\n%d", len(*pages))
		}
		if ss.Count() != 0 {
			t.Fatalf("\nwanted:\n0\ngot:\n%d", ss.Count())
		}
	})

	t.Run("should unmount the least recently used page when full", func(t *testing.T) {
		ss, pages := newLimitedTestSessionsService(t, time.Minute, time.Hour, 2)

		first, _, _ := ss.CreateSession()
		time.Sleep(5 * time.Millisecond)
		second, _, _ := ss.CreateSession()
		time.Sleep(5 * time.Millisecond)
		ss.GetSession(first)

		third, _, err := ss.CreateSession()
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if ss.Count() != 2 {
			t.Fatalf("\nwanted:\n2\ngot:\n%d", ss.Count())
		}
		if got := (*pages)[1].unmounts.Load(); got != 1 {
			t.Fatalf("\nwanted:\nsecond page unmounted once\ngot:\n%d", got)
		}
		if got := (*pages)[0].unmounts.Load(); got != 0 {
			t.Fatalf("\nwanted:\nfirst page still mounted\ngot:\n%d unmounts", got)
		}
		if _, ok := ss.GetSession(second); ok {
			t.Fatalf("\nwanted:\nsecond session gone\ngot:\nstill live")
		}
		for _, id := range []string{first, third} {
			if _, ok := ss.GetSession(id); !ok {
				t.Fatalf("\nwanted:\nsession %s live\ngot:\ngone", id)
			}
		}
	})
}
