package services

import (
	"sync"
	"time"

	"github.com/changeset-demo/changeset-demo/common"
	"github.com/changeset-demo/changeset-demo/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Page is the per-session state: mounted when the session is created and unmounted when it ends.
type Page interface {
	Mount()
	Unmount()
}

type PageFactory func() Page

type session struct {
	page      Page
	expiresAt int64
}

// SessionsService keeps one Page per loaded home page.
// A session expires when it has not been touched for idleTimeout, and at most maxSessions pages stay mounted.
type SessionsService struct {
	newPage        PageFactory
	idleTimeout    time.Duration
	maxSessions    int
	metricsService metrics.Service
	activeSessions map[string]*session
	closed         bool
	mu             sync.RWMutex
	ticker         *time.Ticker
	done           chan struct{}
	closeOnce      sync.Once
}

func NewSessionsService(newPage PageFactory, idleTimeout time.Duration, sweepInterval time.Duration, maxSessions int, metricsService metrics.Service) *SessionsService {
	ticker := time.NewTicker(sweepInterval)

	ss := &SessionsService{
		newPage:        newPage,
		idleTimeout:    idleTimeout,
		maxSessions:    maxSessions,
		metricsService: metricsService,
		activeSessions: make(map[string]*session),
		mu:             sync.RWMutex{},
		ticker:         ticker,
		done:           make(chan struct{}),
	}

	go func() {
		for {
			select {
			case now := <-ticker.C:
				ss.sweep(now.UnixMilli())
			case <-ss.done:
				return
			}
		}
	}()

	return ss
}

// CreateSession mounts a fresh page and returns its session ID.
// When the service is full, the least recently used page is unmounted to make room.
func (ss *SessionsService) CreateSession() (string, Page, error) {
	ss.mu.RLock()
	closed := ss.closed
	ss.mu.RUnlock()
	if closed {
		return "", nil, common.ErrSessionsClosed
	}

	sessionId := uuid.New().String()
	page := ss.newPage()
	page.Mount()

	ss.mu.Lock()
	if ss.closed {
		ss.mu.Unlock()
		page.Unmount()
		return "", nil, common.ErrSessionsClosed
	}

	var evicted []Page
	for len(ss.activeSessions) > 0 && len(ss.activeSessions) >= ss.maxSessions {
		evicted = append(evicted, ss.evictLeastRecentlyUsed())
	}
	ss.activeSessions[sessionId] = &session{
		page:      page,
		expiresAt: time.Now().Add(ss.idleTimeout).UnixMilli(),
	}
	count := len(ss.activeSessions)
	ss.mu.Unlock()

	for _, p := range evicted {
		p.Unmount()
	}
	if len(evicted) > 0 {
		log.Debug().Int("evicted", len(evicted)).Msg("sessions limit reached, unmounted least recently used pages")
	}

	ss.metricsService.SetActiveSessions(count)
	return sessionId, page, nil
}

// evictLeastRecentlyUsed must be called with mu held.
func (ss *SessionsService) evictLeastRecentlyUsed() Page {
	var oldestId string
	var oldest *session
	for sessionId, s := range ss.activeSessions {
		if oldest == nil || s.expiresAt < oldest.expiresAt {
			oldestId, oldest = sessionId, s
		}
	}
	delete(ss.activeSessions, oldestId)
	return oldest.page
}

// GetSession returns the page of a live session and extends its expiry.
func (ss *SessionsService) GetSession(sessionId string) (Page, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	s, exists := ss.activeSessions[sessionId]
	if !exists {
		return nil, false
	}
	now := time.Now()
	if s.expiresAt < now.UnixMilli() {
		return nil, false
	}
	s.expiresAt = now.Add(ss.idleTimeout).UnixMilli()
	return s.page, true
}

// InvalidateSession ends the session and unmounts its page.
func (ss *SessionsService) InvalidateSession(sessionId string) {
	ss.mu.Lock()
	s, exists := ss.activeSessions[sessionId]
	delete(ss.activeSessions, sessionId)
	count := len(ss.activeSessions)
	ss.mu.Unlock()

	if exists {
		s.page.Unmount()
		ss.metricsService.SetActiveSessions(count)
	}
}

func (ss *SessionsService) Count() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.activeSessions)
}

// Close stops the sweeper and unmounts every page. No session can be created afterwards.
func (ss *SessionsService) Close() error {
	ss.closeOnce.Do(func() {
		ss.ticker.Stop()
		close(ss.done)

		ss.mu.Lock()
		ss.closed = true
		sessions := ss.activeSessions
		ss.activeSessions = make(map[string]*session)
		ss.mu.Unlock()

		for _, s := range sessions {
			s.page.Unmount()
		}
		ss.metricsService.SetActiveSessions(0)
	})
	return nil
}

func (ss *SessionsService) sweep(nowMs int64) {
	var expired []Page

	ss.mu.Lock()
	for sessionId, s := range ss.activeSessions {
		if s.expiresAt < nowMs {
			expired = append(expired, s.page)
			delete(ss.activeSessions, sessionId)
		}
	}
	count := len(ss.activeSessions)
	ss.mu.Unlock()

	// unmounting waits for in-flight checks, so it happens outside the lock
	for _, page := range expired {
		page.Unmount()
	}
	if len(expired) > 0 {
		ss.metricsService.SetActiveSessions(count)
	}
}
