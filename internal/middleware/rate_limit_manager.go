package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitManager tracks per-IP limiters for the general API and
// stricter, separate budgets for auth and AI endpoints. Stale visitors
// are evicted in the background until the parent context ends.
type RateLimitManager struct {
	visitors   map[string]*visitor
	visitorsMu sync.Mutex

	aiVisitors   map[string]*visitor
	aiVisitorsMu sync.Mutex

	authVisitors   map[string]*visitor
	authVisitorsMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRateLimitManager(ctx context.Context) *RateLimitManager {
	managerCtx, cancel := context.WithCancel(ctx)

	m := &RateLimitManager{
		visitors:     make(map[string]*visitor),
		aiVisitors:   make(map[string]*visitor),
		authVisitors: make(map[string]*visitor),
		ctx:          managerCtx,
		cancel:       cancel,
	}

	m.wg.Add(1)
	go m.cleanupLoop()

	return m
}

func (m *RateLimitManager) GetVisitor(ip string, requestsPerWindow, windowSeconds, burst int) *rate.Limiter {
	if requestsPerWindow <= 0 {
		return nil
	}

	m.visitorsMu.Lock()
	defer m.visitorsMu.Unlock()

	if v, exists := m.visitors[ip]; exists {
		v.lastSeen = time.Now()
		return v.limiter
	}

	if windowSeconds <= 0 {
		windowSeconds = 60
	}
	if burst <= 0 {
		burst = requestsPerWindow
	}

	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerWindow)/float64(windowSeconds)), burst)
	m.visitors[ip] = &visitor{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

// GetAIVisitor returns the per-IP limiter for AI endpoints: 10 requests
// per minute regardless of the general API budget.
func (m *RateLimitManager) GetAIVisitor(ip string) *rate.Limiter {
	m.aiVisitorsMu.Lock()
	defer m.aiVisitorsMu.Unlock()

	if v, exists := m.aiVisitors[ip]; exists {
		v.lastSeen = time.Now()
		return v.limiter
	}

	limiter := rate.NewLimiter(rate.Limit(10.0/60.0), 10)
	m.aiVisitors[ip] = &visitor{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

// GetAuthVisitor returns the per-IP limiter for credential endpoints:
// 10 attempts per minute with a burst of 5, to slow down guessing.
func (m *RateLimitManager) GetAuthVisitor(ip string) *rate.Limiter {
	m.authVisitorsMu.Lock()
	defer m.authVisitorsMu.Unlock()

	if v, exists := m.authVisitors[ip]; exists {
		v.lastSeen = time.Now()
		return v.limiter
	}

	limiter := rate.NewLimiter(rate.Limit(10.0/60.0), 5)
	m.authVisitors[ip] = &visitor{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

func (m *RateLimitManager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.evictStale()
		}
	}
}

func (m *RateLimitManager) evictStale() {
	cutoff := time.Now().Add(-10 * time.Minute)

	m.visitorsMu.Lock()
	for ip, v := range m.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(m.visitors, ip)
		}
	}
	m.visitorsMu.Unlock()

	m.aiVisitorsMu.Lock()
	for ip, v := range m.aiVisitors {
		if v.lastSeen.Before(cutoff) {
			delete(m.aiVisitors, ip)
		}
	}
	m.aiVisitorsMu.Unlock()

	m.authVisitorsMu.Lock()
	for ip, v := range m.authVisitors {
		if v.lastSeen.Before(cutoff) {
			delete(m.authVisitors, ip)
		}
	}
	m.authVisitorsMu.Unlock()
}

// Shutdown stops the cleanup loop and waits for it to exit.
func (m *RateLimitManager) Shutdown() {
	m.cancel()
	m.wg.Wait()
}
