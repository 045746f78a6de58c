package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron"
	"go.uber.org/zap"

	"registry-console/pkg/registry-go/model"
)

const (
	DefaultRefreshInterval = 10 * time.Minute
	refreshPath            = "/api/v1/users/login"
)

// Handle cancels a scheduled job.
type Handle interface {
	Stop()
}

// Scheduler runs fn every interval until the returned handle is stopped.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (Handle, error)
}

type cronScheduler struct{}

// CronScheduler schedules jobs on a dedicated robfig/cron runner.
func CronScheduler() Scheduler {
	return cronScheduler{}
}

func (cronScheduler) Every(interval time.Duration, fn func()) (Handle, error) {
	if interval < time.Second {
		return nil, errors.Errorf("refresh interval %s is below one second", interval)
	}
	c := cron.New()
	c.Schedule(cron.Every(interval), cron.FuncJob(fn))
	c.Start()
	return c, nil
}

// FailureFunc is called once for every refresh attempt that did not yield a
// new token pair. The refresher keeps running afterwards.
type FailureFunc func(err error)

type Option func(*Manager)

func WithScheduler(s Scheduler) Option {
	return func(m *Manager) {
		m.scheduler = s
	}
}

func WithInterval(d time.Duration) Option {
	return func(m *Manager) {
		m.interval = d
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(m *Manager) {
		m.client = hc
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// OnRefreshed registers a callback run after new tokens were stored.
func OnRefreshed(fn func(model.TokenPair)) Option {
	return func(m *Manager) {
		m.onRefreshed = fn
	}
}

// Manager keeps the stored access token fresh by trading the refresh token
// for a new pair on a fixed interval. It is either idle or running a single
// job; create one per application.
type Manager struct {
	store       TokenStore
	scheduler   Scheduler
	interval    time.Duration
	client      *http.Client
	logger      *zap.Logger
	onRefreshed func(model.TokenPair)

	mu     sync.Mutex
	handle Handle

	inflight atomic.Bool
}

func NewManager(store TokenStore, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		scheduler: CronScheduler(),
		interval:  DefaultRefreshInterval,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Setup starts the periodic refresh against serverBaseUrl. Calling it while a
// job is already running does nothing, the first job keeps its arguments.
func (m *Manager) Setup(serverBaseUrl string, onFailure FailureFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle != nil {
		m.logger.Debug("token refresher already running")
		return nil
	}

	endpoint := strings.TrimSuffix(strings.TrimSpace(serverBaseUrl), "/") + refreshPath
	h, err := m.scheduler.Every(m.interval, func() {
		if err := m.refresh(context.Background(), endpoint); err != nil && onFailure != nil {
			onFailure(err)
		}
	})
	if err != nil {
		return errors.Wrap(err, "schedule token refresh")
	}
	m.handle = h
	m.logger.Info("token refresher started", zap.String("endpoint", endpoint), zap.Duration("interval", m.interval))
	return nil
}

// Teardown stops the job if one is running. It is safe to call at any time.
func (m *Manager) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle == nil {
		return
	}
	m.handle.Stop()
	m.handle = nil
	m.logger.Info("token refresher stopped")
}

func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle != nil
}

// Refresh performs a single exchange outside the schedule.
func (m *Manager) Refresh(ctx context.Context, serverBaseUrl string) error {
	return m.refresh(ctx, strings.TrimSuffix(strings.TrimSpace(serverBaseUrl), "/")+refreshPath)
}

// refresh skips, without reporting a failure, when the previous exchange has
// not answered yet.
func (m *Manager) refresh(ctx context.Context, endpoint string) error {
	if !m.inflight.CompareAndSwap(false, true) {
		m.logger.Warn("previous token refresh still running, skipping tick")
		return nil
	}
	defer m.inflight.Store(false)

	refreshToken, err := m.store.RefreshToken()
	if err != nil {
		m.logger.Error("read refresh token", zap.Error(err))
		return err
	}
	if refreshToken == "" {
		return errors.New("no refresh token stored")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Authorization", "Bearer "+refreshToken)
	req.Header.Set("Accept", "application/json")

	res, err := m.client.Do(req)
	if err != nil {
		m.logger.Error("token refresh request failed", zap.Error(err))
		return errors.Wrap(err, "refresh token")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, res.Body)
		m.logger.Warn("token refresh rejected", zap.Int("status", res.StatusCode))
		return &StatusError{StatusCode: res.StatusCode}
	}

	pair := model.TokenPair{}
	if err := json.NewDecoder(res.Body).Decode(&pair); err != nil {
		return errors.Wrap(err, "decode refresh response")
	}
	if err := m.store.SetTokens(pair.Token, pair.RefreshToken); err != nil {
		m.logger.Error("store refreshed tokens", zap.Error(err))
		return err
	}
	m.logger.Info("token refreshed")
	if m.onRefreshed != nil {
		m.onRefreshed(pair)
	}
	return nil
}

// StatusError reports a refresh answered with something other than 200.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("token refresh failed: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}
