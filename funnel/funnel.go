// Package funnel drives the per-click decision flow between a result click
// and the eventual external navigation: direct navigate when no interstitial
// is configured, otherwise an optional email gate followed by a styled
// countdown pre-landing page.
package funnel

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"dataorbit/api/models"
	"dataorbit/api/store"
	"dataorbit/api/tracking"
)

// Phase is the state of one in-flight funnel instance. Idle and Terminal
// are implicit: no instance exists in either.
type Phase int

const (
	PhaseEmailGate Phase = iota
	PhasePreLanding
)

var (
	ErrNotFound        = errors.New("funnel: no active instance")
	ErrWrongPhase      = errors.New("funnel: operation not valid in current phase")
	ErrCountdownActive = errors.New("funnel: countdown still running")
	ErrEmptyEmail      = errors.New("funnel: email must not be empty")
)

// ConfigStore looks up the interstitial config for a result. A store
// ErrNotFound means "not configured", which drives direct navigation.
type ConfigStore interface {
	ByWebResult(ctx context.Context, webResultID string) (*models.PreLandingConfig, error)
}

// EmailStore persists email-gate submissions.
type EmailStore interface {
	Insert(ctx context.Context, sub models.EmailSubmission) error
}

// Tracker is the fire-and-forget event emitter.
type Tracker interface {
	EnsureSession(ctx context.Context, info tracking.ClientInfo) string
	Track(info tracking.ClientInfo, eventType models.EventType, opts tracking.TrackOptions)
}

// Action tells the client what to render next after a click.
type Action string

const (
	ActionNavigate   Action = "navigate"
	ActionEmailGate  Action = "email_gate"
	ActionPreLanding Action = "pre_landing"
)

// Outcome is the response to a funnel transition.
type Outcome struct {
	Action    Action                   `json:"action"`
	URL       string                   `json:"url,omitempty"`
	FunnelID  string                   `json:"funnelId,omitempty"`
	Config    *models.PreLandingConfig `json:"config,omitempty"`
	Remaining int                      `json:"remainingSeconds"`
}

// instance is one in-flight funnel interaction. It exists only between a
// result click and navigation/cancel/expiry and is never persisted.
type instance struct {
	id              string
	mu              sync.Mutex
	phase           Phase
	result          models.WebResult
	relatedSearchID string
	config          models.PreLandingConfig
	remaining       int
	client          tracking.ClientInfo
	createdAt       time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// startCountdown decrements remaining once per tick until it reaches zero
// or the instance is torn down. No-op when the countdown is already zero
// (countdown of 0 means immediately clickable).
func (f *instance) startCountdown(tick time.Duration) {
	f.mu.Lock()
	if f.remaining <= 0 {
		f.remaining = 0
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()

	go func() {
		t := time.NewTicker(tick)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				f.mu.Lock()
				if f.remaining > 0 {
					f.remaining--
				}
				done := f.remaining == 0
				f.mu.Unlock()
				if done {
					return
				}
			case <-f.stop:
				return
			}
		}
	}()
}

// teardown cancels the countdown. Safe to call more than once; must be
// honored on every exit path so no stray tick fires after the instance is
// gone.
func (f *instance) teardown() {
	f.stopOnce.Do(func() { close(f.stop) })
}

func (f *instance) remainingSeconds() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remaining
}

// Manager owns the active funnel instances. Each instance belongs to a
// single user interaction; the manager only serializes map access and
// expiry.
type Manager struct {
	configs ConfigStore
	emails  EmailStore
	tracker Tracker

	mu     sync.Mutex
	active map[string]*instance

	tick time.Duration
	ttl  time.Duration

	janitorStop chan struct{}
	janitorOnce sync.Once
}

type Option func(*Manager)

// WithTick overrides the one-second countdown tick (tests).
func WithTick(d time.Duration) Option {
	return func(m *Manager) { m.tick = d }
}

// WithTTL overrides how long an abandoned instance survives.
func WithTTL(d time.Duration) Option {
	return func(m *Manager) { m.ttl = d }
}

func NewManager(configs ConfigStore, emails EmailStore, tracker Tracker, opts ...Option) *Manager {
	m := &Manager{
		configs:     configs,
		emails:      emails,
		tracker:     tracker,
		active:      make(map[string]*instance),
		tick:        time.Second,
		ttl:         15 * time.Minute,
		janitorStop: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.janitor()
	return m
}

// Close stops the expiry janitor and tears down all active instances.
func (m *Manager) Close() {
	m.janitorOnce.Do(func() { close(m.janitorStop) })

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, f := range m.active {
		f.teardown()
		delete(m.active, id)
	}
}

func (m *Manager) janitor() {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			m.expire(time.Now())
		case <-m.janitorStop:
			return
		}
	}
}

func (m *Manager) expire(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, f := range m.active {
		if now.Sub(f.createdAt) > m.ttl {
			f.teardown()
			delete(m.active, id)
			log.Debug().Str("funnel_id", id).Msg("expired abandoned funnel instance")
		}
	}
}

// Click advances Idle → Clicked for a result. It always emits
// web_result_click first, then decides the branch: no config (or a failed
// lookup, which must never block the user) → direct navigation; otherwise
// an in-memory instance is created for the gated flow.
func (m *Manager) Click(ctx context.Context, client tracking.ClientInfo, result models.WebResult, relatedSearchID string) Outcome {
	m.tracker.Track(client, models.EventWebResultClick, tracking.TrackOptions{
		RelatedSearchID: relatedSearchID,
		WebResultID:     result.ID,
	})

	// Both "not configured" and a failed lookup release the user directly:
	// nothing in the interstitial machinery may block navigation.
	cfg, err := m.configs.ByWebResult(ctx, result.ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Str("web_result_id", result.ID).Msg("pre-landing lookup failed, falling back to direct navigation")
		}
		return Outcome{Action: ActionNavigate, URL: result.URL}
	}

	f := &instance{
		id:              uuid.New().String(),
		result:          result,
		relatedSearchID: relatedSearchID,
		config:          *cfg,
		remaining:       cfg.CountdownSeconds,
		client:          client,
		createdAt:       time.Now(),
		stop:            make(chan struct{}),
	}

	if cfg.RequireEmail {
		f.phase = PhaseEmailGate
	} else {
		f.phase = PhasePreLanding
		f.startCountdown(m.tick)
	}

	m.mu.Lock()
	m.active[f.id] = f
	m.mu.Unlock()

	action := ActionPreLanding
	if f.phase == PhaseEmailGate {
		action = ActionEmailGate
	}
	return Outcome{
		Action:    action,
		FunnelID:  f.id,
		Config:    cfg,
		Remaining: f.remainingSeconds(),
	}
}

// SubmitEmail handles the email gate. A failed write keeps the instance in
// EmailGate and emits nothing; success records the submission, emits
// email_submitted and advances to the countdown pre-landing page.
func (m *Manager) SubmitEmail(ctx context.Context, funnelID, email string) (Outcome, error) {
	f, ok := m.get(funnelID)
	if !ok {
		return Outcome{}, ErrNotFound
	}

	f.mu.Lock()
	if f.phase != PhaseEmailGate {
		f.mu.Unlock()
		return Outcome{}, ErrWrongPhase
	}
	f.mu.Unlock()

	if strings.TrimSpace(email) == "" {
		return Outcome{}, ErrEmptyEmail
	}

	sessionID := m.tracker.EnsureSession(ctx, f.client)
	sub := models.EmailSubmission{
		ID:          uuid.New().String(),
		SessionID:   sessionID,
		WebResultID: f.result.ID,
		Email:       email,
	}
	if err := m.emails.Insert(ctx, sub); err != nil {
		// Surfaced to the user; the funnel does not advance.
		return Outcome{}, err
	}

	m.tracker.Track(f.client, models.EventEmailSubmitted, tracking.TrackOptions{
		WebResultID: f.result.ID,
	})

	f.mu.Lock()
	f.phase = PhasePreLanding
	f.mu.Unlock()
	f.startCountdown(m.tick)

	cfg := f.config
	return Outcome{
		Action:    ActionPreLanding,
		FunnelID:  f.id,
		Config:    &cfg,
		Remaining: f.remainingSeconds(),
	}, nil
}

// Visit is the CTA click: only valid on the pre-landing page with the
// countdown at zero. Emits visit_now_click, destroys the instance and
// returns the true destination URL.
func (m *Manager) Visit(ctx context.Context, funnelID string) (string, error) {
	f, ok := m.get(funnelID)
	if !ok {
		return "", ErrNotFound
	}

	f.mu.Lock()
	if f.phase != PhasePreLanding {
		f.mu.Unlock()
		return "", ErrWrongPhase
	}
	if f.remaining > 0 {
		f.mu.Unlock()
		return "", ErrCountdownActive
	}
	f.mu.Unlock()

	m.tracker.Track(f.client, models.EventVisitNowClick, tracking.TrackOptions{
		WebResultID: f.result.ID,
	})

	m.remove(funnelID)

	url := f.result.URL
	if f.config.TargetURL != "" {
		url = f.config.TargetURL
	}
	return url, nil
}

// Cancel is "Go back" / closing the gate: discard the instance without
// navigating. Always succeeds, even for unknown ids.
func (m *Manager) Cancel(funnelID string) {
	m.remove(funnelID)
}

// Remaining reports the countdown for an active instance.
func (m *Manager) Remaining(funnelID string) (int, error) {
	f, ok := m.get(funnelID)
	if !ok {
		return 0, ErrNotFound
	}
	return f.remainingSeconds(), nil
}

func (m *Manager) get(id string) (*instance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.active[id]
	return f, ok
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.active[id]; ok {
		f.teardown()
		delete(m.active, id)
	}
}
