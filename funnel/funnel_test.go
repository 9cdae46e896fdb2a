package funnel_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataorbit/api/funnel"
	"dataorbit/api/models"
	"dataorbit/api/store"
	"dataorbit/api/tracking"
)

type fakeConfigStore struct {
	cfg *models.PreLandingConfig
	err error
}

func (f *fakeConfigStore) ByWebResult(ctx context.Context, webResultID string) (*models.PreLandingConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.cfg == nil {
		return nil, store.ErrNotFound
	}
	return f.cfg, nil
}

type fakeEmailStore struct {
	mu   sync.Mutex
	subs []models.EmailSubmission
	err  error
}

func (f *fakeEmailStore) Insert(ctx context.Context, sub models.EmailSubmission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.subs = append(f.subs, sub)
	return nil
}

func (f *fakeEmailStore) submissions() []models.EmailSubmission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.EmailSubmission(nil), f.subs...)
}

type trackedEvent struct {
	eventType models.EventType
	opts      tracking.TrackOptions
}

type fakeTracker struct {
	mu     sync.Mutex
	events []trackedEvent
}

func (f *fakeTracker) EnsureSession(ctx context.Context, info tracking.ClientInfo) string {
	if info.SessionID != "" {
		return info.SessionID
	}
	return "SID-generated"
}

func (f *fakeTracker) Track(info tracking.ClientInfo, eventType models.EventType, opts tracking.TrackOptions) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, trackedEvent{eventType: eventType, opts: opts})
}

func (f *fakeTracker) byType(eventType models.EventType) []trackedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []trackedEvent
	for _, e := range f.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

var testResult = models.WebResult{
	ID:              "wr-1",
	RelatedSearchID: "rs-1",
	Name:            "Acme",
	URL:             "https://acme.example.com/landing",
	Title:           "Acme - Official Site",
	IsSponsored:     true,
	Position:        1,
}

var testClient = tracking.ClientInfo{SessionID: "SID-abc", RemoteIP: "203.0.113.7"}

func TestClickWithoutConfigNavigatesDirectly(t *testing.T) {
	tracker := &fakeTracker{}
	m := funnel.NewManager(&fakeConfigStore{}, &fakeEmailStore{}, tracker)
	defer m.Close()

	outcome := m.Click(context.Background(), testClient, testResult, "rs-1")

	assert.Equal(t, funnel.ActionNavigate, outcome.Action)
	assert.Equal(t, testResult.URL, outcome.URL)
	assert.Empty(t, outcome.FunnelID)

	clicks := tracker.byType(models.EventWebResultClick)
	require.Len(t, clicks, 1)
	assert.Equal(t, "wr-1", clicks[0].opts.WebResultID)
	assert.Equal(t, "rs-1", clicks[0].opts.RelatedSearchID)
	assert.Empty(t, tracker.byType(models.EventVisitNowClick))
}

func TestClickWithFailedLookupNavigatesDirectly(t *testing.T) {
	tracker := &fakeTracker{}
	configs := &fakeConfigStore{err: errors.New("connection refused")}
	m := funnel.NewManager(configs, &fakeEmailStore{}, tracker)
	defer m.Close()

	outcome := m.Click(context.Background(), testClient, testResult, "rs-1")

	assert.Equal(t, funnel.ActionNavigate, outcome.Action)
	assert.Equal(t, testResult.URL, outcome.URL)
	require.Len(t, tracker.byType(models.EventWebResultClick), 1)
}

func TestClickWithZeroCountdownIsImmediatelyVisitable(t *testing.T) {
	tracker := &fakeTracker{}
	configs := &fakeConfigStore{cfg: &models.PreLandingConfig{WebResultID: "wr-1", CountdownSeconds: 0}}
	m := funnel.NewManager(configs, &fakeEmailStore{}, tracker)
	defer m.Close()

	outcome := m.Click(context.Background(), testClient, testResult, "rs-1")
	require.Equal(t, funnel.ActionPreLanding, outcome.Action)
	require.NotEmpty(t, outcome.FunnelID)
	assert.Equal(t, 0, outcome.Remaining)

	url, err := m.Visit(context.Background(), outcome.FunnelID)
	require.NoError(t, err)
	assert.Equal(t, testResult.URL, url)

	require.Len(t, tracker.byType(models.EventVisitNowClick), 1)

	// The instance is gone once the visit completes.
	_, err = m.Visit(context.Background(), outcome.FunnelID)
	assert.ErrorIs(t, err, funnel.ErrNotFound)
}

func TestVisitBlockedWhileCountdownRuns(t *testing.T) {
	tracker := &fakeTracker{}
	configs := &fakeConfigStore{cfg: &models.PreLandingConfig{WebResultID: "wr-1", CountdownSeconds: 60}}
	m := funnel.NewManager(configs, &fakeEmailStore{}, tracker)
	defer m.Close()

	outcome := m.Click(context.Background(), testClient, testResult, "rs-1")
	require.Equal(t, funnel.ActionPreLanding, outcome.Action)
	assert.Equal(t, 60, outcome.Remaining)

	_, err := m.Visit(context.Background(), outcome.FunnelID)
	assert.ErrorIs(t, err, funnel.ErrCountdownActive)
	assert.Empty(t, tracker.byType(models.EventVisitNowClick))
}

func TestCountdownReachesZero(t *testing.T) {
	tracker := &fakeTracker{}
	configs := &fakeConfigStore{cfg: &models.PreLandingConfig{WebResultID: "wr-1", CountdownSeconds: 3}}
	m := funnel.NewManager(configs, &fakeEmailStore{}, tracker, funnel.WithTick(5*time.Millisecond))
	defer m.Close()

	outcome := m.Click(context.Background(), testClient, testResult, "rs-1")
	require.Equal(t, funnel.ActionPreLanding, outcome.Action)

	require.Eventually(t, func() bool {
		remaining, err := m.Remaining(outcome.FunnelID)
		return err == nil && remaining == 0
	}, time.Second, 5*time.Millisecond)

	url, err := m.Visit(context.Background(), outcome.FunnelID)
	require.NoError(t, err)
	assert.Equal(t, testResult.URL, url)
}

func TestEmailGateFlow(t *testing.T) {
	tracker := &fakeTracker{}
	emails := &fakeEmailStore{}
	configs := &fakeConfigStore{cfg: &models.PreLandingConfig{
		WebResultID:      "wr-1",
		RequireEmail:     true,
		CountdownSeconds: 0,
	}}
	m := funnel.NewManager(configs, emails, tracker)
	defer m.Close()

	outcome := m.Click(context.Background(), testClient, testResult, "rs-1")
	require.Equal(t, funnel.ActionEmailGate, outcome.Action)
	require.NotEmpty(t, outcome.FunnelID)

	// Visiting straight from the gate is invalid.
	_, err := m.Visit(context.Background(), outcome.FunnelID)
	assert.ErrorIs(t, err, funnel.ErrWrongPhase)

	next, err := m.SubmitEmail(context.Background(), outcome.FunnelID, "visitor@example.com")
	require.NoError(t, err)
	assert.Equal(t, funnel.ActionPreLanding, next.Action)

	subs := emails.submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "visitor@example.com", subs[0].Email)
	assert.Equal(t, "SID-abc", subs[0].SessionID)
	assert.Equal(t, "wr-1", subs[0].WebResultID)
	require.Len(t, tracker.byType(models.EventEmailSubmitted), 1)

	url, err := m.Visit(context.Background(), outcome.FunnelID)
	require.NoError(t, err)
	assert.Equal(t, testResult.URL, url)
}

func TestEmailGateRejectsEmptyEmail(t *testing.T) {
	tracker := &fakeTracker{}
	configs := &fakeConfigStore{cfg: &models.PreLandingConfig{WebResultID: "wr-1", RequireEmail: true}}
	m := funnel.NewManager(configs, &fakeEmailStore{}, tracker)
	defer m.Close()

	outcome := m.Click(context.Background(), testClient, testResult, "rs-1")

	_, err := m.SubmitEmail(context.Background(), outcome.FunnelID, "   ")
	assert.ErrorIs(t, err, funnel.ErrEmptyEmail)
	assert.Empty(t, tracker.byType(models.EventEmailSubmitted))
}

func TestEmailGateStaysOnFailedPersist(t *testing.T) {
	tracker := &fakeTracker{}
	emails := &fakeEmailStore{err: errors.New("insert failed")}
	configs := &fakeConfigStore{cfg: &models.PreLandingConfig{WebResultID: "wr-1", RequireEmail: true}}
	m := funnel.NewManager(configs, emails, tracker)
	defer m.Close()

	outcome := m.Click(context.Background(), testClient, testResult, "rs-1")

	_, err := m.SubmitEmail(context.Background(), outcome.FunnelID, "visitor@example.com")
	require.Error(t, err)
	assert.Empty(t, tracker.byType(models.EventEmailSubmitted))

	// Still in the gate: once the store recovers the retry goes through.
	emails.err = nil
	next, err := m.SubmitEmail(context.Background(), outcome.FunnelID, "visitor@example.com")
	require.NoError(t, err)
	assert.Equal(t, funnel.ActionPreLanding, next.Action)
}

func TestSubmitEmailOnPreLandingIsWrongPhase(t *testing.T) {
	tracker := &fakeTracker{}
	configs := &fakeConfigStore{cfg: &models.PreLandingConfig{WebResultID: "wr-1", CountdownSeconds: 10}}
	m := funnel.NewManager(configs, &fakeEmailStore{}, tracker)
	defer m.Close()

	outcome := m.Click(context.Background(), testClient, testResult, "rs-1")
	require.Equal(t, funnel.ActionPreLanding, outcome.Action)

	_, err := m.SubmitEmail(context.Background(), outcome.FunnelID, "visitor@example.com")
	assert.ErrorIs(t, err, funnel.ErrWrongPhase)
}

func TestVisitUsesConfiguredTargetURL(t *testing.T) {
	tracker := &fakeTracker{}
	configs := &fakeConfigStore{cfg: &models.PreLandingConfig{
		WebResultID: "wr-1",
		TargetURL:   "https://tracked.example.com/offer",
	}}
	m := funnel.NewManager(configs, &fakeEmailStore{}, tracker)
	defer m.Close()

	outcome := m.Click(context.Background(), testClient, testResult, "rs-1")

	url, err := m.Visit(context.Background(), outcome.FunnelID)
	require.NoError(t, err)
	assert.Equal(t, "https://tracked.example.com/offer", url)
}

func TestCancelDiscardsInstance(t *testing.T) {
	tracker := &fakeTracker{}
	configs := &fakeConfigStore{cfg: &models.PreLandingConfig{WebResultID: "wr-1", CountdownSeconds: 30}}
	m := funnel.NewManager(configs, &fakeEmailStore{}, tracker)
	defer m.Close()

	outcome := m.Click(context.Background(), testClient, testResult, "rs-1")
	m.Cancel(outcome.FunnelID)

	_, err := m.Remaining(outcome.FunnelID)
	assert.ErrorIs(t, err, funnel.ErrNotFound)

	// Cancelling twice, or cancelling an unknown id, is fine.
	m.Cancel(outcome.FunnelID)
	m.Cancel("no-such-funnel")

	assert.Empty(t, tracker.byType(models.EventVisitNowClick))
}
