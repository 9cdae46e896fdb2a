// Package tracking implements session identity and the fire-and-forget
// event emitter. Every event is an independent at-most-once write: no
// retries, no buffering, and no failure ever reaches the caller.
package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"dataorbit/api/models"
)

// SessionStore persists tracking sessions (insert-if-absent).
type SessionStore interface {
	CreateIfAbsent(ctx context.Context, session models.TrackingSession) error
}

// EventStore appends immutable event rows.
type EventStore interface {
	Insert(ctx context.Context, event models.TrackingEvent) error
}

// GeoResolver resolves client attributes; it never fails, it degrades to
// sentinel values instead.
type GeoResolver interface {
	ClientIP(ctx context.Context, remoteIP string) string
	Country(ctx context.Context, ip string) string
}

// ClientInfo carries the per-request client attributes the emitter needs.
type ClientInfo struct {
	SessionID string
	UserAgent string
	RemoteIP  string
	UTMSource string
	PageURL   string
}

// TrackOptions links an event to at most one content entity.
type TrackOptions struct {
	BlogID          string
	RelatedSearchID string
	WebResultID     string
	PageURL         string
}

type Service struct {
	sessions SessionStore
	events   EventStore
	geo      GeoResolver

	// ensured remembers session ids this process has already written, so
	// repeat calls skip the insert entirely.
	ensured sync.Map

	wg sync.WaitGroup
}

func NewService(sessions SessionStore, events EventStore, geo GeoResolver) *Service {
	return &Service{
		sessions: sessions,
		events:   events,
		geo:      geo,
	}
}

// EnsureSession guarantees a session row exists for the client and returns
// its id, generating one when the client did not supply any. Geo failures
// degrade to sentinels and a failed insert is logged, never surfaced:
// session id issuance must not block on anything.
func (s *Service) EnsureSession(ctx context.Context, info ClientInfo) string {
	id := info.SessionID
	if id == "" {
		id = NewSessionID()
	}

	if _, ok := s.ensured.Load(id); ok {
		return id
	}

	ip := s.geo.ClientIP(ctx, info.RemoteIP)
	session := models.TrackingSession{
		SessionID: id,
		IPAddress: ip,
		Device:    DeviceClass(info.UserAgent),
		Browser:   BrowserFamily(info.UserAgent),
		Country:   s.geo.Country(ctx, ip),
		Source:    NormalizeSource(info.UTMSource),
	}

	if err := s.sessions.CreateIfAbsent(ctx, session); err != nil {
		log.Error().Err(err).Str("session_id", id).Msg("failed to persist tracking session")
		return id
	}

	s.ensured.Store(id, struct{}{})
	return id
}

// Track records one event in a detached task. It never blocks the caller
// and never propagates failure; client attributes are re-resolved per event
// so rows capture point-in-time state, not session-creation-time state.
func (s *Service) Track(info ClientInfo, eventType models.EventType, opts TrackOptions) {
	if !eventType.Valid() {
		log.Warn().Str("event_type", string(eventType)).Msg("dropping event with unknown type")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("panic in event tracking")
			}
		}()

		// Detached from the request context: the write may outlive the
		// triggering request, which is accepted.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.trackNow(ctx, info, eventType, opts)
	}()
}

func (s *Service) trackNow(ctx context.Context, info ClientInfo, eventType models.EventType, opts TrackOptions) {
	sessionID := s.EnsureSession(ctx, info)

	pageURL := opts.PageURL
	if pageURL == "" {
		pageURL = info.PageURL
	}

	ip := s.geo.ClientIP(ctx, info.RemoteIP)
	event := models.TrackingEvent{
		ID:              uuid.New().String(),
		SessionID:       sessionID,
		EventType:       eventType,
		BlogID:          opts.BlogID,
		RelatedSearchID: opts.RelatedSearchID,
		WebResultID:     opts.WebResultID,
		IPAddress:       ip,
		Device:          DeviceClass(info.UserAgent),
		Country:         s.geo.Country(ctx, ip),
		Source:          NormalizeSource(info.UTMSource),
		PageURL:         pageURL,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.events.Insert(ctx, event); err != nil {
		log.Error().Err(err).
			Str("event_type", string(eventType)).
			Str("session_id", sessionID).
			Msg("failed to record tracking event")
	}
}

// Flush waits for in-flight event writes. Used on shutdown and in tests.
func (s *Service) Flush() {
	s.wg.Wait()
}
