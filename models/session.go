package models

import "time"

// TrackingSession identifies one browsing context. Created once, never
// mutated; the session id is generated client-side and uniqueness is only
// probabilistic (the insert is idempotent, not enforced beyond that).
type TrackingSession struct {
	SessionID string    `json:"sessionId"`
	IPAddress string    `json:"ipAddress"`
	Device    string    `json:"device"`
	Browser   string    `json:"browser"`
	Country   string    `json:"country"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

type SessionStats struct {
	TotalSessions  int `json:"totalSessions"`
	UniqueSessions int `json:"uniqueSessions"`
	UniqueIPs      int `json:"uniqueIPs"`
}
