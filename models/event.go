package models

import "time"

// EventType enumerates the interaction events recorded by the funnel.
type EventType string

const (
	EventPageView           EventType = "page_view"
	EventBlogClick          EventType = "blog_click"
	EventRelatedSearchClick EventType = "related_search_click"
	EventWebResultClick     EventType = "web_result_click"
	EventVisitNowClick      EventType = "visit_now_click"
	EventEmailSubmitted     EventType = "email_submitted"
)

func (t EventType) Valid() bool {
	switch t {
	case EventPageView, EventBlogClick, EventRelatedSearchClick,
		EventWebResultClick, EventVisitNowClick, EventEmailSubmitted:
		return true
	default:
		return false
	}
}

// TrackingEvent is one immutable row in the append-only event log. At most
// one of the entity references is set, matching the event type.
type TrackingEvent struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"sessionId"`
	EventType       EventType `json:"eventType"`
	BlogID          string    `json:"blogId,omitempty"`
	RelatedSearchID string    `json:"relatedSearchId,omitempty"`
	WebResultID     string    `json:"webResultId,omitempty"`
	IPAddress       string    `json:"ipAddress"`
	Device          string    `json:"device"`
	Country         string    `json:"country"`
	Source          string    `json:"source"`
	PageURL         string    `json:"pageUrl"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ClickRow is the minimal projection the attribution aggregator works on.
type ClickRow struct {
	EntityID  string
	IPAddress string
}

type TopPathResult struct {
	PagePath string `json:"pagePath"`
	Count    uint64 `json:"count"`
}
