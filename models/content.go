package models

import "time"

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}

type Blog struct {
	ID            string    `json:"id"`
	SerialNumber  int       `json:"serialNumber"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Content       string    `json:"content"`
	FeaturedImage string    `json:"featuredImage,omitempty"`
	Author        string    `json:"author"`
	AuthorBio     string    `json:"authorBio,omitempty"`
	AuthorImage   string    `json:"authorImage,omitempty"`
	CategoryID    string    `json:"categoryId,omitempty"`
	Status        string    `json:"status"`
	PublishedAt   time.Time `json:"publishedAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

const (
	BlogStatusDraft     = "draft"
	BlogStatusPublished = "published"
)

// RelatedSearch is an operator-curated search prompt attached to a blog.
// WebResultPage is the public page number the prompt links to (/wr=<n>).
type RelatedSearch struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	BlogID        string    `json:"blogId"`
	Position      int       `json:"position"`
	WebResultPage int       `json:"webResultPage"`
	CreatedAt     time.Time `json:"createdAt"`
}

// WebResult is one operator-defined listing on a results page. URL is the
// true destination and is deliberately excluded from JSON: listings only
// ever show a synthesized masked display URL.
type WebResult struct {
	ID              string    `json:"id"`
	RelatedSearchID string    `json:"relatedSearchId"`
	Name            string    `json:"name"`
	Logo            string    `json:"logo,omitempty"`
	URL             string    `json:"-"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	IsSponsored     bool      `json:"isSponsored"`
	Position        int       `json:"position"`
	CreatedAt       time.Time `json:"createdAt"`
}

// PreLandingConfig is the operator-styled interstitial for one web result.
type PreLandingConfig struct {
	ID               string    `json:"id"`
	WebResultID      string    `json:"webResultId"`
	LogoURL          string    `json:"logoUrl,omitempty"`
	LogoSize         int       `json:"logoSize"`
	MainImageURL     string    `json:"mainImageUrl,omitempty"`
	Headline         string    `json:"headline,omitempty"`
	Description      string    `json:"description,omitempty"`
	HeadlineFontSize int       `json:"headlineFontSize"`
	HeadlineColor    string    `json:"headlineColor"`
	DescriptionColor string    `json:"descriptionColor"`
	ButtonText       string    `json:"buttonText"`
	ButtonColor      string    `json:"buttonColor"`
	BackgroundColor  string    `json:"backgroundColor"`
	BackgroundImage  string    `json:"backgroundImage,omitempty"`
	CountdownSeconds int       `json:"countdownSeconds"`
	RequireEmail     bool      `json:"requireEmail"`
	TargetURL        string    `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
}

type EmailSubmission struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"sessionId"`
	WebResultID string    `json:"webResultId,omitempty"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"createdAt"`
}
