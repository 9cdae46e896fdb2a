package tracking

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// Device classes and browser families recorded on sessions and events.
const (
	DeviceDesktop = "Desktop"
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"

	BrowserUnknown = "Unknown"

	// SourceDirect is recorded when no utm_source is present.
	SourceDirect = "direct"
)

// NewSessionID generates a session id from random bits plus a timestamp
// component: "SID-" + random base36 + unix-millis base36. Collisions are
// negligible but uniqueness is not enforced beyond the idempotent insert.
func NewSessionID() string {
	random := strconv.FormatUint(rand.Uint64(), 36)
	stamp := strconv.FormatInt(time.Now().UnixMilli(), 36)
	return "SID-" + random + stamp
}

// DeviceClass classifies a user agent by substring match, first match wins:
// mobile, then tablet, else Desktop.
func DeviceClass(userAgent string) string {
	ua := strings.ToLower(userAgent)
	if strings.Contains(ua, "mobile") {
		return DeviceMobile
	}
	if strings.Contains(ua, "tablet") {
		return DeviceTablet
	}
	return DeviceDesktop
}

// BrowserFamily resolves a browser by substring match in priority order
// Chrome, Firefox, Safari, Edge, defaulting to Unknown.
func BrowserFamily(userAgent string) string {
	ua := strings.ToLower(userAgent)
	for _, browser := range []string{"Chrome", "Firefox", "Safari", "Edge"} {
		if strings.Contains(ua, strings.ToLower(browser)) {
			return browser
		}
	}
	return BrowserUnknown
}

// NormalizeSource maps an absent utm_source to "direct".
func NormalizeSource(utmSource string) string {
	if utmSource == "" {
		return SourceDirect
	}
	return utmSource
}
