// Package geo resolves the caller's public IP and an IP's country through
// two unauthenticated best-effort HTTP services. Failures never propagate:
// lookups degrade to the "unknown" / "Unknown" sentinels the rest of the
// tracking pipeline expects.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"dataorbit/api/database"
)

const (
	// UnknownIP is recorded when the public IP cannot be resolved.
	UnknownIP = "unknown"
	// UnknownCountry is recorded when the country cannot be resolved.
	UnknownCountry = "Unknown"

	defaultIPLookupURL      = "https://api.ipify.org?format=json"
	defaultCountryLookupURL = "https://ipapi.co"

	countryCacheTTL = 24 * time.Hour
)

type Client struct {
	httpClient       *http.Client
	ipLookupURL      string
	countryLookupURL string
	cache            *database.RedisClient
}

// NewClient builds a resolver. Lookup endpoints can be overridden through
// IP_LOOKUP_URL and COUNTRY_LOOKUP_URL (tests point them at local servers).
// cache may be nil.
func NewClient(cache *database.RedisClient) *Client {
	c := &Client{
		httpClient:       &http.Client{Timeout: 5 * time.Second},
		ipLookupURL:      defaultIPLookupURL,
		countryLookupURL: defaultCountryLookupURL,
		cache:            cache,
	}
	if v := os.Getenv("IP_LOOKUP_URL"); v != "" {
		c.ipLookupURL = v
	}
	if v := os.Getenv("COUNTRY_LOOKUP_URL"); v != "" {
		c.countryLookupURL = v
	}
	return c
}

// PublicIP fetches the caller's public IP from the lookup service. Returns
// UnknownIP on any failure.
func (c *Client) PublicIP(ctx context.Context) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ipLookupURL, nil)
	if err != nil {
		return UnknownIP
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Msg("public IP lookup failed")
		return UnknownIP
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Debug().Int("status", resp.StatusCode).Msg("public IP lookup returned non-200")
		return UnknownIP
	}

	var payload struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.IP == "" {
		return UnknownIP
	}
	return payload.IP
}

// Country resolves a country name for an IP, returning UnknownCountry on
// failure or for unusable addresses. Results are cached: the lookup service
// is rate-limit-unaware and the same visitor IP repeats on every event.
func (c *Client) Country(ctx context.Context, ip string) string {
	if ip == "" || ip == UnknownIP {
		return UnknownCountry
	}

	cacheKey := "geo:country:" + ip
	var cached string
	if found, err := c.cache.Get(ctx, cacheKey, &cached); err == nil && found && cached != "" {
		return cached
	}

	url := fmt.Sprintf("%s/%s/country_name/", strings.TrimRight(c.countryLookupURL, "/"), ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return UnknownCountry
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("ip", ip).Msg("country lookup failed")
		return UnknownCountry
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UnknownCountry
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return UnknownCountry
	}
	country := strings.TrimSpace(string(body))
	if country == "" {
		return UnknownCountry
	}

	if err := c.cache.Set(ctx, cacheKey, country, countryCacheTTL); err != nil {
		log.Debug().Err(err).Msg("failed to cache country lookup")
	}
	return country
}

// ClientIP picks the best IP for an incoming request: the transport-level
// remote address when it is a usable public address, otherwise the external
// lookup (covers local dev behind loopback and LAN-side proxies handing us
// RFC1918 addresses).
func (c *Client) ClientIP(ctx context.Context, remoteIP string) string {
	if remoteIP != "" {
		if parsed := net.ParseIP(remoteIP); parsed != nil &&
			!parsed.IsLoopback() && !parsed.IsUnspecified() &&
			!parsed.IsPrivate() && !parsed.IsLinkLocalUnicast() {
			return remoteIP
		}
	}
	return c.PublicIP(ctx)
}
