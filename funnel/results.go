package funnel

import (
	"fmt"
	"os"
	"sort"

	"dataorbit/api/models"
)

const defaultMaskHost = "results.dataorbit.io"

// SortResults orders listings for display: sponsored results always ahead
// of organic ones, position ascending within each group.
func SortResults(results []models.WebResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].IsSponsored != results[j].IsSponsored {
			return results[i].IsSponsored
		}
		return results[i].Position < results[j].Position
	})
}

// MaskHost returns the host used for synthesized display urls.
func MaskHost() string {
	if host := os.Getenv("DISPLAY_MASK_HOST"); host != "" {
		return host
	}
	return defaultMaskHost
}

// DisplayURLs synthesizes the masked urls shown in listings: a
// deterministic "host-index" sequence over the sorted results, so sponsored
// results occupy the lowest indices. The true destination never appears
// here; it is only used at navigation time.
func DisplayURLs(sorted []models.WebResult, host string) []string {
	urls := make([]string, len(sorted))
	for i := range sorted {
		urls[i] = fmt.Sprintf("%s-%d", host, i+1)
	}
	return urls
}
