// Package analytics turns the raw event log into the admin click
// breakdowns and dashboard counters. Aggregation is a pure transform over
// an immutable event snapshot: re-running it on the same input yields the
// same output.
package analytics

import (
	"sort"

	"dataorbit/api/models"
)

// BreakdownRow is one entity's click totals.
type BreakdownRow struct {
	EntityID     string `json:"entityId"`
	Name         string `json:"name"`
	TotalClicks  int    `json:"totalClicks"`
	UniqueClicks int    `json:"uniqueClicks"`
}

// Aggregate groups click rows by entity id: total row count plus distinct
// non-empty IPs per entity, sorted by total descending. Rows with no entity
// id are dropped. Names resolves entity ids to display titles; unresolved
// ids fall back to the raw id.
func Aggregate(rows []models.ClickRow, names map[string]string) []BreakdownRow {
	type group struct {
		total int
		ips   map[string]struct{}
	}
	groups := make(map[string]*group)
	var order []string

	for _, row := range rows {
		if row.EntityID == "" {
			continue
		}
		g, ok := groups[row.EntityID]
		if !ok {
			g = &group{ips: make(map[string]struct{})}
			groups[row.EntityID] = g
			order = append(order, row.EntityID)
		}
		g.total++
		if row.IPAddress != "" {
			g.ips[row.IPAddress] = struct{}{}
		}
	}

	result := make([]BreakdownRow, 0, len(groups))
	for _, id := range order {
		g := groups[id]
		name, ok := names[id]
		if !ok {
			name = id
		}
		result = append(result, BreakdownRow{
			EntityID:     id,
			Name:         name,
			TotalClicks:  g.total,
			UniqueClicks: len(g.ips),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TotalClicks > result[j].TotalClicks
	})
	return result
}
