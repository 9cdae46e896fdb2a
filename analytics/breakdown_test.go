package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataorbit/api/analytics"
	"dataorbit/api/models"
)

func TestAggregateCountsTotalsAndUniqueIPs(t *testing.T) {
	rows := []models.ClickRow{
		{EntityID: "blog-a", IPAddress: "1.1.1.1"},
		{EntityID: "blog-a", IPAddress: "1.1.1.1"},
		{EntityID: "blog-a", IPAddress: "2.2.2.2"},
		{EntityID: "blog-b", IPAddress: "3.3.3.3"},
	}
	names := map[string]string{"blog-a": "First Post", "blog-b": "Second Post"}

	result := analytics.Aggregate(rows, names)

	require.Len(t, result, 2)
	assert.Equal(t, analytics.BreakdownRow{
		EntityID:     "blog-a",
		Name:         "First Post",
		TotalClicks:  3,
		UniqueClicks: 2,
	}, result[0])
	assert.Equal(t, analytics.BreakdownRow{
		EntityID:     "blog-b",
		Name:         "Second Post",
		TotalClicks:  1,
		UniqueClicks: 1,
	}, result[1])
}

func TestAggregateDropsRowsWithoutEntityID(t *testing.T) {
	rows := []models.ClickRow{
		{EntityID: "", IPAddress: "1.1.1.1"},
		{EntityID: "rs-1", IPAddress: "1.1.1.1"},
	}

	result := analytics.Aggregate(rows, nil)

	require.Len(t, result, 1)
	assert.Equal(t, "rs-1", result[0].EntityID)
}

func TestAggregateSortsByTotalDescending(t *testing.T) {
	rows := []models.ClickRow{
		{EntityID: "low", IPAddress: "1.1.1.1"},
		{EntityID: "high", IPAddress: "1.1.1.1"},
		{EntityID: "high", IPAddress: "2.2.2.2"},
		{EntityID: "high", IPAddress: "3.3.3.3"},
	}

	result := analytics.Aggregate(rows, nil)

	require.Len(t, result, 2)
	assert.Equal(t, "high", result[0].EntityID)
	assert.Equal(t, "low", result[1].EntityID)
}

func TestAggregateNameFallsBackToEntityID(t *testing.T) {
	rows := []models.ClickRow{{EntityID: "orphan-id", IPAddress: "1.1.1.1"}}

	result := analytics.Aggregate(rows, map[string]string{})

	require.Len(t, result, 1)
	assert.Equal(t, "orphan-id", result[0].Name)
}

func TestAggregateIgnoresEmptyIPsForUniqueness(t *testing.T) {
	rows := []models.ClickRow{
		{EntityID: "blog-a", IPAddress: ""},
		{EntityID: "blog-a", IPAddress: ""},
		{EntityID: "blog-a", IPAddress: "1.1.1.1"},
	}

	result := analytics.Aggregate(rows, nil)

	require.Len(t, result, 1)
	assert.Equal(t, 3, result[0].TotalClicks)
	assert.Equal(t, 1, result[0].UniqueClicks)
}

func TestAggregateEmptyInput(t *testing.T) {
	assert.Empty(t, analytics.Aggregate(nil, nil))
}
