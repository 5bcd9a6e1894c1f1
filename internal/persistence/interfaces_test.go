package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeRangeOrdering(t *testing.T) {
	tests := []struct {
		name  string
		tr    TimeRange
		valid bool
	}{
		{
			name:  "valid_range",
			tr:    TimeRange{From: time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC), To: time.Date(2026, 7, 1, 11, 0, 0, 0, time.UTC)},
			valid: true,
		},
		{
			name:  "same_time",
			tr:    TimeRange{From: time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC), To: time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)},
			valid: true,
		},
		{
			name:  "zero_times",
			tr:    TimeRange{},
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.valid {
				assert.True(t, tt.tr.To.After(tt.tr.From) || tt.tr.To.Equal(tt.tr.From))
			}
		})
	}
}

func TestHealthCheckStructure(t *testing.T) {
	healthCheck := HealthCheck{
		Healthy: true,
		Errors:  []string{},
		ConnectionPool: map[string]int{
			"open": 5,
			"idle": 10,
		},
		LastCheck:      time.Now(),
		ResponseTimeMS: 45,
	}

	assert.True(t, healthCheck.Healthy)
	assert.Empty(t, healthCheck.Errors)
	assert.Contains(t, healthCheck.ConnectionPool, "open")
	assert.Greater(t, healthCheck.ResponseTimeMS, int64(0))
}

func TestRepositoryWrapsEventStore(t *testing.T) {
	var repo Repository
	assert.Nil(t, repo.Events, "zero-value Repository has no event store wired")
}
