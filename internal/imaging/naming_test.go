package imaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, Name(0, "", ts), Name(0, "", ts))
	})

	t.Run("index selects label from catalog", func(t *testing.T) {
		assert.Equal(t, "Data Overview - 20250314_092653_0", Name(0, "", ts))
		assert.Equal(t, "Distribution Analysis - 20250314_092653_1", Name(1, "", ts))
	})

	t.Run("index wraps around catalog", func(t *testing.T) {
		assert.Equal(t, "Data Overview - 20250314_092653_10", Name(10, "", ts))
	})

	t.Run("hint overrides index label", func(t *testing.T) {
		name := Name(0, "computed a correlation analysis of both columns", ts)
		assert.Equal(t, "Correlation Analysis - 20250314_092653_0", name)
	})

	t.Run("hint match is case insensitive", func(t *testing.T) {
		name := Name(3, "TIME SERIES of monthly revenue", ts)
		assert.Equal(t, "Time Series - 20250314_092653_3", name)
	})

	t.Run("unrelated hint falls back to index", func(t *testing.T) {
		assert.Equal(t, "Trend Analysis - 20250314_092653_3", Name(3, "nothing relevant", ts))
	})

	t.Run("names unique within a batch", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 25; i++ {
			name := Name(i, "", ts)
			assert.False(t, seen[name], "duplicate name %q", name)
			seen[name] = true
		}
	})
}

func TestCatalog(t *testing.T) {
	assert.Len(t, Catalog(), 10)
}
