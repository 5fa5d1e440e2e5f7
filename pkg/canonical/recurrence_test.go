package canonical

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRule(t *testing.T) {
	t.Run("keys are sorted and upper-cased, values joined with commas", func(t *testing.T) {
		got := EncodeRule(map[string][]string{
			"interval": {"2"},
			"byday":    {"mo", "we"},
			"FREQ":     {"weekly"},
		})
		assert.Equal(t, "BYDAY=MO,WE;FREQ=WEEKLY;INTERVAL=2", got)
	})

	t.Run("identical mappings encode identically regardless of key casing", func(t *testing.T) {
		a := EncodeRule(map[string][]string{"freq": {"weekly"}, "byday": {"mo"}})
		b := EncodeRule(map[string][]string{"FREQ": {"WEEKLY"}, "BYDAY": {"MO"}})
		assert.Equal(t, a, b)
	})

	t.Run("bare-date UNTIL becomes midnight UTC compact form", func(t *testing.T) {
		got := EncodeRule(map[string][]string{
			"FREQ":  {"WEEKLY"},
			"UNTIL": {"20251231"},
		})
		assert.Equal(t, "FREQ=WEEKLY;UNTIL=20251231T000000Z", got)
	})

	t.Run("UTC date-time UNTIL is preserved", func(t *testing.T) {
		got := EncodeRule(map[string][]string{"UNTIL": {"20260305T120000Z"}})
		assert.Equal(t, "UNTIL=20260305T120000Z", got)
	})

	t.Run("naive date-time UNTIL is treated as UTC", func(t *testing.T) {
		got := EncodeRule(map[string][]string{"UNTIL": {"20260305T120000"}})
		assert.Equal(t, "UNTIL=20260305T120000Z", got)
	})

	t.Run("unparseable UNTIL passes through", func(t *testing.T) {
		got := EncodeRule(map[string][]string{"UNTIL": {"whenever"}})
		assert.Equal(t, "UNTIL=whenever", got)
	})

	t.Run("COUNT renders as a plain integer", func(t *testing.T) {
		got := EncodeRule(map[string][]string{"COUNT": {"010"}})
		assert.Equal(t, "COUNT=10", got)
	})
}

func TestEncodeDates(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	t.Run("all-day dates use VALUE=DATE encoding", func(t *testing.T) {
		got := EncodeDates("EXDATE", true, []time.Time{
			time.Date(2025, 9, 4, 0, 0, 0, 0, paris),
			time.Date(2025, 9, 18, 0, 0, 0, 0, paris),
		}, "Europe/Paris")
		assert.Equal(t, "EXDATE;VALUE=DATE:20250904,20250918", got)
	})

	t.Run("timed dates use local wall-clock text with TZID", func(t *testing.T) {
		got := EncodeDates("EXDATE", false, []time.Time{
			time.Date(2025, 9, 4, 14, 0, 0, 0, paris),
			time.Date(2025, 9, 18, 14, 0, 0, 0, paris),
		}, "Europe/Paris")
		assert.Equal(t, "EXDATE;TZID=Europe/Paris:20250904T140000,20250918T140000", got)
	})

	t.Run("RDATE uses the same shape", func(t *testing.T) {
		got := EncodeDates("RDATE", true, []time.Time{
			time.Date(2025, 12, 24, 0, 0, 0, 0, paris),
		}, "Europe/Paris")
		assert.Equal(t, "RDATE;VALUE=DATE:20251224", got)
	})
}

func TestValidateRule(t *testing.T) {
	assert.NoError(t, ValidateRule("FREQ=WEEKLY;UNTIL=20251231T000000Z"))
	assert.Error(t, ValidateRule("FREQ=SOMETIMES"))
}
