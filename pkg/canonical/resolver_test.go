package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	resolver, err := NewResolver("Europe/Paris", nil, false)
	require.NoError(t, err)

	t.Run("empty identifier resolves to default zone", func(t *testing.T) {
		assert.Equal(t, "Europe/Paris", resolver.Resolve(""))
	})

	t.Run("vendor alias maps to IANA zone", func(t *testing.T) {
		assert.Equal(t, "Europe/Paris", resolver.Resolve("Romance Standard Time"))
		assert.Equal(t, "Europe/Warsaw", resolver.Resolve("Central European Standard Time"))
	})

	t.Run("unknown identifier passes through unchanged", func(t *testing.T) {
		assert.Equal(t, "Mars/Olympus_Mons", resolver.Resolve("Mars/Olympus_Mons"))
	})

	t.Run("configured aliases extend and override the built-in table", func(t *testing.T) {
		r, err := NewResolver("Europe/Paris", map[string]string{
			"My Custom Zone":        "Asia/Tokyo",
			"Romance Standard Time": "Europe/Brussels",
		}, false)
		require.NoError(t, err)
		assert.Equal(t, "Asia/Tokyo", r.Resolve("My Custom Zone"))
		assert.Equal(t, "Europe/Brussels", r.Resolve("Romance Standard Time"))
	})
}

func TestLocation(t *testing.T) {
	t.Run("known zone loads", func(t *testing.T) {
		resolver, err := NewResolver("Europe/Paris", nil, false)
		require.NoError(t, err)

		loc, err := resolver.Location("W. Europe Standard Time")
		require.NoError(t, err)
		assert.Equal(t, "Europe/Berlin", loc.String())
	})

	t.Run("lenient mode falls back to default location", func(t *testing.T) {
		resolver, err := NewResolver("Europe/Paris", nil, false)
		require.NoError(t, err)

		loc, err := resolver.Location("Mars/Olympus_Mons")
		require.NoError(t, err)
		assert.Equal(t, "Europe/Paris", loc.String())
	})

	t.Run("strict mode fails on unknown zone", func(t *testing.T) {
		resolver, err := NewResolver("Europe/Paris", nil, true)
		require.NoError(t, err)

		_, err = resolver.Location("Mars/Olympus_Mons")
		assert.Error(t, err)
	})
}

func TestNewResolverRejectsInvalidDefault(t *testing.T) {
	_, err := NewResolver("Not/AZone", nil, false)
	assert.Error(t, err)
}

func TestDefaultLocation(t *testing.T) {
	resolver, err := NewResolver("Europe/Warsaw", nil, false)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Warsaw", resolver.DefaultZone())
	assert.Equal(t, "Europe/Warsaw", resolver.DefaultLocation().String())
}
