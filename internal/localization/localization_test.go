package localization_test

import (
	"testing"

	"civicbot/backend/internal/localization"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetKnownKey(t *testing.T) {
	loc, err := localization.New()
	require.NoError(t, err)

	assert.Equal(t, "Новая", loc.Get("ru", "status_new"))
	assert.Equal(t, "New", loc.Get("en", "status_new"))
}

func TestGetFallsBackToDefaultLanguage(t *testing.T) {
	loc, err := localization.New()
	require.NoError(t, err)

	// Unknown language falls back to the Russian catalog.
	assert.Equal(t, "Новая", loc.Get("de", "status_new"))
}

func TestGetUnknownKeyReturnsKey(t *testing.T) {
	loc, err := localization.New()
	require.NoError(t, err)

	assert.Equal(t, "no_such_key", loc.Get("ru", "no_such_key"))
}

func TestGetf(t *testing.T) {
	loc, err := localization.New()
	require.NoError(t, err)

	got := loc.Getf("ru", "registered", "42")
	assert.Contains(t, got, "#42")
}
