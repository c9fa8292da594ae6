package intake_test

import (
	"testing"

	"civicbot/backend/internal/intake"

	"github.com/stretchr/testify/assert"
)

func TestParseCoordinatesPair(t *testing.T) {
	lat, lon, ok := intake.ParseCoordinates("41.3111, 69.2797")
	assert.True(t, ok)
	assert.InDelta(t, 41.3111, lat, 1e-9)
	assert.InDelta(t, 69.2797, lon, 1e-9)
}

func TestParseCoordinatesNegative(t *testing.T) {
	lat, lon, ok := intake.ParseCoordinates("-33.8688 151.2093")
	assert.True(t, ok)
	assert.InDelta(t, -33.8688, lat, 1e-9)
	assert.InDelta(t, 151.2093, lon, 1e-9)
}

func TestParseCoordinatesMapLink(t *testing.T) {
	lat, lon, ok := intake.ParseCoordinates("https://maps.google.com/?q=41.3111,69.2797")
	assert.True(t, ok)
	assert.InDelta(t, 41.3111, lat, 1e-9)
	assert.InDelta(t, 69.2797, lon, 1e-9)
}

func TestParseCoordinatesOutOfRange(t *testing.T) {
	_, _, ok := intake.ParseCoordinates("200.0, 69.0")
	assert.False(t, ok)

	_, _, ok = intake.ParseCoordinates("41.0, 181.0")
	assert.False(t, ok)
}

func TestParseCoordinatesProse(t *testing.T) {
	for _, text := range []string{
		"",
		"пропустить",
		"у дома 12, подъезд 3",
		"дом 41",
	} {
		_, _, ok := intake.ParseCoordinates(text)
		assert.False(t, ok, "text %q must not parse", text)
	}
}

// Parsing twice must give the same result; the parser keeps no state.
func TestParseCoordinatesIdempotent(t *testing.T) {
	lat1, lon1, ok1 := intake.ParseCoordinates("41.3111, 69.2797")
	lat2, lon2, ok2 := intake.ParseCoordinates("41.3111, 69.2797")
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, lat1, lat2)
	assert.Equal(t, lon1, lon2)
}
