package intake

import (
	"regexp"
	"strconv"
)

// Coordinate patterns accepted from free text: a bare "lat, lon" pair
// (comma or whitespace separated) and a maps link carrying "q=lat,lon".
var (
	coordPairRe  = regexp.MustCompile(`([-+]?\d{1,3}\.\d+)[,\s]+([-+]?\d{1,3}\.\d+)`)
	coordQueryRe = regexp.MustCompile(`[?&]q=([-+]?\d{1,3}\.\d+),([-+]?\d{1,3}\.\d+)`)
)

// ParseCoordinates extracts a latitude/longitude pair from user text.
// The direct pair pattern is tried first, then the query-parameter pattern;
// the first in-bounds match wins. A pure function: same text, same result.
func ParseCoordinates(text string) (lat, lon float64, ok bool) {
	if text == "" {
		return 0, 0, false
	}
	for _, re := range []*regexp.Regexp{coordPairRe, coordQueryRe} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		lat, errLat := strconv.ParseFloat(m[1], 64)
		lon, errLon := strconv.ParseFloat(m[2], 64)
		if errLat != nil || errLon != nil {
			continue
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			continue
		}
		return lat, lon, true
	}
	return 0, 0, false
}
