package selector

import "github.com/sourin00/adaptive-load-balancer/internal/pool"

// asiaPacific and europe are the country-code buckets §4.2 routes to
// backend index 0 and 1 respectively; everything else (including lookup
// failure) goes to index 2.
var asiaPacific = map[string]bool{
	"IN": true, "CN": true, "JP": true, "KR": true, "AU": true,
	"SG": true, "TH": true, "VN": true, "MY": true, "PH": true, "ID": true,
}

var europe = map[string]bool{
	"FR": true, "DE": true, "IT": true, "ES": true, "NL": true, "BE": true,
	"PL": true, "SE": true, "FI": true, "IE": true, "DK": true, "PT": true, "AT": true,
}

// GeoCountryIndex maps a country code to the backend index §4.2 names.
// Exported separately from GeoAwareSelect so tests can exercise the routing table
// without a pool.
func GeoCountryIndex(countryCode string) int {
	switch {
	case asiaPacific[countryCode]:
		return 0
	case europe[countryCode]:
		return 1
	default:
		return 2
	}
}

// GeoAwareSelect returns the backend at GeoCountryIndex(countryCode), clamped
// into the pool's bounds so a pool smaller than 3 backends degrades
// gracefully instead of panicking.
func GeoAwareSelect(p *pool.Pool, countryCode string) *pool.Backend {
	n := p.Len()
	if n == 0 {
		return nil
	}
	idx := GeoCountryIndex(countryCode)
	if idx >= n {
		idx = n - 1
	}
	return p.At(idx)
}
