// Package geoip wraps a MaxMind GeoIP2 country database and the
// private/loopback remapping rule the geo_aware selection algorithm needs
// (§4.2, §1 "Geo-IP country lookup — an opaque IP → country_code
// function").
package geoip

import (
	"fmt"
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// DB wraps a MaxMind country database, adapted from the pack's
// Srskip-shadowgate/internal/geoip/geoip.go reader.
type DB struct {
	reader   *geoip2.Reader
	mu       sync.RWMutex
	fallback net.IP // configured dev-mode public IP substituted for private/loopback addresses
}

// Open opens the GeoIP2 country database at path. fallbackIP is the
// configured public IP private/loopback client addresses are remapped to,
// so geo_aware is testable without a real public source IP.
func Open(path, fallbackIP string) (*DB, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	return &DB{reader: reader, fallback: net.ParseIP(fallbackIP)}, nil
}

// Close releases the underlying mmap'd database.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.reader != nil {
		return db.reader.Close()
	}
	return nil
}

// isPrivate reports whether ip falls in one of the ranges §4.2 calls out
// for dev-mode remapping: 10/8, 172.16/12, 192.168/16, 127/8.
func isPrivate(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if ip.IsLoopback() {
		return true
	}
	for _, cidr := range []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"} {
		_, block, err := net.ParseCIDR(cidr)
		if err == nil && block.Contains(ip) {
			return true
		}
	}
	return false
}

// CountryCode looks up the ISO country code for ipStr. Private/loopback
// addresses are remapped to the configured fallback public IP first. Any
// lookup failure (bad address, no fallback configured, DB miss) returns ""
// — the geo_aware algorithm treats an empty code as "unknown", routing to
// index 2 per §4.2.
func (db *DB) CountryCode(ipStr string) string {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}
	if isPrivate(ip) {
		if db.fallback == nil {
			return ""
		}
		ip = db.fallback
	}

	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.reader == nil {
		return ""
	}
	record, err := db.reader.Country(ip)
	if err != nil {
		return ""
	}
	return record.Country.IsoCode
}
