// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip resolves visitor addresses to countries for the event log,
// using a MaxMind GeoLite2-Country database.
package geoip

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/olegiv/folio-go/internal/util"
)

// CountryLocal is reported for private and loopback addresses.
const CountryLocal = "LOCAL"

// Lookup handles IP to country lookup. The zero value is usable and
// reports no countries until Init loads a database.
type Lookup struct {
	db        *maxminddb.Reader
	dbPath    string
	dbModTime time.Time
	mu        sync.RWMutex
}

// geoRecord matches the GeoLite2-Country database structure.
type geoRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// NewLookup creates a new GeoIP lookup instance.
func NewLookup() *Lookup {
	return &Lookup{}
}

// Init loads the database from dbPath. An empty path disables lookups.
func (g *Lookup) Init(dbPath string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.dbPath = dbPath
	if dbPath == "" {
		return nil
	}

	_, err := g.loadDatabase()
	return err
}

// loadDatabase loads the database when the file changed since the last load.
// Caller must hold g.mu write lock.
func (g *Lookup) loadDatabase() (bool, error) {
	info, err := os.Stat(g.dbPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("GeoIP database not found: %s", g.dbPath)
		}
		return false, fmt.Errorf("GeoIP database stat error: %w", err)
	}

	if g.db != nil && info.ModTime().Equal(g.dbModTime) {
		return false, nil
	}

	db, err := maxminddb.Open(g.dbPath)
	if err != nil {
		return false, fmt.Errorf("opening GeoIP database: %w", err)
	}

	// Keep serving from the old reader until the new one opened.
	if g.db != nil {
		_ = g.db.Close()
	}
	g.db = db
	g.dbModTime = info.ModTime()

	return true, nil
}

// Reload reopens the database if the file was replaced. It reports whether
// a new database was loaded. Called from the scheduler.
func (g *Lookup) Reload() (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.dbPath == "" {
		return false, nil
	}
	return g.loadDatabase()
}

// Country returns the ISO 3166-1 alpha-2 code for ip, CountryLocal for
// private addresses, or "" when unknown.
func (g *Lookup) Country(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	if util.IsLocalIP(ip) {
		return CountryLocal
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.db == nil {
		return ""
	}

	var record geoRecord
	if err := g.db.Lookup(parsed, &record); err != nil {
		return ""
	}
	return record.Country.ISOCode
}

// IsEnabled reports whether a database is loaded.
func (g *Lookup) IsEnabled() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.db != nil
}

// Close closes the GeoIP database.
func (g *Lookup) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db == nil {
		return nil
	}
	err := g.db.Close()
	g.db = nil
	return err
}

// CountryName returns the English name for a country code.
func CountryName(code string) string {
	switch code {
	case "":
		return "Unknown"
	case CountryLocal:
		return "Local Network"
	}

	region, err := language.ParseRegion(code)
	if err != nil {
		return code
	}
	if name := display.English.Regions().Name(region); name != "" {
		return name
	}
	return code
}
