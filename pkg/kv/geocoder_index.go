package kv

import (
	"fmt"

	"lintang/floodnav/pkg/geocoder"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"
)

var geocoderEntriesKey = []byte("geocoder/entries")

// SaveGeocoderEntries simpan entry geocoder bersama snapshot graph, supaya server yang start dari
// snapshot tetap bisa geocoding tanpa parse ulang file osm.
func (k *KVDB) SaveGeocoderEntries(entries []geocoder.Entry) error {
	val, err := encode(entries)
	if err != nil {
		return fmt.Errorf("encode geocoder entries: %w", err)
	}
	if err := k.db.Set(geocoderEntriesKey, val, pebble.Sync); err != nil {
		return fmt.Errorf("save geocoder entries: %w", err)
	}
	k.log.Info("geocoder entries saved", zap.Int("entries", len(entries)), zap.Int("bytes", len(val)))
	return nil
}

func (k *KVDB) LoadGeocoderEntries() ([]geocoder.Entry, error) {
	entries := []geocoder.Entry{}
	if err := k.get(geocoderEntriesKey, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
