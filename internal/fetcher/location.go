// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetcher

import (
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"slices"
	"strconv"
	"strings"
)

const (
	paramLat   = "lat"
	paramLon   = "lon"
	paramQuery = "q"
	paramKey   = "appid"
)

// ParseLocation turns "lat,lon" into coordinate parameters and anything else
// into a place name query.
func ParseLocation(location string) map[string]string {
	if lat, lon, ok := strings.Cut(location, ","); ok {
		lat, lon = strings.TrimSpace(lat), strings.TrimSpace(lon)
		if isFloat(lat) && isFloat(lon) {
			return map[string]string{paramLat: lat, paramLon: lon}
		}
	}
	return map[string]string{paramQuery: location}
}

func isFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// BuildCacheKey is "location:k1=v1&k2=v2" with parameters in key order, so
// insertion order never changes the key.
func BuildCacheKey(location string, params map[string]string) string {
	pairs := make([]string, 0, len(params))
	for _, k := range slices.Sorted(maps.Keys(params)) {
		pairs = append(pairs, k+"="+params[k])
	}
	return location + ":" + strings.Join(pairs, "&")
}

// cacheParams is params with the api key replaced by a fingerprint. Entries
// stay separate per key without the key being written to the cache.
func cacheParams(params map[string]string) map[string]string {
	key, ok := params[paramKey]
	if !ok {
		return params
	}
	out := maps.Clone(params)
	sum := sha256.Sum256([]byte(key))
	out[paramKey] = "sha256:" + hex.EncodeToString(sum[:6])
	return out
}
