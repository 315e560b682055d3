// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating request
// bodies, path values and query parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// maxTopN bounds the n parameter of the ranking endpoints.
const maxTopN = 100

// decodeJSON decodes the body into dst, rejecting unknown fields and
// trailing data. Ledger validation errors raised while decoding (a bad
// amount or date) are returned as is so they keep their classification.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) || errors.Is(err, core.ErrInvalidDate) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadInput)
		}
		return fmt.Errorf("%w: %v", errBadInput, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", errBadInput)
	}
	return nil
}

// pathID parses the int64 path value name.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadInput, name, raw)
	}
	return id, nil
}

// pathMonth parses a YYYY-MM path value.
func pathMonth(r *http.Request, name string) (core.Month, error) {
	return core.ParseMonth(r.PathValue(name))
}

// ParseMonthQuery reads a YYYY-MM parameter, defaulting to def when absent.
func ParseMonthQuery(query url.Values, key string, def core.Month) (core.Month, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	return core.ParseMonth(v)
}

// ParseRangeQuery reads a date range from fromKey/toKey. When both are
// absent it falls back to the named period parameter ("period"), and then
// to def. A single bound without the other is an error.
func ParseRangeQuery(query url.Values, fromKey, toKey string, today core.Date, def core.Range) (core.Range, error) {
	from := strings.TrimSpace(query.Get(fromKey))
	to := strings.TrimSpace(query.Get(toKey))
	switch {
	case from != "" && to != "":
		return core.ParseRange(from, to)
	case from != "" || to != "":
		return core.Range{}, fmt.Errorf("%w: %s and %s must be given together", errBadInput, fromKey, toKey)
	}

	if p := strings.TrimSpace(query.Get("period")); p != "" {
		period, err := core.ParsePeriod(p)
		if err != nil {
			return core.Range{}, fmt.Errorf("%w: %v", errBadInput, err)
		}
		return period.Range(today), nil
	}
	return def, nil
}

// ParseIntQuery reads an integer in [lo, hi], defaulting to def when absent.
func ParseIntQuery(query url.Values, key string, def, lo, hi int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%w: %s must be an integer between %d and %d", errBadInput, key, lo, hi)
	}
	return n, nil
}

// ParseGranularityQuery reads the series bucket size, daily by default.
func ParseGranularityQuery(query url.Values) (core.Granularity, error) {
	g, err := core.ParseGranularity(query.Get("granularity"))
	if err != nil {
		return g, fmt.Errorf("%w: %v", errBadInput, err)
	}
	return g, nil
}
