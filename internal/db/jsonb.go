/*-------------------------------------------------------------------------
 *
 * jsonb.go
 *    JSONB map type for Basecamp models
 *
 * Provides a map type that scans from and serializes to PostgreSQL jsonb
 * columns, plus the append-only merge used for instance working data.
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/db/jsonb.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

/* JSONBMap maps a jsonb column to a Go map */
type JSONBMap map[string]interface{}

/* Value implements driver.Valuer */
func (m JSONBMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("jsonb marshal failed: %w", err)
	}
	return data, nil
}

/* Scan implements sql.Scanner */
func (m *JSONBMap) Scan(src interface{}) error {
	if src == nil {
		*m = make(JSONBMap)
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("jsonb scan failed: unsupported source type %T", src)
	}

	if len(data) == 0 {
		*m = make(JSONBMap)
		return nil
	}

	return json.Unmarshal(data, m)
}

/* ToMap returns the underlying map, never nil */
func (m JSONBMap) ToMap() map[string]interface{} {
	if m == nil {
		return make(map[string]interface{})
	}
	return map[string]interface{}(m)
}

/* FromMap wraps a plain map as a JSONBMap */
func FromMap(m map[string]interface{}) JSONBMap {
	if m == nil {
		return make(JSONBMap)
	}
	return JSONBMap(m)
}

/*
 * Merged returns a copy of m with every key of src added or overwritten.
 * There is deliberately no way to remove a key through this operation:
 * working data is append/overwrite-only, and this is the single merge
 * entry point that enforces it.
 */
func (m JSONBMap) Merged(src map[string]interface{}) JSONBMap {
	out := make(JSONBMap, len(m)+len(src))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range src {
		out[k] = v
	}
	return out
}
