/*-------------------------------------------------------------------------
 *
 * jsonb_test.go
 *    Tests for the JSONB map codec and append-only merge
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/db/jsonb_test.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONBMapMergedIsAppendOnly(t *testing.T) {
	base := JSONBMap{"a": "1", "b": "2"}

	merged := base.Merged(map[string]interface{}{"b": "updated", "c": "3"})

	/* every previously present key survives */
	assert.Equal(t, "1", merged["a"])
	assert.Equal(t, "updated", merged["b"])
	assert.Equal(t, "3", merged["c"])

	/* the receiver is never mutated */
	assert.Equal(t, "2", base["b"])
	assert.NotContains(t, base, "c")
}

func TestJSONBMapMergedNilInputs(t *testing.T) {
	var empty JSONBMap
	merged := empty.Merged(map[string]interface{}{"k": "v"})
	assert.Equal(t, "v", merged["k"])

	merged = JSONBMap{"k": "v"}.Merged(nil)
	assert.Equal(t, "v", merged["k"])
}

func TestJSONBMapScanRoundTrip(t *testing.T) {
	src := JSONBMap{"count": float64(3), "name": "x"}

	value, err := src.Value()
	require.NoError(t, err)

	var dst JSONBMap
	require.NoError(t, dst.Scan(value))
	assert.Equal(t, src, dst)
}

func TestJSONBMapScanNil(t *testing.T) {
	var m JSONBMap
	require.NoError(t, m.Scan(nil))
	assert.NotNil(t, m.ToMap())
}
