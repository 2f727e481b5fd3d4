package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueInterface(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	v := Value{
		Kind: KindMap,
		Map: map[string]Value{
			"active":  BoolValue(true),
			"count":   IntValue(7),
			"score":   DoubleValue(0.5),
			"when":    {Kind: KindTimestamp, Time: ts},
			"name":    StringValue("x"),
			"absent":  NullValue(),
			"tags":    {Kind: KindArray, Array: []Value{StringValue("a"), IntValue(1)}},
			"ref":     {Kind: KindReference, Ref: "projects/p/databases/d/documents/c/d1"},
			"origin":  {Kind: KindGeoPoint, Geo: GeoPoint{Latitude: 1.5, Longitude: -2.5}},
			"payload": {Kind: KindBytes, Bytes: []byte{0x01, 0x02}},
		},
	}

	got, ok := v.Interface().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, got["active"])
	assert.Equal(t, int64(7), got["count"])
	assert.Equal(t, 0.5, got["score"])
	assert.Equal(t, ts, got["when"])
	assert.Equal(t, "x", got["name"])
	assert.Nil(t, got["absent"])
	assert.Equal(t, []any{"a", int64(1)}, got["tags"])
	assert.Equal(t, "projects/p/databases/d/documents/c/d1", got["ref"])
	assert.Equal(t, GeoPoint{Latitude: 1.5, Longitude: -2.5}, got["origin"])
	assert.Equal(t, []byte{0x01, 0x02}, got["payload"])
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "string", KindString.String())
	assert.Equal(t, "map", KindMap.String())
	assert.Equal(t, "null", KindNull.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
