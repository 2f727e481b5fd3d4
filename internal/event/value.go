package event

import (
	"encoding/base64"
	"fmt"
	"time"
)

// Kind identifies which variant of a Value is active.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindDouble
	KindTimestamp
	KindString
	KindBytes
	KindReference
	KindGeoPoint
	KindArray
	KindMap
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindTimestamp:
		return "timestamp"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindReference:
		return "reference"
	case KindGeoPoint:
		return "geopoint"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// Value is a tagged union over the document field value types. Exactly one
// variant is active, selected by Kind. Array and Map variants nest recursively.
type Value struct {
	Kind   Kind
	Bool   bool
	Int    int64
	Double float64
	Time   time.Time
	Str    string
	Bytes  []byte
	Ref    string
	Geo    GeoPoint
	Array  []Value
	Map    map[string]Value
}

// NullValue returns the null variant.
func NullValue() Value { return Value{Kind: KindNull} }

// BoolValue returns a bool variant.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// IntValue returns an integer variant.
func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }

// DoubleValue returns a double variant.
func DoubleValue(f float64) Value { return Value{Kind: KindDouble, Double: f} }

// StringValue returns a string variant.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// Interface converts the value into plain Go types: nil, bool, int64, float64,
// time.Time, string, []byte, GeoPoint, []any or map[string]any.
func (v Value) Interface() any {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindDouble:
		return v.Double
	case KindTimestamp:
		return v.Time
	case KindString:
		return v.Str
	case KindBytes:
		return v.Bytes
	case KindReference:
		return v.Ref
	case KindGeoPoint:
		return v.Geo
	case KindArray:
		out := make([]any, len(v.Array))
		for i, e := range v.Array {
			out[i] = e.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.Map))
		for k, e := range v.Map {
			out[k] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

// valueFromJSON converts a single document field in the REST wire encoding
// (a one-entry object such as {"stringValue": "x"}) into a Value.
func valueFromJSON(raw any) (Value, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Value{}, fmt.Errorf("field value is %T, expected object", raw)
	}
	for key, inner := range obj {
		switch key {
		case "nullValue":
			return NullValue(), nil
		case "booleanValue":
			b, ok := inner.(bool)
			if !ok {
				return Value{}, fmt.Errorf("booleanValue holds %T", inner)
			}
			return BoolValue(b), nil
		case "integerValue":
			// Encoded as a decimal string on the wire.
			switch n := inner.(type) {
			case string:
				var i int64
				if _, err := fmt.Sscan(n, &i); err != nil {
					return Value{}, fmt.Errorf("integerValue %q: %w", n, err)
				}
				return IntValue(i), nil
			case float64:
				return IntValue(int64(n)), nil
			default:
				return Value{}, fmt.Errorf("integerValue holds %T", inner)
			}
		case "doubleValue":
			f, ok := inner.(float64)
			if !ok {
				return Value{}, fmt.Errorf("doubleValue holds %T", inner)
			}
			return DoubleValue(f), nil
		case "timestampValue":
			s, ok := inner.(string)
			if !ok {
				return Value{}, fmt.Errorf("timestampValue holds %T", inner)
			}
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return Value{}, fmt.Errorf("timestampValue %q: %w", s, err)
			}
			return Value{Kind: KindTimestamp, Time: t}, nil
		case "stringValue":
			s, ok := inner.(string)
			if !ok {
				return Value{}, fmt.Errorf("stringValue holds %T", inner)
			}
			return StringValue(s), nil
		case "bytesValue":
			s, ok := inner.(string)
			if !ok {
				return Value{}, fmt.Errorf("bytesValue holds %T", inner)
			}
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return Value{}, fmt.Errorf("bytesValue: %w", err)
			}
			return Value{Kind: KindBytes, Bytes: b}, nil
		case "referenceValue":
			s, ok := inner.(string)
			if !ok {
				return Value{}, fmt.Errorf("referenceValue holds %T", inner)
			}
			return Value{Kind: KindReference, Ref: s}, nil
		case "geoPointValue":
			pt, ok := inner.(map[string]any)
			if !ok {
				return Value{}, fmt.Errorf("geoPointValue holds %T", inner)
			}
			lat, _ := pt["latitude"].(float64)
			lng, _ := pt["longitude"].(float64)
			return Value{Kind: KindGeoPoint, Geo: GeoPoint{Latitude: lat, Longitude: lng}}, nil
		case "arrayValue":
			arr, ok := inner.(map[string]any)
			if !ok {
				return Value{}, fmt.Errorf("arrayValue holds %T", inner)
			}
			elems, _ := arr["values"].([]any)
			out := make([]Value, 0, len(elems))
			for _, e := range elems {
				v, err := valueFromJSON(e)
				if err != nil {
					return Value{}, err
				}
				out = append(out, v)
			}
			return Value{Kind: KindArray, Array: out}, nil
		case "mapValue":
			m, ok := inner.(map[string]any)
			if !ok {
				return Value{}, fmt.Errorf("mapValue holds %T", inner)
			}
			fields, _ := m["fields"].(map[string]any)
			out, err := fieldsFromJSON(fields)
			if err != nil {
				return Value{}, err
			}
			return Value{Kind: KindMap, Map: out}, nil
		}
	}
	return Value{}, fmt.Errorf("no recognized value variant in %v", obj)
}

// fieldsFromJSON converts a REST-encoded "fields" object into a Value map.
func fieldsFromJSON(raw map[string]any) (map[string]Value, error) {
	out := make(map[string]Value, len(raw))
	for name, fv := range raw {
		v, err := valueFromJSON(fv)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}
