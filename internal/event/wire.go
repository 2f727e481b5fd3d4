package event

import (
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// Binary document change record framing. The record carries an optional old
// document state and the new state; only the new state matters here.
const (
	fieldChangeNewValue = 1
	fieldChangeOldValue = 2

	fieldDocName       = 1
	fieldDocFields     = 2
	fieldDocCreateTime = 3
	fieldDocUpdateTime = 4

	fieldMapEntryKey   = 1
	fieldMapEntryValue = 2

	// Value oneof discriminators.
	fieldValueBool      = 1
	fieldValueInt       = 2
	fieldValueDouble    = 3
	fieldValueReference = 5
	fieldValueMap       = 6
	fieldValueGeoPoint  = 8
	fieldValueArray     = 9
	fieldValueTimestamp = 10
	fieldValueNull      = 11
	fieldValueString    = 17
	fieldValueBytes     = 18

	fieldTimestampSeconds = 1
	fieldTimestampNanos   = 2

	fieldGeoLatitude  = 1
	fieldGeoLongitude = 2
)

// wireField is one decoded top-level field of a message: scalar holds the
// numeric bits for varint/fixed fields, payload the contents of bytes fields.
type wireField struct {
	num     protowire.Number
	typ     protowire.Type
	scalar  uint64
	payload []byte
}

// parseWireRecord decodes the protobuf encoding of a document change record.
// The new document state must be present.
func parseWireRecord(raw []byte) (*DocumentChangeEvent, error) {
	var newState []byte
	if err := walkFields(raw, func(f wireField) error {
		if f.num == fieldChangeNewValue && f.typ == protowire.BytesType {
			newState = f.payload
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("document change record: %w", err)
	}
	if newState == nil {
		return nil, fmt.Errorf("document change record has no new document state")
	}
	return parseWireDocument(newState)
}

// parseWireDocument decodes a document message: path, fields and timestamps.
func parseWireDocument(raw []byte) (*DocumentChangeEvent, error) {
	var name string
	fields := make(map[string]Value)
	var createTime, updateTime *time.Time

	err := walkFields(raw, func(f wireField) error {
		switch f.num {
		case fieldDocName:
			if f.typ != protowire.BytesType {
				return fmt.Errorf("document name has wire type %v", f.typ)
			}
			name = string(f.payload)
		case fieldDocFields:
			if f.typ != protowire.BytesType {
				return fmt.Errorf("document fields entry has wire type %v", f.typ)
			}
			key, val, err := parseWireMapEntry(f.payload)
			if err != nil {
				return err
			}
			fields[key] = val
		case fieldDocCreateTime:
			if f.typ == protowire.BytesType {
				if t, err := parseWireTimestamp(f.payload); err == nil {
					createTime = &t
				}
			}
		case fieldDocUpdateTime:
			if f.typ == protowire.BytesType {
				if t, err := parseWireTimestamp(f.payload); err == nil {
					updateTime = &t
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("document state: %w", err)
	}

	collection, documentID, err := ParseDocumentPath(name)
	if err != nil {
		return nil, err
	}
	return &DocumentChangeEvent{
		DocumentID: documentID,
		Collection: collection,
		FullPath:   name,
		Fields:     fields,
		CreateTime: createTime,
		UpdateTime: updateTime,
	}, nil
}

// parseWireMapEntry decodes one fields map entry into its key and value.
func parseWireMapEntry(raw []byte) (string, Value, error) {
	var key string
	val := NullValue()
	err := walkFields(raw, func(f wireField) error {
		switch f.num {
		case fieldMapEntryKey:
			if f.typ != protowire.BytesType {
				return fmt.Errorf("map entry key has wire type %v", f.typ)
			}
			key = string(f.payload)
		case fieldMapEntryValue:
			if f.typ != protowire.BytesType {
				return fmt.Errorf("map entry value has wire type %v", f.typ)
			}
			v, err := parseWireValue(f.payload)
			if err != nil {
				return err
			}
			val = v
		}
		return nil
	})
	if err != nil {
		return "", Value{}, err
	}
	return key, val, nil
}

// parseWireValue walks the value oneof discriminator and recurses into the
// array and map variants.
func parseWireValue(raw []byte) (Value, error) {
	val := NullValue()
	err := walkFields(raw, func(f wireField) error {
		switch f.num {
		case fieldValueNull:
			val = NullValue()
		case fieldValueBool:
			val = BoolValue(f.scalar != 0)
		case fieldValueInt:
			val = IntValue(int64(f.scalar))
		case fieldValueDouble:
			val = DoubleValue(math.Float64frombits(f.scalar))
		case fieldValueTimestamp:
			t, err := parseWireTimestamp(f.payload)
			if err != nil {
				return err
			}
			val = Value{Kind: KindTimestamp, Time: t}
		case fieldValueString:
			val = StringValue(string(f.payload))
		case fieldValueBytes:
			b := make([]byte, len(f.payload))
			copy(b, f.payload)
			val = Value{Kind: KindBytes, Bytes: b}
		case fieldValueReference:
			val = Value{Kind: KindReference, Ref: string(f.payload)}
		case fieldValueGeoPoint:
			pt, err := parseWireGeoPoint(f.payload)
			if err != nil {
				return err
			}
			val = Value{Kind: KindGeoPoint, Geo: pt}
		case fieldValueArray:
			arr, err := parseWireArray(f.payload)
			if err != nil {
				return err
			}
			val = Value{Kind: KindArray, Array: arr}
		case fieldValueMap:
			m, err := parseWireMap(f.payload)
			if err != nil {
				return err
			}
			val = Value{Kind: KindMap, Map: m}
		}
		return nil
	})
	if err != nil {
		return Value{}, err
	}
	return val, nil
}

func parseWireArray(raw []byte) ([]Value, error) {
	var out []Value
	err := walkFields(raw, func(f wireField) error {
		if f.num == 1 && f.typ == protowire.BytesType {
			v, err := parseWireValue(f.payload)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

func parseWireMap(raw []byte) (map[string]Value, error) {
	out := make(map[string]Value)
	err := walkFields(raw, func(f wireField) error {
		if f.num == 1 && f.typ == protowire.BytesType {
			key, val, err := parseWireMapEntry(f.payload)
			if err != nil {
				return err
			}
			out[key] = val
		}
		return nil
	})
	return out, err
}

func parseWireTimestamp(raw []byte) (time.Time, error) {
	var seconds, nanos int64
	err := walkFields(raw, func(f wireField) error {
		switch f.num {
		case fieldTimestampSeconds:
			seconds = int64(f.scalar)
		case fieldTimestampNanos:
			nanos = int64(f.scalar)
		}
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(seconds, nanos).UTC(), nil
}

func parseWireGeoPoint(raw []byte) (GeoPoint, error) {
	var pt GeoPoint
	err := walkFields(raw, func(f wireField) error {
		switch f.num {
		case fieldGeoLatitude:
			pt.Latitude = math.Float64frombits(f.scalar)
		case fieldGeoLongitude:
			pt.Longitude = math.Float64frombits(f.scalar)
		}
		return nil
	})
	return pt, err
}

// walkFields iterates the top-level fields of one encoded message, calling fn
// for each. Unknown fields are consumed and skipped by the callers simply not
// matching their numbers.
func walkFields(raw []byte, fn func(f wireField) error) error {
	for len(raw) > 0 {
		num, typ, n := protowire.ConsumeTag(raw)
		if n < 0 {
			return protowire.ParseError(n)
		}
		raw = raw[n:]

		f := wireField{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return protowire.ParseError(n)
			}
			f.scalar = v
			raw = raw[n:]
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(raw)
			if n < 0 {
				return protowire.ParseError(n)
			}
			f.scalar = v
			raw = raw[n:]
		case protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(raw)
			if n < 0 {
				return protowire.ParseError(n)
			}
			f.scalar = uint64(v)
			raw = raw[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return protowire.ParseError(n)
			}
			f.payload = v
			raw = raw[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, raw)
			if n < 0 {
				return protowire.ParseError(n)
			}
			raw = raw[n:]
			continue
		}

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}
