package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"sort"
	"time"
)

// Encoder appends tagged values to an in-memory buffer. Zero value is
// ready to use.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns a ready-to-use Encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Bytes returns the encoded buffer so far. The returned slice aliases
// the Encoder's internal buffer.
func (e *Encoder) Bytes() []byte { return e.buf.Bytes() }

func (e *Encoder) writeTag(t tag) { e.buf.WriteByte(byte(t)) }

func (e *Encoder) writeUvarint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	e.buf.Write(tmp[:n])
}

func (e *Encoder) writeVarint(v int64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutVarint(tmp[:], v)
	e.buf.Write(tmp[:n])
}

// Encode appends v's tagged encoding to the buffer. Encode returns an
// error if v contains a type it does not know how to represent (channels,
// funcs, unsafe pointers) -- these are programmer errors, not data errors.
func (e *Encoder) Encode(v any) error {
	return e.encodeValue(reflect.ValueOf(v))
}

func (e *Encoder) encodeValue(v reflect.Value) error {
	if !v.IsValid() {
		e.writeTag(tagNil)
		return nil
	}

	if t, ok := v.Interface().(time.Time); ok {
		e.writeTag(tagTime)
		b, err := t.UTC().MarshalBinary()
		if err != nil {
			return fmt.Errorf("codec: failed to encode time: %w", err)
		}
		e.writeUvarint(uint64(len(b)))
		e.buf.Write(b)
		return nil
	}

	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			e.writeTag(tagNil)
			return nil
		}
		return e.encodeValue(v.Elem())

	case reflect.Bool:
		e.writeTag(tagBool)
		if v.Bool() {
			e.buf.WriteByte(1)
		} else {
			e.buf.WriteByte(0)
		}
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.writeTag(tagInt)
		e.writeVarint(v.Int())
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		e.writeTag(tagUint)
		e.writeUvarint(v.Uint())
		return nil

	case reflect.Float32, reflect.Float64:
		e.writeTag(tagFloat64)
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v.Float()))
		e.buf.Write(tmp[:])
		return nil

	case reflect.String:
		e.writeTag(tagString)
		s := v.String()
		e.writeUvarint(uint64(len(s)))
		e.buf.WriteString(s)
		return nil

	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			e.writeTag(tagBytes)
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			e.writeUvarint(uint64(len(b)))
			e.buf.Write(b)
			return nil
		}
		e.writeTag(tagSlice)
		e.writeUvarint(uint64(v.Len()))
		for i := 0; i < v.Len(); i++ {
			if err := e.encodeValue(v.Index(i)); err != nil {
				return err
			}
		}
		return nil

	case reflect.Map:
		e.writeTag(tagMap)
		keys := v.MapKeys()
		// Go map iteration order is randomized; sort by each key's own
		// encoding so two encoders given the same map always agree,
		// independent of map internals. Callers needing true insertion-
		// order semantics (e.g. fields.VersionedMap) encode an ordered
		// slice of pairs instead of a native map.
		encodedKeys := make([][]byte, len(keys))
		for i, k := range keys {
			sub := NewEncoder()
			if err := sub.encodeValue(k); err != nil {
				return err
			}
			encodedKeys[i] = sub.Bytes()
		}
		order := make([]int, len(keys))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(i, j int) bool {
			return bytes.Compare(encodedKeys[order[i]], encodedKeys[order[j]]) < 0
		})

		e.writeUvarint(uint64(len(keys)))
		for _, idx := range order {
			e.buf.Write(encodedKeys[idx])
			if err := e.encodeValue(v.MapIndex(keys[idx])); err != nil {
				return err
			}
		}
		return nil

	case reflect.Struct:
		e.writeTag(tagStruct)
		t := v.Type()
		n := t.NumField()
		for i := 0; i < n; i++ {
			f := t.Field(i)
			if f.PkgPath != "" { // unexported
				continue
			}
			if err := e.encodeValue(v.Field(i)); err != nil {
				return fmt.Errorf("codec: field %s: %w", f.Name, err)
			}
		}
		return nil

	case reflect.Interface:
		if v.IsNil() {
			e.writeTag(tagNil)
			return nil
		}
		return e.encodeValue(v.Elem())

	default:
		return fmt.Errorf("codec: cannot encode kind %s", v.Kind())
	}
}
