package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"time"
)

// Decoder reads tagged values back out of a buffer produced by Encoder.
type Decoder struct {
	buf *bytes.Reader
}

// NewDecoder wraps buf for decoding.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: bytes.NewReader(buf)}
}

func (d *Decoder) readTag() (tag, error) {
	b, err := d.buf.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("codec: failed to read tag: %w", err)
	}
	return tag(b), nil
}

func (d *Decoder) readUvarint() (uint64, error) {
	v, err := binary.ReadUvarint(d.buf)
	if err != nil {
		return 0, fmt.Errorf("codec: failed to read length: %w", err)
	}
	return v, nil
}

func (d *Decoder) readVarint() (int64, error) {
	v, err := binary.ReadVarint(d.buf)
	if err != nil {
		return 0, fmt.Errorf("codec: failed to read int: %w", err)
	}
	return v, nil
}

func (d *Decoder) readBytes(n uint64) ([]byte, error) {
	b := make([]byte, n)
	if n == 0 {
		return b, nil
	}
	if _, err := d.buf.Read(b); err != nil {
		return nil, fmt.Errorf("codec: failed to read %d bytes: %w", n, err)
	}
	return b, nil
}

// Decode reads the next tagged value into dst, which must be a non-nil
// pointer.
func (d *Decoder) Decode(dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("codec: Decode requires a non-nil pointer, got %T", dst)
	}
	return d.decodeValue(rv.Elem())
}

// decodeValue reads one tag and then the value body matching it.
func (d *Decoder) decodeValue(v reflect.Value) error {
	t, err := d.readTag()
	if err != nil {
		return err
	}
	return d.decodeBody(t, v)
}

// decodeBody decodes the value that follows a tag already read by the
// caller. Pointer allocation needs this split: by the time we know a
// field is non-nil we've already consumed its tag.
func (d *Decoder) decodeBody(t tag, v reflect.Value) error {
	if t == tagNil {
		v.Set(reflect.Zero(v.Type()))
		return nil
	}

	if v.Type() == reflect.TypeOf(time.Time{}) {
		if t != tagTime {
			return fmt.Errorf("codec: expected time tag, got %d", t)
		}
		n, err := d.readUvarint()
		if err != nil {
			return err
		}
		b, err := d.readBytes(n)
		if err != nil {
			return err
		}
		var out time.Time
		if err := out.UnmarshalBinary(b); err != nil {
			return fmt.Errorf("codec: failed to decode time: %w", err)
		}
		v.Set(reflect.ValueOf(out))
		return nil
	}

	switch v.Kind() {
	case reflect.Ptr:
		v.Set(reflect.New(v.Type().Elem()))
		return d.decodeBody(t, v.Elem())

	case reflect.Bool:
		if t != tagBool {
			return fmt.Errorf("codec: expected bool tag, got %d", t)
		}
		b, err := d.buf.ReadByte()
		if err != nil {
			return fmt.Errorf("codec: failed to read bool: %w", err)
		}
		v.SetBool(b != 0)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if t != tagInt {
			return fmt.Errorf("codec: expected int tag, got %d", t)
		}
		n, err := d.readVarint()
		if err != nil {
			return err
		}
		v.SetInt(n)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if t != tagUint {
			return fmt.Errorf("codec: expected uint tag, got %d", t)
		}
		n, err := d.readUvarint()
		if err != nil {
			return err
		}
		v.SetUint(n)
		return nil

	case reflect.Float32, reflect.Float64:
		if t != tagFloat64 {
			return fmt.Errorf("codec: expected float tag, got %d", t)
		}
		b, err := d.readBytes(8)
		if err != nil {
			return err
		}
		v.SetFloat(math.Float64frombits(binary.LittleEndian.Uint64(b)))
		return nil

	case reflect.String:
		if t != tagString {
			return fmt.Errorf("codec: expected string tag, got %d", t)
		}
		n, err := d.readUvarint()
		if err != nil {
			return err
		}
		b, err := d.readBytes(n)
		if err != nil {
			return err
		}
		v.SetString(string(b))
		return nil

	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			if t != tagBytes {
				return fmt.Errorf("codec: expected bytes tag, got %d", t)
			}
			n, err := d.readUvarint()
			if err != nil {
				return err
			}
			b, err := d.readBytes(n)
			if err != nil {
				return err
			}
			if v.Kind() == reflect.Array {
				reflect.Copy(v, reflect.ValueOf(b))
			} else {
				v.SetBytes(b)
			}
			return nil
		}

		if t != tagSlice {
			return fmt.Errorf("codec: expected slice tag, got %d", t)
		}
		n, err := d.readUvarint()
		if err != nil {
			return err
		}
		if v.Kind() == reflect.Slice {
			v.Set(reflect.MakeSlice(v.Type(), int(n), int(n)))
		}
		for i := 0; i < int(n); i++ {
			if err := d.decodeValue(v.Index(i)); err != nil {
				return err
			}
		}
		return nil

	case reflect.Map:
		if t != tagMap {
			return fmt.Errorf("codec: expected map tag, got %d", t)
		}
		n, err := d.readUvarint()
		if err != nil {
			return err
		}
		mt := v.Type()
		out := reflect.MakeMapWithSize(mt, int(n))
		for i := 0; i < int(n); i++ {
			key := reflect.New(mt.Key()).Elem()
			if err := d.decodeValue(key); err != nil {
				return err
			}
			val := reflect.New(mt.Elem()).Elem()
			if err := d.decodeValue(val); err != nil {
				return err
			}
			out.SetMapIndex(key, val)
		}
		v.Set(out)
		return nil

	case reflect.Struct:
		if t != tagStruct {
			return fmt.Errorf("codec: expected struct tag, got %d", t)
		}
		vt := v.Type()
		for i := 0; i < vt.NumField(); i++ {
			f := vt.Field(i)
			if f.PkgPath != "" {
				continue
			}
			if err := d.decodeValue(v.Field(i)); err != nil {
				return fmt.Errorf("codec: field %s: %w", f.Name, err)
			}
		}
		return nil

	default:
		return fmt.Errorf("codec: cannot decode into kind %s", v.Kind())
	}
}
