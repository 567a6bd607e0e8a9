package doctpl

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// Context is the flat binding context of one render: variable name to value.
// Scalars are strings, booleans, numbers or fmt.Stringer values. Table data
// sources are arrays of records.
type Context map[string]any

// Record is one element of a table data source.
type Record map[string]any

// Keys returns the names bound in the context.
func (c Context) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// has reports whether name is bound to a non-nil value. A typed nil such as
// (*decimal.Decimal)(nil) counts as unbound.
func (c Context) has(name string) bool {
	v, ok := c[name]
	return ok && !isNil(v)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// scalarString returns the string form of a scalar value. Numbers are written
// verbatim without grouping or rounding. ok is false for composite values.
func scalarString(v any) (s string, ok bool) {
	if isNil(v) {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	case fmt.Stringer:
		return x.String(), true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	}
	return "", false
}

// describe names the shape of v for TypeMismatchError.
func describe(v any) string {
	if isNil(v) {
		return "null"
	}
	if _, ok := scalarString(v); ok {
		return "scalar " + reflect.TypeOf(v).String()
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map:
		return "object"
	}
	return reflect.TypeOf(v).String()
}

// records converts a data source value into records. ok is false when v is
// not an array; elem is the index of the first element that is not a record.
func records(v any) (recs []Record, elem int, ok bool) {
	switch x := v.(type) {
	case []Record:
		return x, -1, true
	case []map[string]any:
		recs = make([]Record, len(x))
		for i, m := range x {
			recs[i] = Record(m)
		}
		return recs, -1, true
	case []any:
		recs = make([]Record, len(x))
		for i, e := range x {
			switch m := e.(type) {
			case Record:
				recs[i] = m
			case map[string]any:
				recs[i] = Record(m)
			default:
				return nil, i, true
			}
		}
		return recs, -1, true
	}
	if v == nil {
		return nil, -1, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, -1, false
	}
	// Typed slices of string-keyed maps, e.g. []map[string]string.
	recs = make([]Record, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		ev := rv.Index(i)
		if ev.Kind() == reflect.Interface {
			ev = ev.Elem()
		}
		if ev.Kind() != reflect.Map || ev.Type().Key().Kind() != reflect.String {
			return nil, i, true
		}
		rec := make(Record, ev.Len())
		iter := ev.MapRange()
		for iter.Next() {
			rec[iter.Key().String()] = iter.Value().Interface()
		}
		recs[i] = rec
	}
	return recs, -1, true
}

// Canonical returns a deterministic encoding of the context for use as a
// cache key. Scalars are written as their dynamic type and string form, so
// Stringers with unexported state stay distinct; map keys are sorted and
// nil values, typed or not, encode alike.
func (c Context) Canonical() ([]byte, error) {
	var buf bytes.Buffer
	if err := canonical(&buf, map[string]any(c)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func canonical(buf *bytes.Buffer, v any) error {
	if isNil(v) {
		buf.WriteString("null")
		return nil
	}
	if s, ok := scalarString(v); ok {
		fmt.Fprintf(buf, "%T(%s)", v, strconv.Quote(s))
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("doctpl: unsupported map key type %s", rv.Type().Key())
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.Quote(k))
			buf.WriteByte(':')
			if err := canonical(buf, rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case reflect.Slice, reflect.Array:
		buf.WriteByte('[')
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := canonical(buf, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}
	return fmt.Errorf("doctpl: unsupported value of type %T", v)
}
