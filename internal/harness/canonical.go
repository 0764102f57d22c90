package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// marshalCanonical produces deterministic JSON for golden comparison:
// object keys sorted, strings NFC-normalized, no HTML escaping, and no
// floats or nulls (both would make traces environment-dependent).
func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return marshalCanonicalString(val)
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case int:
		return []byte(fmt.Sprintf("%d", val)), nil
	case int64:
		return []byte(fmt.Sprintf("%d", val)), nil
	case uint32:
		return []byte(fmt.Sprintf("%d", val)), nil
	case uint64:
		return []byte(fmt.Sprintf("%d", val)), nil
	case []any:
		return marshalCanonicalArray(val)
	case map[string]any:
		return marshalCanonicalObject(val)
	default:
		return nil, fmt.Errorf("unsupported type %T in canonical JSON", v)
	}
}

func marshalCanonicalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	// Encode appends a newline.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func marshalCanonicalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := marshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalCanonicalObject(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value of %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
