// Package codec implements the canonical JSON codec. Every persisted
// artifact and every content hash in the pipeline is defined over these
// bytes: objects with lexicographically sorted keys, two-space indentation,
// and finite floats printed without scientific notation.
package codec

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"vacuum-landscape/core/determinism"
	"vacuum-landscape/internal/errors"
)

// Marshal serializes a value into canonical JSON bytes.
func Marshal(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		// encoding/json rejects NaN and Inf, which is exactly the contract.
		return nil, errors.Wrap(errors.FamilySerde, "json-serialize", "value is not canonical-JSON representable", err)
	}
	tree, err := decodeTree(raw)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, tree, 0); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Unmarshal parses canonical (or plain) JSON bytes into v.
func Unmarshal(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(errors.FamilySerde, "json-deserialize", "failed to parse JSON payload", err)
	}
	return nil
}

// StableHash returns the hex SHA-256 of the canonical JSON encoding of v.
func StableHash(v interface{}) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return determinism.HashHex(data), nil
}

// MustStableHash is StableHash for values known to be representable.
func MustStableHash(v interface{}) string {
	hash, err := StableHash(v)
	if err != nil {
		panic(err)
	}
	return hash
}

func decodeTree(raw []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree interface{}
	if err := dec.Decode(&tree); err != nil {
		return nil, errors.Wrap(errors.FamilySerde, "json-deserialize", "failed to re-read encoded payload", err)
	}
	return tree, nil
}

func writeCanonical(buf *bytes.Buffer, v interface{}, depth int) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		encoded, err := json.Marshal(val)
		if err != nil {
			return errors.Wrap(errors.FamilySerde, "json-serialize", "failed to encode string", err)
		}
		buf.Write(encoded)
	case json.Number:
		buf.WriteString(formatNumber(val))
	case []interface{}:
		return writeArray(buf, val, depth)
	case map[string]interface{}:
		return writeObject(buf, val, depth)
	default:
		return errors.Newf(errors.FamilySerde, "json-serialize", "unexpected JSON node of type %T", v)
	}
	return nil
}

func writeArray(buf *bytes.Buffer, arr []interface{}, depth int) error {
	if len(arr) == 0 {
		buf.WriteString("[]")
		return nil
	}
	buf.WriteString("[\n")
	for i, item := range arr {
		indent(buf, depth+1)
		if err := writeCanonical(buf, item, depth+1); err != nil {
			return err
		}
		if i < len(arr)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	indent(buf, depth)
	buf.WriteByte(']')
	return nil
}

func writeObject(buf *bytes.Buffer, obj map[string]interface{}, depth int) error {
	if len(obj) == 0 {
		buf.WriteString("{}")
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteString("{\n")
	for i, k := range keys {
		indent(buf, depth+1)
		encoded, err := json.Marshal(k)
		if err != nil {
			return errors.Wrap(errors.FamilySerde, "json-serialize", "failed to encode object key", err)
		}
		buf.Write(encoded)
		buf.WriteString(": ")
		if err := writeCanonical(buf, obj[k], depth+1); err != nil {
			return err
		}
		if i < len(keys)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	indent(buf, depth)
	buf.WriteByte('}')
	return nil
}

// formatNumber rewrites scientific notation into plain decimal form so the
// byte encoding of a float does not depend on its magnitude.
func formatNumber(num json.Number) string {
	s := num.String()
	if !strings.ContainsAny(s, "eE") {
		return s
	}
	f, err := num.Float64()
	if err != nil {
		return s
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func indent(buf *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		buf.WriteString("  ")
	}
}
