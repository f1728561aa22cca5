package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// DecodeList extracts the items of a collection response. Accepted shapes are a
// bare array, {"data": [...]} and {"<key>": [...]} for any of keys. Every other
// shape is a DECODE_ERROR.
func DecodeList(raw json.RawMessage, keys ...string) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, decodeError("collection", errors.New("empty body"))
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, decodeError("collection", err)
		}
		return items, nil
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, decodeError("collection", err)
		}
		for _, key := range append([]string{"data"}, keys...) {
			inner, ok := envelope[key]
			if !ok {
				continue
			}
			inner = bytes.TrimSpace(inner)
			if len(inner) == 0 || inner[0] != '[' {
				return nil, decodeError("collection", fmt.Errorf("field %q is not an array", key))
			}
			return DecodeList(inner)
		}
		return nil, decodeError("collection", fmt.Errorf("object without a known list field %v", keys))
	}
	return nil, decodeError("collection", fmt.Errorf("unexpected %q", trimmed[0]))
}

// DecodeOne unwraps {"data": {...}} when data is the only field and returns any
// other object as is. null and empty bodies yield nil.
func DecodeOne(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] != '{' {
		return nil, decodeError("record", fmt.Errorf("unexpected %q", trimmed[0]))
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, decodeError("record", err)
	}
	if inner, ok := envelope["data"]; ok && len(envelope) == 1 {
		inner = bytes.TrimSpace(inner)
		if len(inner) > 0 && inner[0] == '{' {
			return inner, nil
		}
		if bytes.Equal(inner, []byte("null")) {
			return nil, nil
		}
	}
	return trimmed, nil
}

// List decodes a collection and normalizes each item with fn. Null items are skipped.
func List[T any](raw json.RawMessage, fn func(json.RawMessage) (*T, error), keys ...string) ([]T, error) {
	items, err := DecodeList(raw, keys...)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		v, err := fn(item)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out = append(out, *v)
		}
	}
	return out, nil
}

// One decodes a single record response and normalizes it with fn.
func One[T any](raw json.RawMessage, fn func(json.RawMessage) (*T, error)) (*T, error) {
	item, err := DecodeOne(raw)
	if err != nil || item == nil {
		return nil, err
	}
	return fn(item)
}
