// Package normalize turns backend JSON records into the canonical models. The
// backend is inconsistent about ids (id_usuario, idGrupo, idCiclo...) and about
// whether references arrive as bare ids or embedded records; each function here
// documents the shape it produces. All functions are pure and idempotent: feeding
// the JSON encoding of a result back in yields an equal value.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	appErrors "github.com/noah-isme/sicali-client/pkg/errors"
)

type record map[string]any

// parse returns nil for empty, null and non-object input.
func parse(raw json.RawMessage) (record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var rec record
	if err := dec.Decode(&rec); err != nil {
		return nil, decodeError("record", err)
	}
	return rec, nil
}

func decodeError(what string, err error) error {
	return appErrors.Wrap(err, appErrors.ErrDecode.Code, appErrors.ErrDecode.Status, fmt.Sprintf("invalid %s in backend response", what))
}

// reader accumulates the first coercion failure so field extraction stays linear.
type reader struct {
	entity string
	rec    record
	err    error
}

func newReader(entity string, rec record) *reader {
	return &reader{entity: entity, rec: rec}
}

func (r *reader) fail(key string, v any) {
	if r.err == nil {
		r.err = decodeError(r.entity, fmt.Errorf("field %q has unexpected value %v (%T)", key, v, v))
	}
}

func present(v any) bool {
	return v != nil
}

// id returns the first non-zero id among keys.
func (r *reader) id(keys ...string) int64 {
	for _, key := range keys {
		v, ok := r.rec[key]
		if !ok || !present(v) {
			continue
		}
		if _, isObj := v.(map[string]any); isObj {
			continue
		}
		n, err := toInt64(v)
		if err != nil {
			r.fail(key, v)
			return 0
		}
		if n != 0 {
			return n
		}
	}
	return 0
}

func (r *reader) int(key string) int {
	v, ok := r.rec[key]
	if !ok || !present(v) {
		return 0
	}
	n, err := toInt64(v)
	if err != nil {
		r.fail(key, v)
		return 0
	}
	return int(n)
}

// str returns the trimmed string under the first present key.
func (r *reader) str(keys ...string) string {
	for _, key := range keys {
		v, ok := r.rec[key]
		if !ok || !present(v) {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case json.Number:
			return t.String()
		default:
			r.fail(key, v)
			return ""
		}
	}
	return ""
}

// text is str without trimming, for secrets.
func (r *reader) text(key string) string {
	v, ok := r.rec[key]
	if !ok || !present(v) {
		return ""
	}
	s, isStr := v.(string)
	if !isStr {
		r.fail(key, v)
	}
	return s
}

func (r *reader) float(key string) *float64 {
	v, ok := r.rec[key]
	if !ok || !present(v) {
		return nil
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil
	}
	var f float64
	var err error
	switch t := v.(type) {
	case json.Number:
		f, err = t.Float64()
	case bool:
		err = fmt.Errorf("boolean score")
	default:
		f, err = cast.ToFloat64E(v)
	}
	if err != nil {
		r.fail(key, v)
		return nil
	}
	return &f
}

// obj returns the embedded record under key, if the value is an object.
func (r *reader) obj(key string) record {
	if v, ok := r.rec[key].(map[string]any); ok {
		return record(v)
	}
	return nil
}

func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, nil
		}
		f, err := t.Float64()
		if err != nil || f != float64(int64(f)) {
			return 0, fmt.Errorf("not an integer: %s", t)
		}
		return int64(f), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, nil
		}
		return cast.ToInt64E(strings.TrimLeft(s, "0") + zeroIfEmpty(s))
	case bool:
		return 0, fmt.Errorf("boolean id")
	}
	return cast.ToInt64E(v)
}

// "007" must not be read as octal by cast; "0" must stay "0".
func zeroIfEmpty(s string) string {
	if strings.TrimLeft(s, "0") == "" {
		return "0"
	}
	return ""
}
