package models

import "encoding/json"

// Ref is a reference the backend sends either as a bare id or as an embedded
// record. Object is non-nil only in the second case, and marshalling restores
// whichever shape arrived.
type Ref[T any] struct {
	ID     int64
	Object *T
}

// IDRef builds a scalar reference.
func IDRef[T any](id int64) Ref[T] {
	return Ref[T]{ID: id}
}

// IsObject reports whether the reference arrived embedded.
func (r Ref[T]) IsObject() bool {
	return r.Object != nil
}

// MarshalJSON emits the embedded record, the bare id, or null.
func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.Object != nil {
		return json.Marshal(r.Object)
	}
	if r.ID == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}
