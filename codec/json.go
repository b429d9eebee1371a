package codec

import "encoding/json"

// JSON serializes values with encoding/json. Fine for plain structs; prefer
// CBOR when V carries time.Time or binary fields that JSON cannot round-trip
// faithfully.
type JSON[V any] struct{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
