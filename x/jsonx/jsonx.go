// Package jsonx holds the JSON decoding helper shared by services.
package jsonx

import "encoding/json"

// DecodeJSON decodes src into dst. src may be raw JSON ([]byte, string,
// json.RawMessage) or an already-decoded value (map[string]any from the bus),
// which is round-tripped through the encoder.
func DecodeJSON[T any](src any, dst *T) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case json.RawMessage:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}
