package state

import (
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ToJSON returns the JSON encoding of v.
func ToJSON(v Value) ([]byte, error) {
	return json.Marshal(v)
}

// FromJSON parses a JSON object into a Value.
func FromJSON(data []byte) (Value, error) {
	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Get evaluates a gjson path expression against v. The zero Result is
// returned when v cannot be encoded; check Result.Exists before use.
func Get(v Value, path string) gjson.Result {
	data, err := json.Marshal(v)
	if err != nil {
		return gjson.Result{}
	}
	return gjson.GetBytes(data, path)
}

// Set returns a copy of v with the node at path set to value, using sjson
// path syntax (dotted keys, numeric array indexes, -1 to append).
// Intermediate mappings are created as needed. v is not modified.
func Set(v Value, path string, value any) (Value, error) {
	data := []byte(`{}`)
	if v != nil {
		var err error
		data, err = json.Marshal(v)
		if err != nil {
			return nil, err
		}
	}
	out, err := sjson.SetBytes(data, path, value)
	if err != nil {
		return nil, err
	}
	return FromJSON(out)
}

// At builds a Value containing only path set to value. Handlers use it to
// produce nested partial updates without writing the intermediate mappings
// by hand.
func At(path string, value any) (Value, error) {
	out, err := sjson.SetBytes([]byte(`{}`), path, value)
	if err != nil {
		return nil, err
	}
	return FromJSON(out)
}
