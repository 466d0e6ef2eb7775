package limits

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// FromAny converts a loosely-typed upstream value into a Value. Numbers
// become counts, booleans become flags, strings become tiers. Nil and
// unsupported types report ok=false. Fractional numbers are truncated the
// way upstream payloads expect.
func FromAny(raw any) (Value, bool) {
	switch v := raw.(type) {
	case nil:
		return Value{}, false
	case bool:
		return Flag(v), true
	case int:
		return Count(int64(v)), true
	case int32:
		return Count(int64(v)), true
	case int64:
		return Count(v), true
	case uint64:
		if v > math.MaxInt64 {
			return Value{}, false
		}
		return Count(int64(v)), true
	case float32:
		return Count(int64(v)), true
	case float64:
		return Count(int64(v)), true
	case string:
		return Tier(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return Value{}, false
			}
			return Count(int64(f)), true
		}
		return Count(n), true
	default:
		return Value{}, false
	}
}

// MapFromAny normalizes a raw key/value payload into a Map, dropping
// entries whose values cannot be represented.
func MapFromAny(raw map[string]any) Map {
	if raw == nil {
		return nil
	}
	out := make(Map, len(raw))
	for k, v := range raw {
		if val, ok := FromAny(v); ok {
			out[Key(k)] = val
		}
	}
	return out
}

// MarshalJSON encodes the value as its natural JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.k {
	case kindCount:
		return json.Marshal(v.count)
	case kindFlag:
		return json.Marshal(v.flag)
	case kindTier:
		return json.Marshal(v.tier)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON scalar into the matching variant.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	val, ok := FromAny(raw)
	if !ok {
		if raw == nil {
			*v = Value{}
			return nil
		}
		return fmt.Errorf("limits: unsupported value %q", string(data))
	}
	*v = val
	return nil
}

// MarshalYAML encodes the value as its natural YAML scalar.
func (v Value) MarshalYAML() (any, error) {
	switch v.k {
	case kindCount:
		return v.count, nil
	case kindFlag:
		return v.flag, nil
	case kindTier:
		return v.tier, nil
	default:
		return nil, nil
	}
}

// UnmarshalYAML decodes a YAML scalar into the matching variant.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var n int64
	if err := node.Decode(&n); err == nil {
		*v = Count(n)
		return nil
	}
	var b bool
	if err := node.Decode(&b); err == nil {
		*v = Flag(b)
		return nil
	}
	var s string
	if err := node.Decode(&s); err == nil {
		*v = Tier(s)
		return nil
	}
	return fmt.Errorf("limits: unsupported yaml value at line %d", node.Line)
}
