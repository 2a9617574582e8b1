package what

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Dictionary form keys.
const (
	MapKeyName      = "whatami_name"
	MapKeyConf      = "whatami_conf"
	MapKeyOutName   = "whatami_out_name"
	MapKeyNonIDKeys = "whatami_non_id_keys"
)

// ToMap returns the dictionary form of c:
//
//	{"whatami_name": ..., "whatami_conf": {...}, "whatami_out_name": ...}
//
// Nested configurations are converted recursively and sealed values become
// plain Go values, so the result marshals cleanly to JSON or YAML.
func (c *Config) ToMap() map[string]any {
	conf := make(map[string]any, len(c.Params))
	for k, v := range c.Params {
		conf[k] = plain(v)
	}
	m := map[string]any{
		MapKeyName: c.Name,
		MapKeyConf: conf,
	}
	if c.OutName != "" {
		m[MapKeyOutName] = c.OutName
	} else {
		m[MapKeyOutName] = nil
	}
	if len(c.nonID) > 0 {
		keys := c.NonIDKeys()
		anys := make([]any, len(keys))
		for i, k := range keys {
			anys[i] = k
		}
		m[MapKeyNonIDKeys] = anys
	}
	return m
}

func plain(v any) any {
	switch val := v.(type) {
	case *Config:
		if val == nil {
			return nil
		}
		return val.ToMap()
	case Whatable:
		if c := val.What(); c != nil {
			return c.ToMap()
		}
		return nil
	case Null:
		return nil
	case List:
		return plainSlice(val)
	case Tuple:
		return plainSlice(val)
	case Set:
		return plainSlice(val)
	case FrozenSet:
		return plainSlice(val)
	case Map:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[mapKeyString(e.Key)] = plain(e.Value)
		}
		return out
	case Value:
		return Native(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, x := range val {
			out[k] = plain(x)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, x := range val {
			out[i] = plain(x)
		}
		return out
	}
	return v
}

func plainSlice(vals []Value) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = plain(v)
	}
	return out
}

// FromMap rebuilds a Config from its dictionary form. Nested maps holding a
// whatami_name key become nested configurations.
func FromMap(m map[string]any) (*Config, error) {
	name, ok := m[MapKeyName].(string)
	if !ok {
		return nil, &Error{
			Code:    ErrCodeInvalidMap,
			Message: fmt.Sprintf("%s must be a string, got %T", MapKeyName, m[MapKeyName]),
			Key:     MapKeyName,
		}
	}

	params := make(map[string]any)
	switch conf := m[MapKeyConf].(type) {
	case nil:
	case map[string]any:
		for k, v := range conf {
			pv, err := fromMapValue(v)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", name, k, err)
			}
			params[k] = pv
		}
	default:
		return nil, &Error{
			Code:    ErrCodeInvalidMap,
			Message: fmt.Sprintf("%s must be a mapping, got %T", MapKeyConf, conf),
			Key:     MapKeyConf,
		}
	}

	var opts []Option
	switch out := m[MapKeyOutName].(type) {
	case nil:
	case string:
		opts = append(opts, WithOutName(out))
	default:
		return nil, &Error{
			Code:    ErrCodeInvalidMap,
			Message: fmt.Sprintf("%s must be a string, got %T", MapKeyOutName, out),
			Key:     MapKeyOutName,
		}
	}
	if keys, ok := m[MapKeyNonIDKeys]; ok {
		opts = append(opts, WithNonIDKeysFrom(keys))
	}
	return New(name, params, opts...)
}

func fromMapValue(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		if _, ok := val[MapKeyName]; ok {
			return FromMap(val)
		}
		out := make(map[string]any, len(val))
		for k, x := range val {
			px, err := fromMapValue(x)
			if err != nil {
				return nil, err
			}
			out[k] = px
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, x := range val {
			px, err := fromMapValue(x)
			if err != nil {
				return nil, err
			}
			out[i] = px
		}
		return out, nil
	}
	return v, nil
}

// Decode copies the parameters of c into out, which must be a pointer to a
// struct or map. Struct fields are matched by their what tag, or by name.
// Strings decode into time.Duration and encoding.TextUnmarshaler fields.
func (c *Config) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "what",
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(Native(c)); err != nil {
		return fmt.Errorf("decode %s: %w", c.Name, err)
	}
	return nil
}
