// Package param declares and resolves algorithm parameters.
//
// Every algorithm publishes a Schema. Configuration values arrive as a
// Map (from code or from a pipeline file) and are resolved against the
// schema: unknown names, wrong types and out-of-range values are
// rejected, missing values take the declared default.
package param

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	// ErrUnknown is returned when a value is provided for an undeclared
	// parameter.
	ErrUnknown = errors.New("unknown parameter")
	// ErrMissing is returned when a parameter without default is not set.
	ErrMissing = errors.New("missing parameter")
	// ErrInvalidType is returned when a value cannot be converted to the
	// declared type.
	ErrInvalidType = errors.New("invalid parameter type")
	// ErrOutOfRange is returned when a value is outside of declared range.
	ErrOutOfRange = errors.New("parameter out of range")
	// ErrInvalidRange is returned for malformed range notation.
	ErrInvalidRange = errors.New("invalid range")
)

type (
	// Parameter declares a single configuration value. The type of the
	// parameter is the type of its Default. Kind must be set when the
	// parameter has no default.
	Parameter struct {
		Name        string
		Description string
		Range       string
		Default     interface{}
		Kind        Kind
	}

	// Kind is the type of parameter value.
	Kind int

	// Schema is an ordered set of parameters.
	Schema []Parameter

	// Map holds raw parameter values by name.
	Map map[string]interface{}

	// Values holds resolved parameter values.
	Values struct {
		values map[string]interface{}
	}

	// Error describes the parameter that failed to resolve.
	Error struct {
		Name  string
		Value interface{}
		Err   error
	}
)

// Supported parameter kinds.
const (
	KindUnknown Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindFloats
	KindStrings
)

func (e *Error) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("%s=%v: %v", e.Name, e.Value, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindFloats:
		return "[]float"
	case KindStrings:
		return "[]string"
	}
	return "unknown"
}

// KindOf returns the parameter kind of the value.
func KindOf(v interface{}) Kind {
	switch v.(type) {
	case int, int64:
		return KindInt
	case float64, float32:
		return KindFloat
	case bool:
		return KindBool
	case string:
		return KindString
	case []float64:
		return KindFloats
	case []string:
		return KindStrings
	}
	return KindUnknown
}

func (p Parameter) kind() Kind {
	if p.Kind != KindUnknown {
		return p.Kind
	}
	return KindOf(p.Default)
}

// Validate checks that the declaration itself is consistent.
func (s Schema) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for _, p := range s {
		if p.Name == "" {
			return errors.New("parameter without name")
		}
		if _, ok := seen[p.Name]; ok {
			return fmt.Errorf("duplicate parameter %q", p.Name)
		}
		seen[p.Name] = struct{}{}
		if p.kind() == KindUnknown {
			return &Error{Name: p.Name, Value: p.Default, Err: ErrInvalidType}
		}
		r, err := ParseRange(p.Range)
		if err != nil {
			return &Error{Name: p.Name, Err: err}
		}
		if p.Default != nil && !r.Contains(p.Default) {
			return &Error{Name: p.Name, Value: p.Default, Err: ErrOutOfRange}
		}
	}
	return nil
}

// Lookup returns the parameter declaration by name.
func (s Schema) Lookup(name string) (Parameter, bool) {
	for _, p := range s {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// Defaults returns values of all parameters that have defaults.
func (s Schema) Defaults() Map {
	m := make(Map, len(s))
	for _, p := range s {
		if p.Default != nil {
			m[p.Name] = p.Default
		}
	}
	return m
}

// Resolve validates provided values against the schema and fills
// defaults for the rest.
func (s Schema) Resolve(m Map) (Values, error) {
	for _, name := range m.names() {
		if _, ok := s.Lookup(name); !ok {
			return Values{}, &Error{Name: name, Value: m[name], Err: ErrUnknown}
		}
	}
	values := make(map[string]interface{}, len(s))
	for _, p := range s {
		raw, ok := m[p.Name]
		if !ok {
			if p.Default == nil {
				return Values{}, &Error{Name: p.Name, Err: ErrMissing}
			}
			raw = p.Default
		}
		v, err := convert(p.kind(), raw)
		if err != nil {
			return Values{}, &Error{Name: p.Name, Value: raw, Err: err}
		}
		r, err := ParseRange(p.Range)
		if err != nil {
			return Values{}, &Error{Name: p.Name, Err: err}
		}
		if !r.Contains(v) {
			return Values{}, &Error{Name: p.Name, Value: raw, Err: fmt.Errorf("%w %s", ErrOutOfRange, r)}
		}
		values[p.Name] = v
	}
	return Values{values: values}, nil
}

func (m Map) names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String formats the map in a stable order.
func (m Map) String() string {
	var b strings.Builder
	for i, name := range m.names() {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%s=%v", name, m[name])
	}
	return b.String()
}

// Has returns true if parameter was resolved.
func (v Values) Has(name string) bool {
	_, ok := v.values[name]
	return ok
}

// Get returns the raw resolved value.
func (v Values) Get(name string) interface{} {
	return v.values[name]
}

// Int returns the resolved int value.
func (v Values) Int(name string) int {
	i, _ := v.values[name].(int)
	return i
}

// Float returns the resolved float value.
func (v Values) Float(name string) float64 {
	f, _ := v.values[name].(float64)
	return f
}

// Bool returns the resolved bool value.
func (v Values) Bool(name string) bool {
	b, _ := v.values[name].(bool)
	return b
}

// String returns the resolved string value.
func (v Values) String(name string) string {
	s, _ := v.values[name].(string)
	return s
}

// Floats returns the resolved float list.
func (v Values) Floats(name string) []float64 {
	f, _ := v.values[name].([]float64)
	return f
}

// Strings returns the resolved string list.
func (v Values) Strings(name string) []string {
	s, _ := v.values[name].([]string)
	return s
}

// convert coerces raw values, including those decoded from yaml, to the
// declared kind.
func convert(k Kind, raw interface{}) (interface{}, error) {
	switch k {
	case KindInt:
		switch x := raw.(type) {
		case int:
			return x, nil
		case int64:
			return int(x), nil
		case float64:
			if x == math.Trunc(x) && !math.IsInf(x, 0) {
				return int(x), nil
			}
		}
	case KindFloat:
		if f, ok := asFloat(raw); ok {
			return f, nil
		}
	case KindBool:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
	case KindString:
		if s, ok := raw.(string); ok {
			return s, nil
		}
	case KindFloats:
		switch x := raw.(type) {
		case []float64:
			return append([]float64(nil), x...), nil
		case []int:
			result := make([]float64, len(x))
			for i := range x {
				result[i] = float64(x[i])
			}
			return result, nil
		case []interface{}:
			result := make([]float64, len(x))
			for i := range x {
				f, ok := asFloat(x[i])
				if !ok {
					return nil, ErrInvalidType
				}
				result[i] = f
			}
			return result, nil
		}
	case KindStrings:
		switch x := raw.(type) {
		case []string:
			return append([]string(nil), x...), nil
		case []interface{}:
			result := make([]string, len(x))
			for i := range x {
				s, ok := x[i].(string)
				if !ok {
					return nil, ErrInvalidType
				}
				result[i] = s
			}
			return result, nil
		}
	}
	return nil, fmt.Errorf("%w: expected %v, got %T", ErrInvalidType, k, raw)
}
