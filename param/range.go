package param

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Range is the domain of parameter values.
//
// Supported notations:
//
//	""            any value
//	"(0,inf)"     open interval
//	"[1,inf)"     half-open interval, inf and -inf are accepted as bounds
//	"{0,1,2}"     enumerated numbers
//	"{hann,hamming}" enumerated strings
//
// Numeric ranges apply to every element of list values.
type Range interface {
	Contains(v interface{}) bool
	String() string
}

type (
	everything struct{}

	interval struct {
		src          string
		lo, hi       float64
		loInc, hiInc bool
	}

	set struct {
		src     string
		items   []string
		numbers []float64 // nil if any item is not a number
	}
)

// ParseRange parses the range notation.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return everything{}, nil
	}
	if len(s) < 2 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	switch first, last := s[0], s[len(s)-1]; {
	case first == '{' && last == '}':
		return parseSet(s)
	case (first == '(' || first == '[') && (last == ')' || last == ']'):
		return parseInterval(s)
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidRange, s)
}

func parseSet(s string) (Range, error) {
	items := strings.Split(s[1:len(s)-1], ",")
	r := set{src: s, items: make([]string, 0, len(items))}
	numbers := make([]float64, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, fmt.Errorf("%w: empty item in %q", ErrInvalidRange, s)
		}
		r.items = append(r.items, item)
		if numbers == nil {
			continue
		}
		if f, err := strconv.ParseFloat(item, 64); err == nil {
			numbers = append(numbers, f)
		} else {
			numbers = nil
		}
	}
	r.numbers = numbers
	return r, nil
}

func parseInterval(s string) (Range, error) {
	bounds := strings.Split(s[1:len(s)-1], ",")
	if len(bounds) != 2 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	lo, err := parseBound(bounds[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRange, s, err)
	}
	hi, err := parseBound(bounds[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRange, s, err)
	}
	if lo > hi {
		return nil, fmt.Errorf("%w: %q: lower bound above upper bound", ErrInvalidRange, s)
	}
	return interval{
		src:   s,
		lo:    lo,
		hi:    hi,
		loInc: s[0] == '[',
		hiInc: s[len(s)-1] == ']',
	}, nil
}

func parseBound(s string) (float64, error) {
	switch s = strings.TrimSpace(s); s {
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(s, 64)
}

func (everything) Contains(interface{}) bool { return true }

func (everything) String() string { return "" }

func (r interval) Contains(v interface{}) bool {
	switch x := v.(type) {
	case []float64:
		for _, f := range x {
			if !r.contains(f) {
				return false
			}
		}
		return true
	case []int:
		for _, i := range x {
			if !r.contains(float64(i)) {
				return false
			}
		}
		return true
	}
	f, ok := asFloat(v)
	if !ok {
		return false
	}
	return r.contains(f)
}

func (r interval) contains(f float64) bool {
	if math.IsNaN(f) {
		return false
	}
	if f < r.lo || (f == r.lo && !r.loInc) {
		return false
	}
	if f > r.hi || (f == r.hi && !r.hiInc) {
		return false
	}
	return true
}

func (r interval) String() string { return r.src }

func (r set) Contains(v interface{}) bool {
	if r.numbers != nil {
		f, ok := asFloat(v)
		if !ok {
			return false
		}
		for _, n := range r.numbers {
			if n == f {
				return true
			}
		}
		return false
	}
	s := fmt.Sprint(v)
	for _, item := range r.items {
		if item == s {
			return true
		}
	}
	return false
}

func (r set) String() string { return r.src }

func asFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	return 0, false
}
