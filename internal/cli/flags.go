package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// setFlag is a flag.Value that remembers whether it was given on the
// command line, so config file values are only overridden explicitly.
type setFlag[T string | int | bool] struct {
	Value  T
	WasSet bool
}

type (
	stringFlag = setFlag[string]
	intFlag    = setFlag[int]
	boolFlag   = setFlag[bool]
)

func (f *setFlag[T]) String() string { return fmt.Sprint(f.Value) }

func (f *setFlag[T]) Set(v string) error {
	var parsed T
	switch p := any(&parsed).(type) {
	case *string:
		*p = v
	case *int:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("expected a whole number, got %q", v)
		}
		*p = n
	case *bool:
		b, err := parseBool(v)
		if err != nil {
			return err
		}
		*p = b
	}
	f.Value = parsed
	f.WasSet = true
	return nil
}

// IsBoolFlag lets boolean flags be given without a value.
func (f *setFlag[T]) IsBoolFlag() bool {
	_, ok := any(f.Value).(bool)
	return ok
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "y", "on":
		return true, nil
	case "false", "0", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("expected true or false, got %q", v)
}

// stringMapFlag collects repeated key=value image substitutions.
type stringMapFlag struct {
	Values map[string]string
	WasSet bool
}

func (s *stringMapFlag) String() string {
	keys := make([]string, 0, len(s.Values))
	for k := range s.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+s.Values[k])
	}
	return strings.Join(parts, ",")
}

func (s *stringMapFlag) Set(v string) error {
	key, value, ok := strings.Cut(v, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("expected old=new, got %q", v)
	}
	if s.Values == nil {
		s.Values = map[string]string{}
	}
	s.Values[key] = strings.TrimSpace(value)
	s.WasSet = true
	return nil
}

// pairListFlag collects repeated old=new values in the order given.
type pairListFlag struct {
	Pairs  [][2]string
	WasSet bool
}

func (p *pairListFlag) String() string {
	parts := make([]string, 0, len(p.Pairs))
	for _, pair := range p.Pairs {
		parts = append(parts, pair[0]+"="+pair[1])
	}
	return strings.Join(parts, ",")
}

func (p *pairListFlag) Set(v string) error {
	key, value, ok := strings.Cut(v, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected old=new, got %q", v)
	}
	p.Pairs = append(p.Pairs, [2]string{key, value})
	p.WasSet = true
	return nil
}
