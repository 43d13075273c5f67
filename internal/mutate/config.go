// Package mutate rewrites block text without touching markup structure,
// retargets call-to-action links and collects replacement candidates.
package mutate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"lpforge/internal/lperr"
)

// Replacement is one literal old -> new pair of a direct substitution.
type Replacement struct {
	Old string `json:"old" yaml:"old"`
	New string `json:"new" yaml:"new"`
}

// Replacements is applied in order. It decodes from a JSON or YAML object
// keeping key order, or from a list of {old, new} pairs.
type Replacements []Replacement

func (r *Replacements) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*r = nil
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []Replacement
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*r = list
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return lperr.InvalidInput("directReplacements must be an object or a list")
	}
	out := Replacements{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("directReplacements[%q]: %w", key, err)
		}
		out = append(out, Replacement{Old: key, New: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}

func (r Replacements) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, rep := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(rep.Old)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(rep.New)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Replacements) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.MappingNode:
		out := Replacements{}
		for i := 0; i+1 < len(value.Content); i += 2 {
			var key, val string
			if err := value.Content[i].Decode(&key); err != nil {
				return err
			}
			if err := value.Content[i+1].Decode(&val); err != nil {
				return fmt.Errorf("directReplacements[%q]: %w", key, err)
			}
			out = append(out, Replacement{Old: key, New: val})
		}
		*r = out
		return nil
	case yaml.SequenceNode:
		var list []Replacement
		if err := value.Decode(&list); err != nil {
			return err
		}
		*r = list
		return nil
	}
	return lperr.InvalidInput("directReplacements must be a mapping or a list (line %d)", value.Line)
}

// PhraseRewrite is a whole-phrase substitution applied to serialized html.
type PhraseRewrite struct {
	Original  string `json:"original" yaml:"original"`
	Rewritten string `json:"rewritten" yaml:"rewritten"`
}

// Overwrite replaces the whole text of the block at Index.
type Overwrite struct {
	Index   int    `json:"index" yaml:"index"`
	NewText string `json:"newText" yaml:"newText"`
}

// Config is the mutation request. Apply accepts exactly one populated
// strategy; Sequence runs all populated strategies in a fixed order.
type Config struct {
	DirectReplacements Replacements    `json:"directReplacements,omitempty" yaml:"directReplacements,omitempty"`
	PhraseRewrites     []PhraseRewrite `json:"phraseRewrites,omitempty" yaml:"phraseRewrites,omitempty"`
	CTAURL             string          `json:"ctaUrl,omitempty" yaml:"ctaUrl,omitempty"`
	ExcludeSelectors   []string        `json:"excludeSelectors,omitempty" yaml:"excludeSelectors,omitempty"`
	Overwrites         []Overwrite     `json:"overwrites,omitempty" yaml:"overwrites,omitempty"`
}

// Strategy names one mutation mode.
type Strategy string

const (
	StrategyDirect    Strategy = "direct"
	StrategyPhrases   Strategy = "phrases"
	StrategyOverwrite Strategy = "overwrite"
	StrategyCTA       Strategy = "cta"
)

// Strategies lists the populated strategies in the order Sequence runs them.
func (c Config) Strategies() []Strategy {
	out := []Strategy{}
	if len(c.DirectReplacements) > 0 {
		out = append(out, StrategyDirect)
	}
	if len(c.PhraseRewrites) > 0 {
		out = append(out, StrategyPhrases)
	}
	if len(c.Overwrites) > 0 {
		out = append(out, StrategyOverwrite)
	}
	if strings.TrimSpace(c.CTAURL) != "" {
		out = append(out, StrategyCTA)
	}
	return out
}

// IsZero reports whether no strategy is populated.
func (c Config) IsZero() bool {
	return len(c.Strategies()) == 0
}

// Validate reports every contract violation at once. All returned errors
// are invalid-input errors.
func (c Config) Validate() error {
	var err error
	for i, r := range c.DirectReplacements {
		if r.Old == "" {
			err = multierr.Append(err, lperr.InvalidInput("directReplacements[%d]: empty old text", i))
		}
	}
	for i, p := range c.PhraseRewrites {
		if p.Original == "" {
			err = multierr.Append(err, lperr.InvalidInput("phraseRewrites[%d]: empty original", i))
		}
	}
	for _, sel := range c.ExcludeSelectors {
		if _, cerr := cascadia.Compile(sel); cerr != nil {
			err = multierr.Append(err, &lperr.Error{
				Type:    lperr.TypeInvalidInput,
				Message: fmt.Sprintf("bad exclude selector %q", sel),
				Cause:   cerr,
			})
		}
	}
	for i, o := range c.Overwrites {
		if o.Index < 0 {
			err = multierr.Append(err, lperr.InvalidInput("overwrites[%d]: negative index %d", i, o.Index))
		}
	}
	if c.CTAURL != "" {
		if _, perr := url.Parse(c.CTAURL); perr != nil {
			err = multierr.Append(err, &lperr.Error{
				Type:    lperr.TypeInvalidInput,
				Message: "bad ctaUrl",
				Cause:   perr,
			})
		}
	}
	return err
}
