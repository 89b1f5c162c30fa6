package file

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/journey/pkg/domain"
)

// SupportedVersion is the journey file format understood by this loader.
const SupportedVersion = 1

// Document is the top level of a journey file.
type Document struct {
	Version int       `yaml:"version"`
	Name    string    `yaml:"name"`
	Steps   []stepDoc `yaml:"steps"`
}

// stepDoc is a step as written in YAML. Next is loosely typed:
// a destination string, a single rule map, or a list mixing both.
type stepDoc struct {
	domain.Step `yaml:",inline"`
	Next        any `yaml:"next"`
}

// Loader implements ports.StepLoader for a YAML journey file.
type Loader struct {
	path string
}

// NewLoader creates a loader for the journey file at path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// LoadSteps reads and parses the journey file.
func (l *Loader) LoadSteps() ([]domain.Step, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read journey file: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.path, err)
	}
	return doc.Build()
}

// Parse decodes a journey document. Unknown keys are rejected.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("journey file is empty")
		}
		return nil, fmt.Errorf("failed to parse journey file: %w", err)
	}
	if doc.Version != 0 && doc.Version != SupportedVersion {
		return nil, fmt.Errorf("unsupported journey file version %d (want %d)", doc.Version, SupportedVersion)
	}
	return &doc, nil
}

// Build converts the document into steps with typed rules.
func (d *Document) Build() ([]domain.Step, error) {
	steps := make([]domain.Step, 0, len(d.Steps))
	for i, sd := range d.Steps {
		step := sd.Step
		rules, err := decodeNext(sd.Next)
		if err != nil {
			return nil, fmt.Errorf("step %d (%q): %w", i, step.ID, err)
		}
		step.Next = rules
		steps = append(steps, step)
	}
	return steps, nil
}

func decodeNext(raw any) ([]domain.Rule, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string, map[string]any:
		rule, err := decodeRule(v)
		if err != nil {
			return nil, err
		}
		return []domain.Rule{rule}, nil
	case []any:
		rules := make([]domain.Rule, 0, len(v))
		for i, item := range v {
			rule, err := decodeRule(item)
			if err != nil {
				return nil, fmt.Errorf("rule %d: %w", i, err)
			}
			rules = append(rules, rule)
		}
		return rules, nil
	default:
		return nil, fmt.Errorf("next must be a string, a rule or a list, got %T", raw)
	}
}

func decodeRule(item any) (domain.Rule, error) {
	switch v := item.(type) {
	case string:
		return domain.Always{To: v}, nil
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[k] = val
		}
		// "fn" is accepted as an alias of "predicate".
		if fn, ok := m["fn"]; ok {
			if _, dup := m["predicate"]; dup {
				return nil, fmt.Errorf("rule sets both fn and predicate")
			}
			m["predicate"] = fn
			delete(m, "fn")
		}
		if _, ok := m["next"]; !ok {
			return nil, fmt.Errorf("rule has no next")
		}

		switch {
		case has(m, "field"):
			var r domain.FieldEquals
			err := decodeStrict(m, &r)
			return r, err
		case has(m, "predicate"):
			var r domain.WhenPredicate
			err := decodeStrict(m, &r)
			return r, err
		default:
			var r domain.Always
			err := decodeStrict(m, &r)
			return r, err
		}
	default:
		return nil, fmt.Errorf("unsupported rule of type %T", item)
	}
}

func has(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

// decodeStrict fills out from m, rejecting unknown keys.
// Scalars are rendered as strings so `value: 1` and `value: true` compare as typed.
func decodeStrict(m map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
		DecodeHook: mapstructure.DecodeHookFuncType(func(from, to reflect.Type, data any) (any, error) {
			if to.Kind() == reflect.String && from.Kind() != reflect.String && data != nil {
				return fmt.Sprint(data), nil
			}
			return data, nil
		}),
	})
	if err != nil {
		return err
	}
	return dec.Decode(m)
}
