package domain

import "fmt"

// RuleKind names a Rule variant.
type RuleKind string

const (
	RuleAlways      RuleKind = "always"
	RuleFieldEquals RuleKind = "field"
	RulePredicate   RuleKind = "predicate"
)

// Rule is a transition rule of a Step.
// It is a closed set: Always, FieldEquals and WhenPredicate are the only implementations.
type Rule interface {
	// Kind returns the variant of the rule.
	Kind() RuleKind
	// Destination returns the step ID or external path the rule leads to.
	Destination() string

	sealed()
}

// Always matches unconditionally.
type Always struct {
	To string `json:"to" mapstructure:"next"`
}

// FieldEquals matches when the canonical validated value of Field equals Value.
type FieldEquals struct {
	Field string `json:"field" mapstructure:"field"`
	Value string `json:"value" mapstructure:"value"`
	To    string `json:"to" mapstructure:"next"`
}

// WhenPredicate matches when the named predicate of the step handler returns true.
type WhenPredicate struct {
	Predicate string `json:"predicate" mapstructure:"predicate"`
	To        string `json:"to" mapstructure:"next"`
}

func (Always) Kind() RuleKind        { return RuleAlways }
func (FieldEquals) Kind() RuleKind   { return RuleFieldEquals }
func (WhenPredicate) Kind() RuleKind { return RulePredicate }

func (r Always) Destination() string        { return r.To }
func (r FieldEquals) Destination() string   { return r.To }
func (r WhenPredicate) Destination() string { return r.To }

func (Always) sealed()        {}
func (FieldEquals) sealed()   {}
func (WhenPredicate) sealed() {}

func (r Always) String() string { return "-> " + r.To }

func (r FieldEquals) String() string {
	return fmt.Sprintf("%s == %q -> %s", r.Field, r.Value, r.To)
}

func (r WhenPredicate) String() string {
	return fmt.Sprintf("%s() -> %s", r.Predicate, r.To)
}

// Label returns a short human readable condition for diagrams. Empty for Always.
func Label(r Rule) string {
	switch v := r.(type) {
	case FieldEquals:
		return fmt.Sprintf("%s = %s", v.Field, v.Value)
	case WhenPredicate:
		return v.Predicate + "()"
	default:
		return ""
	}
}
