package controllers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/aretw0/journey/pkg/domain"
	"github.com/aretw0/journey/pkg/ports"
)

// Field and state keys used by the nino step.
const (
	FieldNino = "nationalInsuranceNumber"

	// KeyRetryShowing is set when the check API asks the user to try again.
	KeyRetryShowing = "redirect_to_retry_showing"

	// PredicateRetryShowing is the routing predicate exposed by Nino.
	PredicateRetryShowing = "has_redirect_to_retry_showing"
)

var ninoPattern = regexp.MustCompile(`^[A-CEGHJ-PR-TW-Z][A-CEGHJ-NPR-TW-Z][0-9]{6}[A-D]$`)

// MatchResult is the answer of the check API for a submitted number.
type MatchResult struct {
	Matched bool `json:"matched"`
	// RetryAllowed is true when the user may correct the number and try again.
	RetryAllowed bool `json:"retry_allowed"`
}

// Matcher checks a national insurance number against the record of the session.
type Matcher interface {
	Match(ctx context.Context, sessionID, nino string) (MatchResult, error)
}

// Nino validates and checks a national insurance number.
type Nino struct {
	matcher Matcher
}

// NewNino creates the nino handler. A nil matcher accepts every well formed number.
func NewNino(m Matcher) *Nino {
	return &Nino{matcher: m}
}

// Canonical returns the number in canonical form: NFKC normalised, upper case, without spaces.
func Canonical(s string) string {
	s = norm.NFKC.String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return unicode.ToUpper(r)
	}, s)
}

// Validate implements ports.StepHandler.
func (n *Nino) Validate(ctx context.Context, sc *domain.StepContext) (map[string]string, error) {
	nino := Canonical(sc.Submitted[FieldNino])
	if !ninoPattern.MatchString(nino) {
		return nil, domain.NewValidationError(sc.Step.ID, FieldNino, "pattern")
	}

	sc.State.Unset(KeyRetryShowing)
	if n.matcher != nil {
		res, err := n.matcher.Match(ctx, sc.SessionID, nino)
		if err != nil {
			return nil, fmt.Errorf("check national insurance number: %w", err)
		}
		if !res.Matched && res.RetryAllowed {
			sc.State.Set(KeyRetryShowing, true)
		}
	}
	return map[string]string{FieldNino: nino}, nil
}

// Predicates implements ports.StepHandler.
func (n *Nino) Predicates() map[string]ports.Predicate {
	return map[string]ports.Predicate{
		PredicateRetryShowing: func(_ context.Context, sc *domain.StepContext) bool {
			return sc.State.Flag(KeyRetryShowing)
		},
	}
}

var _ ports.StepHandler = (*Nino)(nil)
