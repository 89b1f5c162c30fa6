/*
Package dsl provides a Go DSL for programmatically constructing journeys.

It is the in-code alternative to YAML journey files: a fluent builder whose
result is handed to journey.WithLoader and validated by the registry like any
other source.

Example usage:

	b := dsl.New()

	b.Add("check").Entry().Resets().Skip().
		Go("national-insurance-number")

	b.Add("national-insurance-number").
		Fields("nino").
		Handler("nino").
		When("has_redirect_to_retry_showing", "could-not-match-national-insurance").
		Go("/oauth2/callback")

	ctrl, err := journey.New("nino", journey.WithLoader(b), journey.WithHandlers(handlers))
*/
package dsl
