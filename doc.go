/*
Package journey is a declarative step-graph engine for multi-page user journeys.

A journey is a graph of named steps. Each step collects a set of required fields,
may be guarded by prerequisite steps, and lists ordered transition rules: the
first rule that matches decides where the user goes next. Rules are unconditional,
compare a validated field value, or call a named predicate of the step handler.
Destinations are other steps or external paths such as an OAuth callback.

# Concept

The Controller owns nothing but the graph. Per-session progress lives in a
JourneyState that is loaded from a StateStore, handed to the engine for one
request, and saved back once. Hosts (the HTTP adapter, tests, a CLI) talk to the
Controller through ports.Journey and translate the Outcome into a redirect or a
rendered page.

# Usage

	handlers := registry.NewHandlers().
		Register("nino", controllers.NewNino(matcher))

	ctrl, err := journey.New("journeys/nino.yaml",
		journey.WithHandlers(handlers),
		journey.WithStore(redis.NewStore(client)),
	)
	if err != nil {
		log.Fatal(err) // *domain.ConfigurationError lists every problem
	}

	out, err := ctrl.Handle(ctx, domain.Request{
		StepID:    "national-insurance-number",
		SessionID: sessionID,
		Fields:    map[string]string{"nino": "QQ 12 34 56 C"},
		Submitted: true,
	})
	if err != nil {
		return err
	}
	switch out.Kind {
	case domain.OutcomeRedirect:
		http.Redirect(w, r, out.Target.JoinPath("/check"), http.StatusSeeOther)
	case domain.OutcomeRender, domain.OutcomeRerender:
		render(w, out)
	}
*/
package journey
