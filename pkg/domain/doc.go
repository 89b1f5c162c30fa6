/*
Package domain contains the core domain models of the journey engine.

It defines the declarative step graph (Steps and their transition Rules), the per-session
JourneyState, and the request/outcome values exchanged with the host. This package is kept
pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Step: A node of the journey graph (a page or a routing-only waypoint).
  - Rule: A transition rule (Always, FieldEquals, WhenPredicate), evaluated first-match-wins.
  - JourneyState: The per-session record of progress (current step, completed steps, values).
  - Request / Outcome: What the host asks the engine to do, and where the user goes next.
*/
package domain
