/*
Package ports defines the driven ports (interfaces) of the journey engine.

These interfaces decouple the core logic from external implementations, allowing the engine
to work with various session stores, step graph sources, and step handlers.

# Key Interfaces

  - StepLoader: Loads Step definitions (e.g., from a YAML journey file or memory).
  - StepHandler: The capability of a step controller (validation entry point and predicates).
  - StateStore: Persists and loads per-session JourneyState.
  - DistributedLocker: Provides distributed locking for concurrent session access.
*/
package ports
