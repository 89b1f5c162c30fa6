package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/journey/pkg/domain"
)

// GraphOverlay contains session data to visualize on the graph.
type GraphOverlay struct {
	CompletedSteps []string
	CurrentStep    string
}

// OverlayFromState builds an overlay from a journey state.
func OverlayFromState(state *domain.JourneyState) *GraphOverlay {
	if state == nil {
		return nil
	}
	return &GraphOverlay{
		CompletedSteps: append([]string(nil), state.Completed...),
		CurrentStep:    state.CurrentStepID,
	}
}

// GenerateMermaid produces a Mermaid flowchart from a list of steps.
// It applies semantic styling:
// - Entry point: ((Circle))
// - Skip step: [[Subroutine]]
// - Step collecting fields: [/Parallelogram/]
// - External destination: {{Hexagon}}
// Prerequisites are drawn as dotted edges from the step to the step it requires.
func GenerateMermaid(steps []domain.Step, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	known := make(map[string]bool, len(steps))
	for _, s := range steps {
		known[s.ID] = true
	}

	var externals []string
	seenExternal := make(map[string]bool)

	for _, step := range steps {
		safeID := sanitizeMermaidID(step.ID)

		opener, closer := "[", "]"
		switch {
		case step.EntryPoint:
			opener, closer = "((", "))"
		case step.Skip:
			opener, closer = "[[", "]]"
		case len(step.Fields) > 0:
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, step.ID, closer)

		for _, rule := range step.Next {
			dest := rule.Destination()
			safeTo := sanitizeMermaidID(dest)
			if !known[dest] {
				safeTo = externalID(dest)
				if !seenExternal[dest] {
					seenExternal[dest] = true
					externals = append(externals, dest)
				}
			}

			arrow := "-->"
			if label := domain.Label(rule); label != "" {
				arrow = fmt.Sprintf("-- \"%s\" -->", strings.ReplaceAll(label, "\"", "'"))
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, safeTo)
		}

		for _, p := range step.Prereqs {
			fmt.Fprintf(&sb, "    %s -. \"requires\" .-> %s\n", safeID, sanitizeMermaidID(p))
		}
	}

	for _, dest := range externals {
		fmt.Fprintf(&sb, "    %s{{\"%s\"}}\n", externalID(dest), dest)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme.
		sb.WriteString("    classDef completed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		styled := make(map[string]bool)
		for _, id := range overlay.CompletedSteps {
			// Completed steps may have been removed from the journey since the session started.
			if !known[id] || styled[id] {
				continue
			}
			styled[id] = true
			fmt.Fprintf(&sb, "    class %s completed;\n", sanitizeMermaidID(id))
		}

		if overlay.CurrentStep != "" {
			current := sanitizeMermaidID(overlay.CurrentStep)
			if !known[overlay.CurrentStep] {
				current = externalID(overlay.CurrentStep)
			}
			fmt.Fprintf(&sb, "    class %s current;\n", current)
		}
	}

	return sb.String()
}

func externalID(dest string) string {
	return "ext" + sanitizeMermaidID(dest)
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", ":", "_").Replace(id)
}
