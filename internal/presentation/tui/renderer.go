package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/aretw0/journey/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour.
// It falls back to the raw markdown when the terminal style cannot be detected.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// SessionMarkdown describes a journey state as a markdown document.
func SessionMarkdown(state *domain.JourneyState) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Session `%s`\n\n", state.SessionID)
	fmt.Fprintf(&sb, "- **Current step:** %s\n", orNone(state.CurrentStepID))
	fmt.Fprintf(&sb, "- **State version:** %d\n", state.Version)
	if !state.CreatedAt.IsZero() {
		fmt.Fprintf(&sb, "- **Created:** %s\n", state.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	}
	if !state.UpdatedAt.IsZero() {
		fmt.Fprintf(&sb, "- **Updated:** %s\n", state.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
	}

	sb.WriteString("\n## Completed steps\n\n")
	if len(state.Completed) == 0 {
		sb.WriteString("_none_\n")
	}
	for i, id := range state.Completed {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, id)
	}

	sb.WriteString("\n## Values\n\n")
	if len(state.Values) == 0 {
		sb.WriteString("_none_\n")
		return sb.String()
	}
	keys := make([]string, 0, len(state.Values))
	for k := range state.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sb.WriteString("| Key | Value |\n|---|---|\n")
	for _, k := range keys {
		fmt.Fprintf(&sb, "| %s | %v |\n", k, state.Values[k])
	}
	return sb.String()
}

func orNone(s string) string {
	if s == "" {
		return "_none_"
	}
	return s
}
