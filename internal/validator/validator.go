package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/journey/pkg/domain"
	"github.com/aretw0/journey/pkg/registry"
)

// Issue is a lint finding. Issues are warnings: the graph is already valid when they are computed.
type Issue struct {
	StepID  string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.StepID, i.Message)
}

// Report holds the lint findings of a step graph.
type Report struct {
	// Reachable lists steps reachable from the entry point, in declaration order.
	Reachable []string
	Issues    []Issue
}

// OK reports whether the lint found nothing.
func (r *Report) OK() bool { return len(r.Issues) == 0 }

func (r *Report) Error() string {
	lines := make([]string, len(r.Issues))
	for i, is := range r.Issues {
		lines[i] = is.String()
	}
	return fmt.Sprintf("found %d warnings:\n- %s", len(r.Issues), strings.Join(lines, "\n- "))
}

// Lint walks the graph of a registry starting from its entry point.
// Steps that reset the journey are also treated as roots, since they may be entered without progress.
func Lint(reg *registry.Registry) *Report {
	steps := reg.Steps()
	byID := make(map[string]*domain.Step, len(steps))
	var queue []string
	for i := range steps {
		byID[steps[i].ID] = &steps[i]
		if steps[i].EntryPoint || steps[i].ResetsJourney {
			queue = append(queue, steps[i].ID)
		}
	}

	visited := make(map[string]bool)
	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]
		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		// Prereq redirects are edges too.
		step := byID[currentID]
		for _, p := range step.Prereqs {
			if !visited[p] {
				queue = append(queue, p)
			}
		}
		for _, r := range step.Next {
			dest := r.Destination()
			if _, ok := byID[dest]; ok && !visited[dest] {
				queue = append(queue, dest)
			}
		}
	}

	report := &Report{}
	for _, s := range steps {
		if visited[s.ID] {
			report.Reachable = append(report.Reachable, s.ID)
			continue
		}
		report.Issues = append(report.Issues, Issue{StepID: s.ID, Message: "unreachable from the entry point"})
	}

	for _, s := range steps {
		if !visited[s.ID] {
			continue
		}
		var dead []string
		for _, p := range s.Prereqs {
			if !leadsTo(byID, p, s.ID) {
				dead = append(dead, p)
			}
		}
		sort.Strings(dead)
		for _, p := range dead {
			report.Issues = append(report.Issues, Issue{
				StepID:  s.ID,
				Message: fmt.Sprintf("prerequisite %q has no transition path to this step", p),
			})
		}
	}
	return report
}

// leadsTo reports whether to is reachable from from through transition rules only.
func leadsTo(byID map[string]*domain.Step, from, to string) bool {
	seen := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, r := range byID[id].Next {
			dest := r.Destination()
			if dest == to {
				return true
			}
			if _, ok := byID[dest]; ok && !seen[dest] {
				seen[dest] = true
				queue = append(queue, dest)
			}
		}
	}
	return false
}
