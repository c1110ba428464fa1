package ticket

import (
	"sort"
	"strings"
)

// Phase is a named ordering bucket used to sequence ticket processing.
type Phase int

// Phases in processing precedence. Schema-type phases run first so later
// tickets can rely on the data model being in place, then backend,
// frontend, test. PhaseOther is a deliberate catch-all for unrecognized
// id prefixes: such tickets sort last rather than failing the run, and
// the orchestrator surfaces them as an event.
const (
	PhaseSchema Phase = iota
	PhaseEngine
	PhaseBackend
	PhaseFrontend
	PhaseTest
	PhaseOther
)

// String returns the phase's display name.
func (p Phase) String() string {
	switch p {
	case PhaseSchema:
		return "schema"
	case PhaseEngine:
		return "engine"
	case PhaseBackend:
		return "backend"
	case PhaseFrontend:
		return "frontend"
	case PhaseTest:
		return "test"
	default:
		return "other"
	}
}

// phasePrefixes maps id prefixes to phases. Ticket ids are
// phase-prefixed, e.g. "SCHEMA-001", "BE-012", "FE-003".
var phasePrefixes = map[string]Phase{
	"SCHEMA":   PhaseSchema,
	"ENGINE":   PhaseEngine,
	"BACKEND":  PhaseBackend,
	"BE":       PhaseBackend,
	"API":      PhaseBackend,
	"FRONTEND": PhaseFrontend,
	"FE":       PhaseFrontend,
	"UI":       PhaseFrontend,
	"TEST":     PhaseTest,
	"E2E":      PhaseTest,
}

// PhaseOf derives a ticket's phase from its id prefix (the segment
// before the first '-', case-insensitive).
func PhaseOf(t *Ticket) Phase {
	prefix, _, _ := strings.Cut(t.ID, "-")
	if phase, ok := phasePrefixes[strings.ToUpper(prefix)]; ok {
		return phase
	}
	return PhaseOther
}

// SortByPhase orders tickets into phase precedence. The sort is stable:
// tickets sharing a phase retain their input order.
func SortByPhase(tickets []*Ticket) {
	sort.SliceStable(tickets, func(i, j int) bool {
		return PhaseOf(tickets[i]) < PhaseOf(tickets[j])
	})
}

// UnknownPhase returns the ids of tickets that fell into the catch-all
// bucket, so callers can surface them.
func UnknownPhase(tickets []*Ticket) []string {
	var ids []string
	for _, t := range tickets {
		if PhaseOf(t) == PhaseOther {
			ids = append(ids, t.ID)
		}
	}
	return ids
}
