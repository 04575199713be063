package rewoo

import (
	"regexp"
	"strings"

	"github.com/sweetpotato0/reagent/graph"
)

// evidenceRefRe matches symbolic evidence references inside tool inputs.
var evidenceRefRe = regexp.MustCompile(`#E\d+`)

// planMap is the ordered plan→evidence mapping parsed from a planner
// completion.
type planMap struct {
	order        []string            // plan ids in completion order
	descriptions map[string]string   // plan id → description
	evidences    map[string][]string // plan id → owned evidence ids
}

// parsePlanMap scans the planner completion for #Plan and #E lines. Each
// #Plan line opens a new bucket; subsequent #E lines are appended to it until
// the next #Plan. The mapping is n-to-n: a plan may own zero evidences, and
// an evidence line appearing before any plan is discarded (there is no bucket
// to append it to). LLMs cannot be trusted to follow the strict one-to-one
// format, so this parser stays permissive.
func parsePlanMap(plannerResponse string) *planMap {
	pm := &planMap{
		descriptions: make(map[string]string),
		evidences:    make(map[string][]string),
	}
	current := ""
	for _, line := range strings.Split(plannerResponse, "\n") {
		if !strings.HasPrefix(line, "#Plan") && !strings.HasPrefix(line, "#E") {
			continue
		}
		key, description, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		switch {
		case strings.HasPrefix(key, "#Plan"):
			pm.order = append(pm.order, key)
			pm.descriptions[key] = strings.TrimSpace(description)
			pm.evidences[key] = []string{}
			current = key
		case strings.HasPrefix(key, "#E") && current != "":
			pm.evidences[current] = append(pm.evidences[current], key)
		}
	}
	return pm
}

// parseEvidences extracts the evidence→tool-call mapping and the dependency
// graph from the planner completion.
//
// Only the canonical 3-character form (#E plus exactly one digit) is
// resolvable; a longer or malformed id is recorded with a fallback value
// rather than failing the run. A reference to an evidence id that has not
// been seen yet is not a dependency: it stays in the input as literal text.
func parseEvidences(plannerResponse string) (map[string]string, *graph.Graph) {
	evidences := make(map[string]string)
	g := graph.New()
	for _, line := range strings.Split(plannerResponse, "\n") {
		if !strings.HasPrefix(line, "#E") || len(line) < 3 || line[2] < '0' || line[2] > '9' {
			continue
		}
		id, toolCall, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		id, toolCall = strings.TrimSpace(id), strings.TrimSpace(toolCall)
		if len(id) != 3 {
			evidences[id] = "No evidence found"
			continue
		}
		g.AddNode(id)
		evidences[id] = toolCall
		for _, ref := range evidenceRefRe.FindAllString(toolCall, -1) {
			if _, seen := evidences[ref]; seen {
				g.AddDependency(id, ref)
			}
		}
	}
	return evidences, g
}

// substitute replaces every resolved evidence reference in the tool input
// with its resolved text. Substitution runs in a single pass, so replacement
// values are never re-scanned for further references.
func substitute(toolInput string, resolved map[string]string) string {
	return evidenceRefRe.ReplaceAllStringFunc(toolInput, func(ref string) string {
		if value, ok := resolved[ref]; ok {
			return value
		}
		return ref
	})
}
