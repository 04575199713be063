package rewoo

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/sweetpotato0/reagent/pkg/telemetry"
	"github.com/sweetpotato0/reagent/runner"
)

const noEvidence = "No evidence found."

// resolveEvidence turns one planned tool call into evidence text. A tool
// call without a bracketed input is taken as literal evidence. Tool lookup
// or invocation failures degrade to a fallback value so sibling evidences
// keep running.
func (a *Agent) resolveEvidence(ctx context.Context, evidenceID string, evidences, resolved map[string]string) string {
	toolCall := evidences[evidenceID]
	name, input, ok := strings.Cut(toolCall, "[")
	if !ok {
		return toolCall
	}
	input = substitute(strings.TrimSuffix(input, "]"), resolved)

	t, err := a.tools.Get(name)
	if err != nil {
		a.logger.Warn("tool not found, degrading evidence", "evidence", evidenceID, "tool", name)
		return noEvidence
	}
	observation, err := t.Invoke(ctx, input)
	if err != nil {
		a.logger.Warn("tool invocation failed, degrading evidence", "evidence", evidenceID, "tool", name, "error", err)
		return noEvidence
	}
	return observation
}

// executeLevels runs the dependency levels in order, fanning each level out
// across a bounded worker pool. A level only starts once every evidence of
// the previous level has been resolved, so substitution always sees the
// values it depends on.
func (a *Agent) executeLevels(ctx context.Context, evidences map[string]string, levels [][]string) (_ map[string]string, err error) {
	ctx, span := otel.Tracer("reagent/agent/rewoo").Start(ctx, "rewoo.work")
	defer func() { telemetry.End(span, err) }()

	resolved := make(map[string]string, len(evidences))
	pool := runner.NewPool(a.workerConcurrency)
	for _, level := range levels {
		results := make([]string, len(level))
		err := pool.Map(ctx, len(level), func(ctx context.Context, i int) error {
			results[i] = a.resolveEvidence(ctx, level[i], evidences, resolved)
			return nil
		})
		if err != nil {
			return nil, err
		}
		for i, id := range level {
			resolved[id] = a.trimmer.TrimTo(results[i], a.maxContextLength)
		}
	}
	return resolved, nil
}

// buildWorkerLog renders the plan descriptions and resolved evidences in
// plan order. An evidence the workers never resolved falls back to the
// planner-parse sentinel.
func buildWorkerLog(pm *planMap, resolved map[string]string) string {
	var sb strings.Builder
	for _, plan := range pm.order {
		sb.WriteString(plan + ": " + pm.descriptions[plan] + "\n")
		for _, e := range pm.evidences[plan] {
			value, ok := resolved[e]
			if !ok {
				value = "No evidence found"
			}
			sb.WriteString(e + ": " + value + "\n")
		}
	}
	return sb.String()
}
