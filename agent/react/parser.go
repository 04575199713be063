package react

import (
	"regexp"
	"strings"

	"github.com/sweetpotato0/reagent/agent"
	"github.com/sweetpotato0/reagent/errors"
)

// finalAnswerAction marks a terminating completion.
const finalAnswerAction = "Final Answer:"

// actionRe matches "Action: <tool> Action Input: <input>" across lines,
// tolerating numbered variants like "Action 2:".
var actionRe = regexp.MustCompile(`(?s)Action\s*\d*\s*:[\s]*(.*?)[\s]*Action\s*\d*\s*Input\s*\d*\s*:[\s]*(.*)`)

// parseOutput interprets a single LLM completion as either the next Action or
// a Finish. It is a pure function so it can be tested without any LLM.
//
// A completion containing both a parseable action and the final-answer marker
// is a contradiction and always fails. A completion matching neither fails
// under strict mode and becomes the final answer under lenient mode.
func parseOutput(text string, strict bool) (*agent.Action, *agent.Finish, error) {
	includesAnswer := strings.Contains(text, finalAnswerAction)
	match := actionRe.FindStringSubmatch(text)

	if match != nil {
		if includesAnswer {
			return nil, nil, &errors.ParseError{
				Raw:    text,
				Reason: "completion produced both a final answer and a parse-able action",
			}
		}
		action := strings.TrimSpace(match[1])
		toolInput := strings.Trim(match[2], " ")
		// ensure if its a well formed SQL query we don't remove any trailing " chars
		if !strings.HasPrefix(toolInput, "SELECT ") {
			toolInput = strings.Trim(toolInput, `"`)
		}
		return &agent.Action{Tool: action, ToolInput: toolInput, Log: text}, nil, nil
	}

	if includesAnswer {
		parts := strings.Split(text, finalAnswerAction)
		return nil, &agent.Finish{Output: strings.TrimSpace(parts[len(parts)-1]), Log: text}, nil
	}

	if strict {
		return nil, nil, &errors.ParseError{Raw: text, Reason: "no action or final answer"}
	}
	return nil, &agent.Finish{Output: text, Log: text}, nil
}
