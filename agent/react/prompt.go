package react

import "github.com/sweetpotato0/reagent/prompt"

// zeroShotPrompt is the default ReAct template. The stop sequence passed to
// the LLM keeps the model from generating its own Observation lines.
var zeroShotPrompt = prompt.MustNew("react_zero_shot", `Answer the following questions as best you can. Give answer in {{.lang}}. You have access to the following tools:
{{.tool_description}}
Use the following format:

Question: the input question you must answer
Thought: you should always think about what to do

Action: the action to take, should be one of [{{.tool_names}}]

Action Input: the input to the action, should be different from the action input of the same action in previous steps.

Observation: the result of the action

... (this Thought/Action/Action Input/Observation can repeat N times)
#Thought: I now know the final answer
Final Answer: the final answer to the original input question

Begin! After each Action Input.

Question: {{.instruction}}
Thought:{{.agent_scratchpad}}
`)
