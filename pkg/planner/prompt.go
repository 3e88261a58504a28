package planner

import (
	"fmt"
	"strings"

	"github.com/harun/flowmind/pkg/atoms"
)

const systemPrompt = `You are a planning engine that decomposes a user's intent into a plan of atomic operations ("atoms").

Respond with a single JSON object and nothing else, in this exact shape:

{
  "target": "<one-line restatement of the intent>",
  "plan": {
    "steps": [
      {
        "step_id": "<short unique identifier>",
        "atom_id": "<id of an available atom>",
        "target": "<what this step accomplishes>",
        "inputs": { "<input name>": <literal or "${step_id.outputs.output_name}"> },
        "depends_on": ["<step_id of a prerequisite step>"]
      }
    ],
    "outputs": { "<name>": <literal or reference> }
  }
}

Rules:
- Use only atoms from the provided catalog, with only their declared inputs.
- Supply every required input of every atom you use.
- To pass one step's output into another step, use the placeholder form
  "${step_id.outputs.output_name}" exactly; no other templating exists.
- List a step in depends_on when it must run first even without a data flow.
- The step graph must be acyclic.`

// userPrompt renders the intent together with the available atoms catalog.
func userPrompt(intent string, registry *atoms.Registry) string {
	var b strings.Builder
	b.WriteString("Available atoms:\n")
	for _, def := range registry.All() {
		fmt.Fprintf(&b, "- %s", def.ID)
		if def.Description != "" {
			fmt.Fprintf(&b, ": %s", def.Description)
		}
		b.WriteString("\n")
		for _, in := range def.Inputs {
			fmt.Fprintf(&b, "    input %s (%s)", in.Name, orAny(in.Type))
			if in.Required {
				b.WriteString(" required")
			}
			b.WriteString("\n")
		}
		for _, out := range def.Outputs {
			fmt.Fprintf(&b, "    output %s (%s)\n", out.Name, orAny(out.Type))
		}
	}
	fmt.Fprintf(&b, "\nIntent: %s\n", strings.TrimSpace(intent))
	return b.String()
}

func orAny(t string) string {
	if t == "" {
		return "any"
	}
	return t
}
