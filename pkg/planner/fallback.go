package planner

import (
	"strings"

	"github.com/harun/flowmind/pkg/plan"
)

// FallbackPlan returns a canned plan wired to the built-in atoms: query the
// sender's transfer permission, then transfer a file. It keeps the full
// pipeline runnable when no language-model provider is configured.
func FallbackPlan(intent string) *plan.Document {
	target := strings.TrimSpace(intent)
	if target == "" {
		target = "Query user permission and transfer file"
	}
	return &plan.Document{
		Target: target,
		Plan: plan.Body{
			Steps: []plan.Step{
				{
					StepID: "query_perm",
					AtomID: "globalx.permission.query_permissions",
					Target: "Check if user has transfer permission",
					Inputs: map[string]any{"user_id": "user_001"},
				},
				{
					StepID: "transfer_file",
					AtomID: "globalx.transfer.file_transfer",
					Target: "Transfer file from sender to receiver",
					Inputs: map[string]any{
						"file_path":   "/path/to/file",
						"sender_id":   "user_001",
						"receiver_id": "user_002",
					},
					DependsOn: []string{"query_perm"},
				},
			},
			Outputs: map[string]any{"result": "Transfer completed"},
		},
	}
}
