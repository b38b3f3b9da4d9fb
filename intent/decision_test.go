package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecisionContinue(t *testing.T) {
	d := ParseDecision(`THOUGHT: step worked
DECISION: CONTINUE
REASON: data loaded, plan still valid`)

	assert.Equal(t, ActionContinue, d.Action)
	assert.Equal(t, "data loaded, plan still valid", d.Reason)
	assert.Nil(t, d.UpdatedPlan)
}

func TestParseDecisionComplete(t *testing.T) {
	d := ParseDecision("DECISION: complete\nREASON: already answered")
	assert.Equal(t, ActionComplete, d.Action)
}

func TestParseDecisionAbort(t *testing.T) {
	d := ParseDecision("DECISION: ABORT\nREASON: endpoint unavailable")
	assert.Equal(t, ActionAbort, d.Action)
	assert.Equal(t, "endpoint unavailable", d.Reason)
}

func TestParseDecisionUpdatePlan(t *testing.T) {
	d := ParseDecision(`DECISION: UPDATE_PLAN
REASON: file missing, create it first
PLAN: Recovery
STEP: Create the missing file
TOOL: FILE_MANAGER__create_file
ARGS: {"path": "data.csv", "content": "sample"}
STEP: Read it back
TOOL: FILE_EXPLORER__read_file
ARGS: {"path": "data.csv"}`)

	assert.Equal(t, ActionUpdatePlan, d.Action)
	require.NotNil(t, d.UpdatedPlan)
	assert.Equal(t, "Recovery", d.UpdatedPlan.Name)
	require.Len(t, d.UpdatedPlan.Steps, 2)
	assert.Equal(t, 1, d.UpdatedPlan.Steps[0].Number)
	assert.Equal(t, "FILE_MANAGER__create_file", d.UpdatedPlan.Steps[0].Tool)
}

func TestParseDecisionUpdatePlanSingleStep(t *testing.T) {
	d := ParseDecision(`DECISION: update_plan
PLAN: Minimal
STEP: just one
TOOL: FILES__read
ARGS: {"path": "a"}`)

	assert.Equal(t, ActionUpdatePlan, d.Action)
	require.NotNil(t, d.UpdatedPlan)
	assert.Len(t, d.UpdatedPlan.Steps, 1)
}

func TestParseDecisionUpdatePlanWithoutPlan(t *testing.T) {
	d := ParseDecision("DECISION: UPDATE_PLAN\nREASON: forgot the plan")
	assert.Equal(t, ActionUpdatePlan, d.Action)
	assert.Nil(t, d.UpdatedPlan)
}

func TestParseDecisionFailOpen(t *testing.T) {
	tests := []string{
		"",
		"no decision token anywhere",
		"DECISION: SHRUG",
		"<|channel|>final<|message|>who knows",
	}
	for _, raw := range tests {
		d := ParseDecision(raw)
		assert.Equal(t, ActionContinue, d.Action, "input %q", raw)
	}
}
