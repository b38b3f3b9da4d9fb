package agent

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adder-cli/adder/config"
	"github.com/adder-cli/adder/conversation"
	"github.com/adder-cli/adder/llm"
	"github.com/adder-cli/adder/tools"
)

// fakeTool is a scriptable capability provider for exercising the
// gateway and plan executor without touching the real host.
type fakeTool struct {
	spec tools.Spec
	fn   func(method string, args map[string]interface{}) (string, error)
}

func (f *fakeTool) Spec() tools.Spec { return f.spec }

func (f *fakeTool) Execute(ctx context.Context, method string, args map[string]interface{}) (string, error) {
	return f.fn(method, args)
}

func newWorkTool(fn func(method string, args map[string]interface{}) (string, error)) *fakeTool {
	return &fakeTool{
		spec: tools.Spec{
			ToolName:    "WORK",
			Description: "test workload",
			Methods: []tools.MethodSpec{
				{Name: "step", Description: "do one step"},
				{Name: "wipe", Description: "destroy something", Destructive: true},
			},
		},
		fn: fn,
	}
}

func newTestRegistry(t *testing.T, extra ...tools.Tool) *tools.Registry {
	t.Helper()
	r, err := tools.NewRegistry(config.Default(), nil)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	for _, tool := range extra {
		r.Register(tool)
	}
	return r
}

func newTestStore(t *testing.T) *conversation.Store {
	t.Helper()
	return conversation.OpenStore(filepath.Join(t.TempDir(), "conversations.json"))
}

// errClient always fails; used to exercise fallback paths.
type errClient struct{ err error }

func (e *errClient) Chat(ctx context.Context, messages []conversation.Message, stream llm.StreamFunc) (string, error) {
	return "", e.err
}
