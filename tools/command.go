package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/adder-cli/adder/errors"
)

// ShellTool runs OS commands from a configured allowlist.
type ShellTool struct {
	allowedCommands []string
}

func (t *ShellTool) Spec() Spec {
	desc := "Execute a shell command."
	if len(t.allowedCommands) == 0 {
		desc += " No commands are currently allowed."
	} else {
		desc += " Allowed command patterns:\n"
		for _, cmd := range t.allowedCommands {
			desc += fmt.Sprintf("- %s\n", cmd)
		}
	}
	return Spec{
		ToolName:    "SHELL",
		Description: "Run commands on the host shell, restricted to an allowlist.",
		Methods: []MethodSpec{
			{
				Name:        "run_command",
				Description: desc,
				Parameters: map[string]ParameterSpec{
					"command": {Type: "string", Description: "The command line to run", Required: true},
				},
				Destructive: true,
			},
		},
	}
}

func (t *ShellTool) Execute(ctx context.Context, method string, args map[string]interface{}) (string, error) {
	if method != "run_command" {
		return "", errors.New("unknown method '%s'", method)
	}
	command, err := stringArg(args, "command")
	if err != nil {
		return "", err
	}

	allowed, err := isCommandAllowed(command, t.allowedCommands)
	if err != nil {
		return "", err
	}
	if !allowed {
		return "", errors.New("command '%s' is not in the list of allowed commands", command)
	}

	parts := strings.Fields(command)
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", errors.Wrapf(err, "command failed. Output:\n%s", string(output))
	}
	return string(output), nil
}
