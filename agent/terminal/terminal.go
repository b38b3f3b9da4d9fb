// Package terminal is the interactive surface: a read-eval loop over
// stdin with slash commands for managing conversations.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/adder-cli/adder/agent"
	"github.com/adder-cli/adder/conversation"
	"github.com/adder-cli/adder/intent"
	"github.com/adder-cli/adder/tools"
)

// Terminal runs the interactive session.
type Terminal struct {
	agent    *agent.Agent
	store    *conversation.Store
	registry *tools.Registry
	in       *bufio.Reader
	out      io.Writer
	// streamed tracks whether the current reply was already printed
	// incrementally, so the final answer is not printed twice.
	streamed bool
}

func New(store *conversation.Store, registry *tools.Registry, in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		store:    store,
		registry: registry,
		in:       bufio.NewReader(in),
		out:      out,
	}
}

// Bind attaches the agent. Separate from New because the agent's
// callbacks need the terminal first.
func (t *Terminal) Bind(a *agent.Agent) {
	t.agent = a
}

// Callbacks returns the UI hooks the agent should use.
func (t *Terminal) Callbacks() agent.Callbacks {
	return agent.Callbacks{
		Stream: func(chunk string) {
			t.streamed = true
			fmt.Fprint(t.out, chunk)
		},
		Confirm: t.confirm,
		OnTool: func(call intent.ToolCall, res agent.Result) {
			switch {
			case res.Cancelled:
				fmt.Fprintf(t.out, "  ~ %s cancelled\n", call.Name)
			case res.Err != nil:
				fmt.Fprintf(t.out, "  ! %s failed: %v\n", call.Name, res.Err)
			default:
				fmt.Fprintf(t.out, "  * %s ok\n", call.Name)
			}
		},
	}
}

// Run reads input until EOF or /quit.
func (t *Terminal) Run(ctx context.Context) error {
	fmt.Fprintln(t.out, "adder ready. Type /help for commands.")
	for {
		cost, window := t.agent.Usage()
		fmt.Fprintf(t.out, "\n[%d/%d] > ", cost, window)
		line, err := t.in.ReadString('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if strings.HasPrefix(input, "/") {
			if quit := t.command(input); quit {
				return nil
			}
			continue
		}

		t.streamed = false
		reply, err := t.agent.ProcessMessage(ctx, input)
		if err != nil {
			fmt.Fprintf(t.out, "error: %v\n", err)
			continue
		}
		if t.streamed {
			fmt.Fprintln(t.out)
		} else {
			fmt.Fprintln(t.out, reply)
		}
	}
}

func (t *Terminal) command(input string) (quit bool) {
	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprint(t.out, `Commands:
  /new              start a new conversation
  /list             list saved conversations
  /switch <id>      switch to a conversation
  /search <query>   search conversations
  /delete <id>      delete a conversation
  /tools            list available tools
  /tokens           show context window usage
  /quit             exit
`)
	case "/new":
		t.agent.SetConversation(nil)
		fmt.Fprintln(t.out, "Started a new conversation.")
	case "/list":
		t.printConversations(t.store.List())
	case "/switch":
		conv := t.store.Get(arg)
		if conv == nil {
			fmt.Fprintf(t.out, "no conversation %q\n", arg)
			break
		}
		t.agent.SetConversation(conv)
		fmt.Fprintf(t.out, "Switched to %q.\n", conv.Title)
	case "/search":
		if arg == "" {
			fmt.Fprintln(t.out, "usage: /search <query>")
			break
		}
		t.printConversations(t.store.Search(arg))
	case "/delete":
		if !t.store.Delete(arg) {
			fmt.Fprintf(t.out, "no conversation %q\n", arg)
			break
		}
		if err := t.store.Save(); err != nil {
			fmt.Fprintf(t.out, "warning: %v\n", err)
		}
		fmt.Fprintln(t.out, "Deleted.")
	case "/tools":
		for _, spec := range t.registry.Specs() {
			fmt.Fprintf(t.out, "%s: %s\n", spec.ToolName, spec.Description)
			for _, m := range spec.Methods {
				marker := ""
				if m.Destructive {
					marker = " [destructive]"
				}
				fmt.Fprintf(t.out, "  %s%s: %s\n", m.Name, marker, m.Description)
			}
		}
	case "/tokens":
		cost, window := t.agent.Usage()
		pct := 0.0
		if window > 0 {
			pct = 100 * float64(cost) / float64(window)
		}
		fmt.Fprintf(t.out, "context: %d / %d tokens (%.1f%%)\n", cost, window, pct)
	default:
		fmt.Fprintf(t.out, "unknown command %q; try /help\n", cmd)
	}
	return false
}

func (t *Terminal) printConversations(convs []*conversation.Conversation) {
	if len(convs) == 0 {
		fmt.Fprintln(t.out, "no conversations")
		return
	}
	for _, c := range convs {
		fmt.Fprintf(t.out, "%s  %s  %s\n", c.ID, c.Created.Format("2006-01-02 15:04"), c.Title)
	}
}

func (t *Terminal) confirm(prompt string) bool {
	fmt.Fprintf(t.out, "%s [y/N] ", prompt)
	line, err := t.in.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
