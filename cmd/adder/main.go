package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/adder-cli/adder/agent"
	"github.com/adder-cli/adder/agent/terminal"
	"github.com/adder-cli/adder/config"
	"github.com/adder-cli/adder/conversation"
	"github.com/adder-cli/adder/llm"
	"github.com/adder-cli/adder/tools"
)

const stateDir = ".adder"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "adder:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		modelFlag   = flag.String("model", "", "model name (overrides configuration)")
		clientFlag  = flag.String("llm", "", "llm backend: openai, anthropic, gemini, bedrock, mock")
		toolsetFlag = flag.String("toolset", "", "restrict tools to a named toolset")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if *modelFlag != "" {
		cfg.Model = *modelFlag
	}
	if *clientFlag != "" {
		cfg.LLMClient = *clientFlag
	}

	logger, closeLog := newLogger()
	defer closeLog()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}
	if closer, ok := client.(io.Closer); ok {
		defer closer.Close()
	}

	var toolset *config.Toolset
	if *toolsetFlag != "" {
		toolset, err = cfg.GetToolset(*toolsetFlag)
		if err != nil {
			return err
		}
	}
	registry, err := tools.NewRegistry(cfg, toolset)
	if err != nil {
		return err
	}
	defer registry.Close()

	store := conversation.OpenStore(filepath.Join(stateDir, "conversations.json"))

	term := terminal.New(store, registry, os.Stdin, os.Stdout)
	a := agent.New(cfg, client, registry, store, term.Callbacks(), logger)
	term.Bind(a)

	return term.Run(ctx)
}

func newClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	switch cfg.LLMClient {
	case "openai":
		return llm.NewOpenAIClient(cfg.Model)
	case "anthropic":
		return llm.NewAnthropicClient(cfg.Model)
	case "gemini":
		return llm.NewGeminiClient(ctx, cfg.Model)
	case "bedrock":
		return llm.NewBedrockClient(ctx, cfg.Model)
	case "mock":
		return &llm.MockClient{}, nil
	default:
		return nil, fmt.Errorf("unknown llm backend %q", cfg.LLMClient)
	}
}

// newLogger writes structured logs to a file under the state directory
// so they do not interleave with the interactive session. If the file
// cannot be opened, logs are dropped.
func newLogger() (*slog.Logger, func()) {
	if err := os.MkdirAll(stateDir, 0o755); err == nil {
		f, err := os.OpenFile(filepath.Join(stateDir, "adder.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			return slog.New(slog.NewTextHandler(f, nil)), func() { f.Close() }
		}
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}
}
