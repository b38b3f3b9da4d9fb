package config

import (
	"os"
	"path/filepath"

	"github.com/adder-cli/adder/errors"
	"gopkg.in/yaml.v3"
)

// FilesystemAccess restricts which paths the filesystem tools may touch.
// Patterns are doublestar globs.
type FilesystemAccess struct {
	Hidden   []string `yaml:"hidden"`
	ReadOnly []string `yaml:"read_only"`
}

// MCPServer describes an external MCP server subprocess whose tools are
// exposed to the agent as one capability provider.
type MCPServer struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// Toolset names a subset of the registered tools to activate.
type Toolset struct {
	Name  string   `yaml:"name"`
	Tools []string `yaml:"tools"`
}

// Policy controls when tool invocations execute without operator
// confirmation. Read-only during a turn; the user may change it between
// turns.
type Policy struct {
	ToolsEnabled              bool `yaml:"tools_enabled"`
	AutoExecuteNonDestructive bool `yaml:"auto_execute_non_destructive"`
	AutoExecuteDestructive    bool `yaml:"auto_execute_destructive"`
}

// Context holds the context-window management knobs.
type Context struct {
	TokenWindowSize      int     `yaml:"token_window_size"`
	CompressionThreshold float64 `yaml:"compression_threshold"`
	RecentMessagesToKeep int     `yaml:"recent_messages_to_keep"`
}

// WebSearch holds the Google Custom Search credentials for the
// WEB_SEARCH tool.
type WebSearch struct {
	APIKey         string `yaml:"api_key"`
	SearchEngineID string `yaml:"search_engine_id"`
}

type Config struct {
	LLMClient            string           `yaml:"llm"`
	Model                string           `yaml:"model"`
	Policy               Policy           `yaml:"policy"`
	Context              Context          `yaml:"context"`
	MaxRetries           int              `yaml:"max_retries"`
	ReevaluationEnabled  bool             `yaml:"reevaluation_enabled"`
	ShowStreaming        bool             `yaml:"show_streaming"`
	Toolsets             []Toolset        `yaml:"toolsets"`
	AdditionalMCPServers []MCPServer      `yaml:"additional_mcp_servers"`
	AllowedCommands      []string         `yaml:"allowed_commands"`
	FilesystemAccess     FilesystemAccess `yaml:"filesystem_access"`
	WebSearch            WebSearch        `yaml:"web_search"`
}

// Default returns the configuration used when no file overrides a field.
func Default() *Config {
	return &Config{
		LLMClient: "openai",
		Model:     "gpt-4o",
		Policy: Policy{
			ToolsEnabled:              true,
			AutoExecuteNonDestructive: true,
			AutoExecuteDestructive:    false,
		},
		Context: Context{
			TokenWindowSize:      4096,
			CompressionThreshold: 0.8,
			RecentMessagesToKeep: 10,
		},
		MaxRetries:          3,
		ReevaluationEnabled: true,
		ShowStreaming:       true,
		FilesystemAccess: FilesystemAccess{
			// The agent's own state directory is never visible to tools.
			Hidden: []string{".adder", ".adder/**"},
		},
	}
}

// LoadConfig loads configuration from the user's home directory and the
// current working directory, with the latter taking precedence.
func LoadConfig() (*Config, error) {
	cfg := Default()

	home, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(home, ".adder", "config.yaml")
		if _, err := os.Stat(userConfigPath); err == nil {
			if err := loadFromFile(userConfigPath, cfg); err != nil {
				return nil, errors.Wrapf(err, "error loading user config")
			}
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	projectConfigPath := filepath.Join(wd, ".adder", "config.yaml")
	if _, err := os.Stat(projectConfigPath); err == nil {
		if err := loadFromFile(projectConfigPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading project config")
		}
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Unmarshal overwrites only fields present in the YAML, giving a
	// simple merge where project-level config replaces user-level.
	return yaml.Unmarshal(data, cfg)
}

// GetToolset finds a toolset by name. An empty name or an unknown name
// falls back to the "default" toolset; when no toolsets are configured
// at all, every registered tool is active and GetToolset returns nil.
func (c *Config) GetToolset(name string) (*Toolset, error) {
	if len(c.Toolsets) == 0 {
		return nil, nil
	}
	if name == "" {
		name = "default"
	}
	for _, ts := range c.Toolsets {
		if ts.Name == name {
			return &ts, nil
		}
	}
	if name == "default" {
		return nil, errors.New("mandatory 'default' toolset not found in configuration")
	}
	return c.GetToolset("default")
}
