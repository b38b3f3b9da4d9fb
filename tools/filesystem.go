package tools

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/adder-cli/adder/config"
	"github.com/adder-cli/adder/errors"
)

// FileExplorerTool provides read-only filesystem access.
type FileExplorerTool struct {
	fsAccess *config.FilesystemAccess
}

func (t *FileExplorerTool) Spec() Spec {
	return Spec{
		ToolName:    "FILE_EXPLORER",
		Description: "Read-only access to files and directories in the working tree.",
		Methods: []MethodSpec{
			{
				Name:        "read_file",
				Description: "Read the entire content of a file.",
				Parameters: map[string]ParameterSpec{
					"path": {Type: "string", Description: "Path of the file to read", Required: true},
				},
			},
			{
				Name:        "list_directory",
				Description: "List the entries of a directory.",
				Parameters: map[string]ParameterSpec{
					"path": {Type: "string", Description: "Directory to list", Required: true},
				},
			},
		},
	}
}

func (t *FileExplorerTool) Execute(ctx context.Context, method string, args map[string]interface{}) (string, error) {
	switch method {
	case "read_file":
		return t.readFile(args)
	case "list_directory":
		return t.listDirectory(args)
	}
	return "", errors.New("unknown method '%s'", method)
}

func (t *FileExplorerTool) readFile(args map[string]interface{}) (string, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return "", err
	}
	if err := t.checkHidden(path); err != nil {
		return "", err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read file '%s'", path)
	}
	return string(content), nil
}

func (t *FileExplorerTool) listDirectory(args map[string]interface{}) (string, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return "", err
	}
	if err := t.checkHidden(path); err != nil {
		return "", err
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to list directory '%s'", path)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "\n"), nil
}

func (t *FileExplorerTool) checkHidden(path string) error {
	hidden, err := isPathRestricted(path, t.fsAccess.Hidden)
	if err != nil {
		return err
	}
	if hidden {
		return errors.New("access denied: path '%s' is hidden", path)
	}
	return nil
}

// FileManagerTool mutates the filesystem; all of its methods are
// destructive.
type FileManagerTool struct {
	fsAccess *config.FilesystemAccess
}

func (t *FileManagerTool) Spec() Spec {
	return Spec{
		ToolName:    "FILE_MANAGER",
		Description: "Create and delete files in the working tree.",
		Methods: []MethodSpec{
			{
				Name:        "create_file",
				Description: "Write content to a file, replacing it entirely.",
				Parameters: map[string]ParameterSpec{
					"path":    {Type: "string", Description: "Path of the file to write", Required: true},
					"content": {Type: "string", Description: "Full file content", Required: true},
				},
				Destructive: true,
			},
			{
				Name:        "delete_file",
				Description: "Delete a file.",
				Parameters: map[string]ParameterSpec{
					"path": {Type: "string", Description: "Path of the file to delete", Required: true},
				},
				Destructive: true,
			},
		},
	}
}

func (t *FileManagerTool) Execute(ctx context.Context, method string, args map[string]interface{}) (string, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return "", err
	}
	if err := t.checkWritable(path); err != nil {
		return "", err
	}

	switch method {
	case "create_file":
		content, _ := args["content"].(string)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return "", errors.Wrapf(err, "failed to write file '%s'", path)
		}
		return fmt.Sprintf("Wrote %d bytes to %s", len(content), path), nil
	case "delete_file":
		if err := os.Remove(path); err != nil {
			return "", errors.Wrapf(err, "failed to delete file '%s'", path)
		}
		return fmt.Sprintf("Deleted %s", path), nil
	}
	return "", errors.New("unknown method '%s'", method)
}

func (t *FileManagerTool) checkWritable(path string) error {
	hidden, err := isPathRestricted(path, t.fsAccess.Hidden)
	if err != nil {
		return err
	}
	if hidden {
		return errors.New("access denied: path '%s' is hidden", path)
	}
	readOnly, err := isPathRestricted(path, t.fsAccess.ReadOnly)
	if err != nil {
		return err
	}
	if readOnly {
		return errors.New("access denied: path '%s' is read-only", path)
	}
	return nil
}
