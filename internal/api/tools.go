package api

import (
	"github.com/anthropics/anthropic-sdk-go"
)

// Prop describes one JSON-schema property of a tool input.
type Prop struct {
	Type        string
	Description string
}

// NewTool builds a tool schema from a flat property list.
func NewTool(name, description string, props map[string]Prop, required ...string) anthropic.ToolUnionParam {
	properties := make(map[string]interface{}, len(props))
	for key, p := range props {
		properties[key] = map[string]interface{}{
			"type":        p.Type,
			"description": p.Description,
		}
	}
	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        name,
			Description: anthropic.String(description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: properties,
				Required:   required,
			},
		},
	}
}

// ToolNames lists the names in a set of tool definitions, in order.
func ToolNames(defs []anthropic.ToolUnionParam) []string {
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		if d.OfTool != nil {
			names = append(names, d.OfTool.Name)
		}
	}
	return names
}

// ToolDefinitions returns the code-execution tool schemas granted to agents
// that allow it. Paths are relative to the agent's workspace.
func ToolDefinitions() []anthropic.ToolUnionParam {
	return []anthropic.ToolUnionParam{
		NewTool("Read", "Read a file from the workspace. Returns file contents with line numbers.", map[string]Prop{
			"file_path": {"string", "Path to the file to read"},
			"offset":    {"integer", "Line number to start reading from (1-indexed, optional)"},
			"limit":     {"integer", "Maximum number of lines to read (optional)"},
		}, "file_path"),
		NewTool("Write", "Write content to a file. Creates parent directories if needed.", map[string]Prop{
			"file_path": {"string", "Path to the file to write"},
			"content":   {"string", "Content to write to the file"},
		}, "file_path", "content"),
		NewTool("Edit", "Edit a file by replacing text. The old_string must be unique unless replace_all is true.", map[string]Prop{
			"file_path":   {"string", "Path to the file to edit"},
			"old_string":  {"string", "The exact text to find and replace"},
			"new_string":  {"string", "The text to replace it with"},
			"replace_all": {"boolean", "If true, replace all occurrences (default: false)"},
		}, "file_path", "old_string", "new_string"),
		NewTool("Bash", "Execute a bash command in the workspace and return the output.", map[string]Prop{
			"command":     {"string", "The bash command to execute"},
			"timeout":     {"integer", "Timeout in milliseconds (optional, default 120000)"},
			"description": {"string", "Description of what this command does"},
		}, "command"),
		NewTool("Glob", "Find files whose names match a glob pattern.", map[string]Prop{
			"pattern": {"string", "Glob pattern to match (e.g., '*.py')"},
			"path":    {"string", "Directory to search in (optional, defaults to the workspace)"},
		}, "pattern"),
		NewTool("Grep", "Search file contents using a regular expression.", map[string]Prop{
			"pattern": {"string", "Regex pattern to search for"},
			"path":    {"string", "File or directory to search in (optional)"},
			"glob":    {"string", "Glob pattern to filter file names (e.g., '*.py')"},
		}, "pattern"),
		NewTool("ListDir", "List contents of a directory.", map[string]Prop{
			"path": {"string", "Directory path to list"},
		}, "path"),
	}
}
