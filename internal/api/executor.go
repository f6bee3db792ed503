package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	cmdexec "github.com/ShayCichocki/agentlabs/internal/exec"
)

const maxToolOutput = 30000

var errOutsideWorkspace = errors.New("path escapes the workspace")

// WorkspaceTools is the code-execution toolset: file access and a shell,
// confined to a single working directory.
type WorkspaceTools struct {
	workDir string
	shell   cmdexec.CommandRunner
}

// NewWorkspaceTools creates a toolset rooted at workDir.
func NewWorkspaceTools(workDir string) *WorkspaceTools {
	abs, err := filepath.Abs(workDir)
	if err != nil {
		abs = workDir
	}
	return &WorkspaceTools{workDir: abs, shell: cmdexec.NewRunner()}
}

// WithCommandRunner replaces the runner used by the Bash tool.
func (w *WorkspaceTools) WithCommandRunner(r cmdexec.CommandRunner) *WorkspaceTools {
	w.shell = r
	return w
}

// WorkDir returns the workspace root.
func (w *WorkspaceTools) WorkDir() string {
	return w.workDir
}

// Definitions implements Toolset.
func (w *WorkspaceTools) Definitions() []anthropic.ToolUnionParam {
	return ToolDefinitions()
}

// Execute runs a tool by name with the given JSON input.
func (w *WorkspaceTools) Execute(ctx context.Context, name string, input json.RawMessage) ToolResult {
	switch name {
	case "Read":
		return w.execRead(input)
	case "Write":
		return w.execWrite(input)
	case "Edit":
		return w.execEdit(input)
	case "Bash":
		return w.execBash(ctx, input)
	case "Glob":
		return w.execGlob(input)
	case "Grep":
		return w.execGrep(ctx, input)
	case "ListDir":
		return w.execListDir(input)
	default:
		return ToolResult{Content: fmt.Sprintf("Unknown tool: %s", name), IsError: true}
	}
}

func invalidParams(err error) ToolResult {
	return ToolResult{Content: fmt.Sprintf("Invalid parameters: %v", err), IsError: true}
}

func (w *WorkspaceTools) execRead(input json.RawMessage) ToolResult {
	var params struct {
		FilePath string `json:"file_path"`
		Offset   int    `json:"offset"`
		Limit    int    `json:"limit"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return invalidParams(err)
	}

	path, err := w.resolvePath(params.FilePath)
	if err != nil {
		return ToolResult{Content: err.Error(), IsError: true}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return ToolResult{Content: fmt.Sprintf("Failed to read file: %v", err), IsError: true}
	}

	lines := strings.Split(string(content), "\n")

	start := 0
	if params.Offset > 0 {
		start = params.Offset - 1
		if start >= len(lines) {
			return ToolResult{Content: "Offset beyond end of file", IsError: true}
		}
	}

	end := len(lines)
	if params.Limit > 0 {
		end = min(start+params.Limit, len(lines))
	}

	var result strings.Builder
	for i := start; i < end; i++ {
		fmt.Fprintf(&result, "%6d\t%s\n", i+1, lines[i])
	}

	return ToolResult{Content: result.String()}
}

func (w *WorkspaceTools) execWrite(input json.RawMessage) ToolResult {
	var params struct {
		FilePath string `json:"file_path"`
		Content  string `json:"content"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return invalidParams(err)
	}

	path, err := w.resolvePath(params.FilePath)
	if err != nil {
		return ToolResult{Content: err.Error(), IsError: true}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return ToolResult{Content: fmt.Sprintf("Failed to create directory: %v", err), IsError: true}
	}
	if err := os.WriteFile(path, []byte(params.Content), 0644); err != nil {
		return ToolResult{Content: fmt.Sprintf("Failed to write file: %v", err), IsError: true}
	}

	return ToolResult{Content: fmt.Sprintf("Successfully wrote %d bytes to %s", len(params.Content), params.FilePath)}
}

func (w *WorkspaceTools) execEdit(input json.RawMessage) ToolResult {
	var params struct {
		FilePath   string `json:"file_path"`
		OldString  string `json:"old_string"`
		NewString  string `json:"new_string"`
		ReplaceAll bool   `json:"replace_all"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return invalidParams(err)
	}

	path, err := w.resolvePath(params.FilePath)
	if err != nil {
		return ToolResult{Content: err.Error(), IsError: true}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return ToolResult{Content: fmt.Sprintf("Failed to read file: %v", err), IsError: true}
	}

	text := string(content)
	count := strings.Count(text, params.OldString)
	switch {
	case params.OldString == "" || count == 0:
		return ToolResult{Content: "old_string not found in file", IsError: true}
	case count > 1 && !params.ReplaceAll:
		return ToolResult{
			Content: fmt.Sprintf("old_string found %d times; must be unique or use replace_all=true", count),
			IsError: true,
		}
	}

	n := 1
	if params.ReplaceAll {
		n = -1
	}
	if err := os.WriteFile(path, []byte(strings.Replace(text, params.OldString, params.NewString, n)), 0644); err != nil {
		return ToolResult{Content: fmt.Sprintf("Failed to write file: %v", err), IsError: true}
	}

	if params.ReplaceAll {
		return ToolResult{Content: fmt.Sprintf("Replaced %d occurrences", count)}
	}
	return ToolResult{Content: "Edit successful"}
}

func (w *WorkspaceTools) execBash(ctx context.Context, input json.RawMessage) ToolResult {
	var params struct {
		Command     string `json:"command"`
		Timeout     int    `json:"timeout"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return invalidParams(err)
	}

	timeout := 120 * time.Second
	if params.Timeout > 0 {
		timeout = time.Duration(params.Timeout) * time.Millisecond
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	output, err := w.shell.RunShell(ctx, w.workDir, params.Command)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return ToolResult{
				Content: fmt.Sprintf("Command timed out after %v:\n%s", timeout, string(output)),
				IsError: true,
			}
		}
		return ToolResult{
			Content: fmt.Sprintf("%s\nError: %v", string(output), err),
			IsError: true,
		}
	}

	return ToolResult{Content: truncateOutput(string(output))}
}

func (w *WorkspaceTools) execGlob(input json.RawMessage) ToolResult {
	var params struct {
		Pattern string `json:"pattern"`
		Path    string `json:"path"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return invalidParams(err)
	}

	searchPath, err := w.resolvePath(params.Path)
	if err != nil {
		return ToolResult{Content: err.Error(), IsError: true}
	}

	var matches []string
	err = filepath.WalkDir(searchPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != searchPath && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if matched, _ := filepath.Match(filepath.Base(params.Pattern), d.Name()); matched {
			relPath, _ := filepath.Rel(searchPath, path)
			matches = append(matches, relPath)
		}
		return nil
	})
	if err != nil {
		return ToolResult{Content: fmt.Sprintf("Glob error: %v", err), IsError: true}
	}

	if len(matches) == 0 {
		return ToolResult{Content: "No files matched the pattern"}
	}
	return ToolResult{Content: strings.Join(matches, "\n")}
}

// execGrep scans files with Go regexps so the toolset has no external binaries.
func (w *WorkspaceTools) execGrep(ctx context.Context, input json.RawMessage) ToolResult {
	var params struct {
		Pattern string `json:"pattern"`
		Path    string `json:"path"`
		Glob    string `json:"glob"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return invalidParams(err)
	}

	re, err := regexp.Compile(params.Pattern)
	if err != nil {
		return ToolResult{Content: fmt.Sprintf("Invalid pattern: %v", err), IsError: true}
	}

	searchPath, err := w.resolvePath(params.Path)
	if err != nil {
		return ToolResult{Content: err.Error(), IsError: true}
	}

	var out strings.Builder
	walkErr := filepath.WalkDir(searchPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != searchPath && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if params.Glob != "" {
			if ok, _ := filepath.Match(params.Glob, d.Name()); !ok {
				return nil
			}
		}
		grepFile(&out, re, searchPath, path)
		if out.Len() > maxToolOutput {
			return filepath.SkipAll
		}
		return nil
	})
	if walkErr != nil {
		return ToolResult{Content: fmt.Sprintf("Grep error: %v", walkErr), IsError: true}
	}

	if out.Len() == 0 {
		return ToolResult{Content: "No matches found"}
	}
	return ToolResult{Content: truncateOutput(out.String())}
}

func grepFile(out *strings.Builder, re *regexp.Regexp, root, path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	rel, _ := filepath.Rel(root, path)
	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		if line := scanner.Text(); re.MatchString(line) {
			fmt.Fprintf(out, "%s:%d:%s\n", rel, n, line)
		}
	}
}

func (w *WorkspaceTools) execListDir(input json.RawMessage) ToolResult {
	var params struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return invalidParams(err)
	}

	path, err := w.resolvePath(params.Path)
	if err != nil {
		return ToolResult{Content: err.Error(), IsError: true}
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return ToolResult{Content: fmt.Sprintf("Failed to read directory: %v", err), IsError: true}
	}

	var result strings.Builder
	for _, entry := range entries {
		if entry.IsDir() {
			fmt.Fprintf(&result, "d %s/\n", entry.Name())
			continue
		}
		if info, err := entry.Info(); err == nil {
			fmt.Fprintf(&result, "- %s (%d bytes)\n", entry.Name(), info.Size())
		} else {
			fmt.Fprintf(&result, "? %s\n", entry.Name())
		}
	}

	return ToolResult{Content: result.String()}
}

// resolvePath maps path into the workspace; an empty path is the root.
func (w *WorkspaceTools) resolvePath(path string) (string, error) {
	if path == "" {
		return w.workDir, nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(w.workDir, path)
	}
	path = filepath.Clean(path)

	rel, err := filepath.Rel(w.workDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", errOutsideWorkspace, path)
	}
	return path, nil
}

func truncateOutput(s string) string {
	if len(s) > maxToolOutput {
		return s[:maxToolOutput] + "\n... (output truncated)"
	}
	return s
}

// FormatToolAction returns a human-readable description of a tool call.
func FormatToolAction(name string, input json.RawMessage) string {
	var p struct {
		FilePath    string `json:"file_path"`
		Command     string `json:"command"`
		Description string `json:"description"`
		Pattern     string `json:"pattern"`
		Symbol      string `json:"symbol"`
		Quantity    int    `json:"quantity"`
	}
	json.Unmarshal(input, &p)

	switch name {
	case "Read":
		return "Reading " + filepath.Base(p.FilePath)
	case "Write":
		return "Writing " + filepath.Base(p.FilePath)
	case "Edit":
		return "Editing " + filepath.Base(p.FilePath)
	case "Bash":
		if p.Description != "" {
			return p.Description
		}
		cmd := strings.Split(p.Command, " ")[0]
		if len(cmd) > 20 {
			cmd = cmd[:17] + "..."
		}
		return "Running " + cmd
	case "Glob":
		return "Searching " + p.Pattern
	case "Grep":
		pat := p.Pattern
		if len(pat) > 15 {
			pat = pat[:12] + "..."
		}
		return "Grep " + pat
	case "ListDir":
		return "Listing directory"
	case "buy_shares":
		return fmt.Sprintf("Buying %d %s", p.Quantity, p.Symbol)
	case "sell_shares":
		return fmt.Sprintf("Selling %d %s", p.Quantity, p.Symbol)
	case "lookup_share_price":
		return "Price " + p.Symbol
	default:
		return name
	}
}
