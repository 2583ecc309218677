// Package initcmd writes the starter configuration for a project or for the
// current user.
package initcmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aymanbagabas/go-udiff"

	"github.com/npratt/okline/internal/config"
)

// ErrChanged is returned when installed files differ from the templates and
// Force is not set.
var ErrChanged = errors.New("files have changes (use --force to overwrite)")

// Options configures the init command behavior.
type Options struct {
	DryRun bool
	Force  bool
	Global bool
	// Dir is the project root. Defaults to the working directory.
	Dir    string
	Writer io.Writer // Output writer (defaults to os.Stdout)
}

// InstallFile represents a file to be installed.
type InstallFile struct {
	Path    string // Relative path within the target directory
	Content string
}

// Result contains the outcome of the init operation.
type Result struct {
	TargetDir   string
	Created     []string
	Unchanged   []string
	Skipped     []string
	Overwritten []string
}

// FileStatus represents the status of a file to be installed.
type FileStatus struct {
	Path      string
	Exists    bool
	Unchanged bool
	Diff      string // Unified diff if changed
}

// BuildFileList returns the files to install. The project directory also
// gets a .gitignore for logs, locks and backups.
func BuildFileList(global bool) []InstallFile {
	files := []InstallFile{
		{Path: config.ProjectConfigFile, Content: MustReadTemplate("config.yaml")},
	}
	if !global {
		files = append(files, InstallFile{Path: ".gitignore", Content: MustReadTemplate("gitignore")})
	}
	return files
}

// Run executes the init command with the given options.
func Run(opts Options) (*Result, error) {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	targetDir, err := getTargetDir(opts)
	if err != nil {
		return nil, err
	}
	files := BuildFileList(opts.Global)
	statuses := checkFileStatuses(targetDir, files)

	if opts.DryRun {
		return showDryRun(opts.Writer, targetDir, files, statuses), nil
	}

	changed := false
	for _, s := range statuses {
		if s.Exists && !s.Unchanged {
			changed = true
		}
	}
	if changed && !opts.Force {
		return showChanges(opts.Writer, targetDir, statuses)
	}

	return installFiles(opts.Writer, targetDir, files, statuses)
}

// getTargetDir returns the directory the files are written to.
func getTargetDir(opts Options) (string, error) {
	if opts.Global {
		configDir := os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
		return filepath.Join(configDir, config.GlobalConfigDir), nil
	}
	return filepath.Join(opts.Dir, config.ProjectConfigDir), nil
}

// checkFileStatuses checks each file and returns its status.
func checkFileStatuses(targetDir string, files []InstallFile) []FileStatus {
	statuses := make([]FileStatus, 0, len(files))
	for _, f := range files {
		status := FileStatus{Path: f.Path}
		existing, err := os.ReadFile(filepath.Join(targetDir, f.Path))
		if err == nil {
			status.Exists = true
			if string(existing) == f.Content {
				status.Unchanged = true
			} else {
				status.Diff = udiff.Unified("existing", "new", string(existing), f.Content)
			}
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// showDryRun displays what would be changed without making changes.
func showDryRun(w io.Writer, targetDir string, files []InstallFile, statuses []FileStatus) *Result {
	_, _ = fmt.Fprintln(w, "DRY RUN - No changes will be made")
	_, _ = fmt.Fprintln(w)

	result := &Result{TargetDir: targetDir}
	for i, f := range files {
		path := filepath.Join(targetDir, f.Path)
		status := statuses[i]
		switch {
		case status.Unchanged:
			_, _ = fmt.Fprintf(w, "Already up to date: %s\n", path)
			result.Unchanged = append(result.Unchanged, f.Path)
		case status.Exists:
			_, _ = fmt.Fprintf(w, "Would overwrite (has changes): %s\n", path)
			_, _ = fmt.Fprintln(w, status.Diff)
			result.Skipped = append(result.Skipped, f.Path)
		default:
			_, _ = fmt.Fprintf(w, "Would create: %s\n", path)
			_, _ = fmt.Fprintln(w, "--- BEGIN FILE ---")
			_, _ = fmt.Fprint(w, f.Content)
			_, _ = fmt.Fprintln(w, "--- END FILE ---")
			_, _ = fmt.Fprintln(w)
			result.Created = append(result.Created, f.Path)
		}
	}

	_, _ = fmt.Fprintln(w, "Run without --dry-run to apply changes.")
	return result
}

// showChanges displays files with changes and their diffs.
func showChanges(w io.Writer, targetDir string, statuses []FileStatus) (*Result, error) {
	result := &Result{TargetDir: targetDir}

	_, _ = fmt.Fprintln(w, "The following files have changes:")
	_, _ = fmt.Fprintln(w)
	for _, s := range statuses {
		if !s.Exists {
			continue
		}
		if s.Unchanged {
			result.Unchanged = append(result.Unchanged, s.Path)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s:\n", filepath.Join(targetDir, s.Path))
		_, _ = fmt.Fprintln(w, s.Diff)
		result.Skipped = append(result.Skipped, s.Path)
	}

	_, _ = fmt.Fprintln(w, "Use --force to overwrite changed files.")
	return result, ErrChanged
}

// installFiles creates the target directory and writes every file that is
// missing or differs.
func installFiles(w io.Writer, targetDir string, files []InstallFile, statuses []FileStatus) (*Result, error) {
	result := &Result{TargetDir: targetDir}
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return result, fmt.Errorf("create directory %s: %w", targetDir, err)
	}

	for i, f := range files {
		path := filepath.Join(targetDir, f.Path)
		status := statuses[i]
		if status.Unchanged {
			_, _ = fmt.Fprintf(w, "Already up to date: %s\n", path)
			result.Unchanged = append(result.Unchanged, f.Path)
			continue
		}
		if err := os.WriteFile(path, []byte(f.Content), 0644); err != nil {
			return result, fmt.Errorf("write %s: %w", path, err)
		}
		if status.Exists {
			_, _ = fmt.Fprintf(w, "Overwrote: %s\n", path)
			result.Overwritten = append(result.Overwritten, f.Path)
		} else {
			_, _ = fmt.Fprintf(w, "Created: %s\n", path)
			result.Created = append(result.Created, f.Path)
		}
	}
	return result, nil
}
