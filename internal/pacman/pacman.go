// Package pacman shells out to the local package manager and parses its
// line-oriented output. Every invocation forces the C locale so parsing is
// stable across user locales.
package pacman

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner executes a command and returns its stdout. It exists so parsers can
// be exercised against captured output in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs real subprocesses.
type ExecRunner struct{}

// Run executes the command with the C locale forced.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "LC_ALL=C", "LANG=C")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// Client wraps a Runner with pacman-specific queries.
type Client struct {
	runner Runner
}

// New builds a Client; a nil runner uses real subprocesses.
func New(runner Runner) *Client {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Client{runner: runner}
}

// Runner exposes the underlying subprocess runner for callers that need to
// invoke tools other than pacman with the same environment discipline.
func (c *Client) Runner() Runner {
	return c.runner
}

// RepoPackage is one line of `pacman -Sl <repo>` output.
type RepoPackage struct {
	Repo    string
	Name    string
	Version string
}

// ListRepo returns the packages of one sync repository via `pacman -Sl`.
// A missing repo (non-zero exit) yields an empty slice and the error.
func (c *Client) ListRepo(ctx context.Context, repo string) ([]RepoPackage, error) {
	out, err := c.runner.Run(ctx, "pacman", "-Sl", repo)
	if err != nil {
		return nil, err
	}
	return ParseRepoList(string(out)), nil
}

// ParseRepoList parses `repo name version [installed]` lines.
func ParseRepoList(text string) []RepoPackage {
	var pkgs []RepoPackage
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		pkgs = append(pkgs, RepoPackage{Repo: fields[0], Name: fields[1], Version: fields[2]})
	}
	return pkgs
}

// InstalledNames returns every installed package name (`pacman -Qq`).
func (c *Client) InstalledNames(ctx context.Context) (map[string]struct{}, error) {
	return c.nameSet(ctx, "-Qq")
}

// ExplicitNames returns explicitly-installed package names (`pacman -Qeq`).
func (c *Client) ExplicitNames(ctx context.Context) (map[string]struct{}, error) {
	return c.nameSet(ctx, "-Qeq")
}

func (c *Client) nameSet(ctx context.Context, flag string) (map[string]struct{}, error) {
	out, err := c.runner.Run(ctx, "pacman", flag)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, line := range strings.Split(string(out), "\n") {
		name := strings.TrimSpace(line)
		if name != "" {
			set[name] = struct{}{}
		}
	}
	return set, nil
}

// InstalledVersion returns the installed version of name, or "" when the
// package is not installed.
func (c *Client) InstalledVersion(ctx context.Context, name string) string {
	out, err := c.runner.Run(ctx, "pacman", "-Q", name)
	if err != nil {
		return ""
	}
	fields := strings.Fields(string(out))
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// FileListRemote returns the file paths a sync-database package would
// install, via `pacman -Fl`.
func (c *Client) FileListRemote(ctx context.Context, name string) ([]string, error) {
	out, err := c.runner.Run(ctx, "pacman", "-Fl", name)
	if err != nil {
		return nil, err
	}
	return parseFileList(string(out)), nil
}

// FileListLocal returns the file paths an installed package owns, via
// `pacman -Ql`.
func (c *Client) FileListLocal(ctx context.Context, name string) ([]string, error) {
	out, err := c.runner.Run(ctx, "pacman", "-Ql", name)
	if err != nil {
		return nil, err
	}
	return parseFileList(string(out)), nil
}

// parseFileList parses "<pkg> <path>" lines, skipping directories.
func parseFileList(text string) []string {
	var files []string
	for _, line := range strings.Split(text, "\n") {
		idx := strings.IndexByte(line, ' ')
		if idx < 0 {
			continue
		}
		path := strings.TrimSpace(line[idx+1:])
		if path == "" || strings.HasSuffix(path, "/") {
			continue
		}
		files = append(files, path)
	}
	return files
}
