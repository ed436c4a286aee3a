// Package exec runs the staged package-manager command and streams its
// output back to the coordinator, including carriage-return progress
// updates that should replace the previous line instead of appending.
package exec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/kajell/pacterm/internal/state"
)

// OutputKind discriminates executor stream messages.
type OutputKind int

const (
	// Line appends a new log line.
	Line OutputKind = iota
	// ReplaceLastLine overwrites the previous line, used for progress bars
	// the child emits via carriage return.
	ReplaceLastLine
	// Finished ends the stream with the child's exit status.
	Finished
	// Error reports a failure to start or read the child.
	Error
)

// Output is one executor stream message.
type Output struct {
	Kind     OutputKind
	Text     string
	Success  bool
	ExitCode int
}

// Executor spawns the package-manager command for a staged list.
type Executor struct {
	Out    chan Output
	DryRun bool
	Logger *log.Logger
}

func New(dryRun bool, logger *log.Logger) *Executor {
	return &Executor{
		Out:    make(chan Output, 256),
		DryRun: dryRun,
		Logger: logger,
	}
}

// Command builds the shell command for an action over the staged names.
// Official installs and removals go through pacman; an AUR helper takes
// over when any staged package comes from the AUR.
func Command(action state.Action, items []state.PackageItem) []string {
	names := make([]string, 0, len(items))
	hasAUR := false
	for _, it := range items {
		names = append(names, it.Name)
		if it.Source.IsAUR() {
			hasAUR = true
		}
	}
	switch action {
	case state.ActionRemove:
		return append([]string{"sudo", "pacman", "-Rns"}, names...)
	case state.ActionDowngrade:
		return append([]string{"sudo", "downgrade"}, names...)
	default:
		if hasAUR {
			if helper := aurHelper(); helper != "" {
				return append([]string{helper, "-S", "--needed"}, names...)
			}
		}
		return append([]string{"sudo", "pacman", "-S", "--needed"}, names...)
	}
}

// aurHelper returns the first AUR helper found on PATH.
func aurHelper() string {
	for _, h := range []string{"paru", "yay"} {
		if _, err := exec.LookPath(h); err == nil {
			return h
		}
	}
	return ""
}

// Run executes argv and streams output until the child exits. In dry-run
// mode it emits the command preview and a successful Finished without
// spawning anything. Run blocks; callers start it in a goroutine and drain
// Out until Finished or Error.
func (e *Executor) Run(ctx context.Context, argv []string) {
	if len(argv) == 0 {
		e.send(Output{Kind: Error, Text: "nothing to execute"})
		return
	}
	preview := strings.Join(argv, " ")
	e.send(Output{Kind: Line, Text: "$ " + preview})

	if e.DryRun {
		e.send(Output{Kind: Line, Text: "dry run: command not executed"})
		e.send(Output{Kind: Finished, Success: true, ExitCode: 0})
		return
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), "LC_ALL=C", "LANG=C")
	cmd.Stdin = os.Stdin

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		e.send(Output{Kind: Error, Text: err.Error()})
		return
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		e.send(Output{Kind: Error, Text: fmt.Sprintf("start %s: %v", argv[0], err)})
		return
	}
	if e.Logger != nil {
		e.Logger.Info("executor started", "cmd", preview)
	}

	e.stream(stdout)

	err = cmd.Wait()
	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			e.send(Output{Kind: Error, Text: err.Error()})
			return
		}
	}
	e.send(Output{Kind: Finished, Success: code == 0, ExitCode: code})
}

// stream splits the child's combined output into lines, treating a carriage
// return as "replace the line being built" so progress bars render in place.
func (e *Executor) stream(r io.Reader) {
	reader := bufio.NewReader(r)
	var line strings.Builder
	replace := false
	flush := func() {
		text := line.String()
		line.Reset()
		if strings.TrimSpace(text) == "" && !replace {
			return
		}
		kind := Line
		if replace {
			kind = ReplaceLastLine
		}
		e.send(Output{Kind: kind, Text: text})
	}
	for {
		b, err := reader.ReadByte()
		if err != nil {
			if line.Len() > 0 {
				flush()
			}
			return
		}
		switch b {
		case '\n':
			flush()
			replace = false
		case '\r':
			if line.Len() > 0 {
				flush()
			}
			replace = true
		default:
			line.WriteByte(b)
		}
	}
}

func (e *Executor) send(out Output) {
	e.Out <- out
}
