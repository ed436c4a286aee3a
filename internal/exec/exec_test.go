package exec

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/kajell/pacterm/internal/state"
)

func drain(e *Executor, n int) []Output {
	out := make([]Output, 0, n)
	for range n {
		out = append(out, <-e.Out)
	}
	return out
}

func TestStreamCarriageReturnReplaces(t *testing.T) {
	e := New(false, log.New(io.Discard))
	go e.stream(strings.NewReader("downloading...\rdownloading 50%\rdownloading 100%\ndone\n"))

	got := drain(e, 4)
	want := []Output{
		{Kind: Line, Text: "downloading..."},
		{Kind: ReplaceLastLine, Text: "downloading 50%"},
		{Kind: ReplaceLastLine, Text: "downloading 100%"},
		{Kind: Line, Text: "done"},
	}
	for i, w := range want {
		if got[i].Kind != w.Kind || got[i].Text != w.Text {
			t.Errorf("stream[%d] = %+v, want %+v", i, got[i], w)
		}
	}
}

func TestDryRunNeverSpawns(t *testing.T) {
	e := New(true, log.New(io.Discard))
	go e.Run(context.Background(), []string{"definitely-not-a-real-binary", "-S", "ripgrep"})

	got := drain(e, 3)
	if got[0].Kind != Line || !strings.HasPrefix(got[0].Text, "$ ") {
		t.Fatalf("first message = %+v, want command preview", got[0])
	}
	last := got[2]
	if last.Kind != Finished || !last.Success || last.ExitCode != 0 {
		t.Fatalf("final message = %+v, want successful Finished", last)
	}
}

func TestCommandSelection(t *testing.T) {
	official := state.PackageItem{Name: "ripgrep", Source: state.Official("extra", "x86_64")}
	tests := []struct {
		name   string
		action state.Action
		items  []state.PackageItem
		want   string
	}{
		{"install", state.ActionInstall, []state.PackageItem{official}, "pacman -S --needed ripgrep"},
		{"remove", state.ActionRemove, []state.PackageItem{official}, "pacman -Rns ripgrep"},
		{"downgrade", state.ActionDowngrade, []state.PackageItem{official}, "downgrade ripgrep"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			argv := Command(tt.action, tt.items)
			joined := strings.Join(argv, " ")
			if !strings.Contains(joined, tt.want) {
				t.Errorf("Command() = %q, want it to contain %q", joined, tt.want)
			}
			if argv[0] != "sudo" {
				t.Errorf("Command() = %q, want sudo prefix", joined)
			}
		})
	}
}
