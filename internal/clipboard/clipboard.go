// Package clipboard copies plain text to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrNoClipboardTool is returned when no supported clipboard command exists.
var ErrNoClipboardTool = errors.New("no suitable clipboard tool found")

// candidates lists clipboard commands in order of preference per platform.
var candidates = map[string][][]string{
	"linux": {
		{"wl-copy"},                          // Wayland
		{"xclip", "-selection", "clipboard"}, // X11
		{"xsel", "--clipboard", "--input"},   // X11 alternative
	},
	"darwin":  {{"pbcopy"}},
	"windows": {{"clip"}},
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// CopyText copies text to the clipboard using the first available tool.
func CopyText(text string) error {
	tools, ok := candidates[runtime.GOOS]
	if !ok {
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	var tried []string
	for _, tool := range available(tools) {
		cmd := exec.Command(tool[0], tool[1:]...)
		cmd.Stdin = strings.NewReader(text)
		if err := cmd.Run(); err == nil {
			return nil
		}
		tried = append(tried, tool[0])
	}

	if len(tried) == 0 {
		names := make([]string, 0, len(tools))
		for _, t := range tools {
			names = append(names, t[0])
		}
		return fmt.Errorf("%w (tried: %s)", ErrNoClipboardTool, strings.Join(names, ", "))
	}
	return fmt.Errorf("clipboard copy failed (tried: %s)", strings.Join(tried, ", "))
}

// available filters tools down to those installed, keeping preference order.
func available(tools [][]string) [][]string {
	var out [][]string
	for _, tool := range tools {
		if _, err := lookPath(tool[0]); err == nil {
			out = append(out, tool)
		}
	}
	return out
}
