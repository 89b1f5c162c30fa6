package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the journey banner followed by a one-line subtitle.
func PrintBanner(w io.Writer, subtitle string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text, color string
	}{
		{"    _                              ", "#818cf8"},
		{"   (_)___  __  ___________  ___  __ __", "#a78bfa"},
		{"  / / __ \\/ / / / ___/ __ \\/ _ \\/ // /", "#c084fc"},
		{" / / /_/ / /_/ / /  / / / /  __/ _, / ", "#e879f9"},
		{"/_/\\____/\\__,_/_/  /_/ /_/\\___/\\__, /  ", "#f472b6"},
		{"/___/                         /____/  ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	if subtitle != "" {
		fmt.Fprintln(w, out.String("  "+subtitle).Faint())
	}
	fmt.Fprintln(w)
}
