package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the branchflow banner, colored for the terminal profile.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{` _                         _      __ _`, "#22c55e"},
		{`| |__  _ __ __ _ _ __   ___| |__  / _| | _____      __`, "#10b981"},
		{`| '_ \| '__/ _' | '_ \ / __| '_ \| |_| |/ _ \ \ /\ / /`, "#14b8a6"},
		{`| |_) | | | (_| | | | | (__| | | |  _| | (_) \ V  V /`, "#06b6d4"},
		{`|_.__/|_|  \__,_|_| |_|\___|_| |_|_| |_|\___/ \_/\_/`, "#3b82f6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
