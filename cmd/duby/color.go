package main

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiDim    = "\x1b[2m"
	ansiYellow = "\x1b[33m"
)

func useColor(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// colorize highlights the headers, labels and comments of a listing.
func colorize(listing string) string {
	lines := strings.SplitAfter(listing, "\n")
	var sb strings.Builder
	for _, line := range lines {
		text := strings.TrimSuffix(line, "\n")
		nl := line[len(text):]
		switch {
		case text == "":
			sb.WriteString(line)
			continue
		case strings.HasPrefix(text, "=="):
			text = ansiBold + text + ansiReset
		case strings.HasPrefix(text, ";"):
			text = ansiDim + text + ansiReset
		case strings.HasSuffix(text, ":"):
			text = ansiYellow + text + ansiReset
		default:
			if i := strings.Index(text, " ; "); i >= 0 {
				text = text[:i] + ansiDim + text[i:] + ansiReset
			}
		}
		sb.WriteString(text)
		sb.WriteString(nl)
	}
	return sb.String()
}
