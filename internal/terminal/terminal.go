package terminal

import (
	"io"
	"os"
	"strings"
)

// resetSequence shows the cursor, clears attributes, leaves the alternate
// screen and turns off every mouse mode.
const resetSequence = "\033[?25h" +
	"\033[0m" +
	"\033[?1049l" +
	"\033[?1000l" +
	"\033[?1002l" +
	"\033[?1003l" +
	"\033[?1006l"

type Capabilities struct {
	SupportsRGB bool
	// SupportsArt allows the half-block album art in the header.
	SupportsArt bool
	NoColor     bool
	TermProgram string
}

// DetectCapabilities inspects the environment through getenv so tests can
// supply their own.
func DetectCapabilities(getenv func(string) string) *Capabilities {
	if getenv == nil {
		getenv = os.Getenv
	}

	caps := &Capabilities{
		TermProgram: getenv("TERM_PROGRAM"),
		SupportsArt: true,
	}

	colorterm := strings.ToLower(getenv("COLORTERM"))
	caps.SupportsRGB = colorterm == "truecolor" || colorterm == "24bit"

	if getenv("NO_COLOR") != "" {
		caps.NoColor = true
		caps.SupportsArt = false
	}

	term := getenv("TERM")
	if term == "dumb" || term == "linux" {
		caps.SupportsArt = false
	}

	switch strings.ToLower(getenv("LYRHAZE_ART")) {
	case "0", "false", "no", "off":
		caps.SupportsArt = false
	case "1", "true", "yes", "on":
		caps.SupportsArt = !caps.NoColor
	}

	return caps
}

// Reset restores the terminal to a sane state after the TUI exits, even
// when it was killed by a signal.
func Reset(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	_, _ = io.WriteString(w, resetSequence)
	if f, ok := w.(*os.File); ok {
		_ = f.Sync()
	}
}
