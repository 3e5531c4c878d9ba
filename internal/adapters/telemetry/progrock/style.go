package progrock

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Colors.
var (
	slate = lipgloss.Color("#667085")
	green = lipgloss.Color("#22A06B")
	red   = lipgloss.Color("#D93025")
)

// Icons.
const (
	check = "✓"
	cross = "✗"
	dot   = "•"
)

type styles struct {
	done   lipgloss.Style
	failed lipgloss.Style
	cached lipgloss.Style
}

// newStyles renders colors only when out is a terminal and NO_COLOR is unset.
func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	r.SetColorProfile(colorProfile(out))
	return styles{
		done:   r.NewStyle().Foreground(green),
		failed: r.NewStyle().Foreground(red),
		cached: r.NewStyle().Foreground(slate).Faint(true),
	}
}

func colorProfile(out io.Writer) termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) { //nolint:gosec // file descriptors fit in int
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}
