package display

import (
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
)

const banner = `
  ███╗   ██╗ █████╗  █████╗ ███╗   ███╗     ██╗ █████╗  █████╗ ██████╗
  ████╗  ██║██╔══██╗██╔══██╗████╗ ████║     ██║██╔══██╗██╔══██╗██╔══██╗
  ██╔██╗ ██║███████║███████║██╔████╔██║     ██║███████║███████║██████╔╝
  ██║╚██╗██║██╔══██║██╔══██║██║╚██╔╝██║██   ██║██╔══██║██╔══██║██╔═══╝
  ██║ ╚████║██║  ██║██║  ██║██║ ╚═╝ ██║╚█████╔╝██║  ██║██║  ██║██║
  ╚═╝  ╚═══╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝     ╚═╝ ╚════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚═╝

                         ॐ  naam jaap  ॐ
`

// RenderBanner returns the startup banner centered for the current
// terminal width and styled.
func RenderBanner() string {
	width := termWidth()

	lines := strings.Split(strings.Trim(banner, "\n"), "\n")

	// Find the widest line to compute the left padding once, so the
	// block stays aligned instead of each line centering independently.
	maxLen := 0
	for _, l := range lines {
		if n := len([]rune(l)); n > maxLen {
			maxLen = n
		}
	}

	pad := 0
	if width > maxLen {
		pad = (width - maxLen) / 2
	}
	indent := strings.Repeat(" ", pad)

	var b strings.Builder
	b.WriteByte('\n')
	for _, l := range lines {
		b.WriteString(indent)
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return BannerStyle.Render(b.String())
}

func termWidth() int {
	w, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
