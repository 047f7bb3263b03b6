package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ASCII banner for the application
const ASCIILogo = `
    ╔════════════════════════════════════════════════════╗
    ║  ┌─┐┌─┐┌┐┌┌┬┐┬┌┐┌┌─┐┬    ┌─┐┌─┐┌┬┐┌─┐┬ ┬           ║
    ║  └─┐├┤ │││ │ ││││├┤ │    ├┤ ├┤  │ │  ├─┤           ║
    ║  └─┘└─┘┘└┘ ┴ ┴┘└┘└─┘┴─┘  └  └─┘ ┴ └─┘┴ ┴           ║
    ║        SENTINEL HUB IMAGE INGESTION UTILITY        ║
    ╚════════════════════════════════════════════════════╝
`

// ANSI color codes
const (
	codeCyan    = "36"
	codeYellow  = "33"
	codeRed     = "31"
	codeGreen   = "32"
	codeMagenta = "35"
	codeDim     = "2"
)

// Console writes human-readable progress lines
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
	quiet bool
}

// ConsoleOption configures a Console
type ConsoleOption func(*Console)

// WithColor enables or disables ANSI colors
func WithColor(enabled bool) ConsoleOption {
	return func(c *Console) {
		c.color = enabled
	}
}

// WithQuiet suppresses everything except errors and the final summary
func WithQuiet(quiet bool) ConsoleOption {
	return func(c *Console) {
		c.quiet = quiet
	}
}

// NewConsole creates a Console writing to out (stdout when nil). Colors are
// on unless disabled with WithColor.
func NewConsole(out io.Writer, opts ...ConsoleOption) *Console {
	if out == nil {
		out = os.Stdout
	}
	c := &Console{out: out, color: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quiet reports whether progress output is suppressed
func (c *Console) Quiet() bool {
	return c.quiet
}

func (c *Console) paint(code, text string) string {
	if !c.color {
		return text
	}
	return "\033[" + code + "m" + text + "\033[0m"
}

func (c *Console) println(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, text)
}

// PrintLogo prints the banner
func (c *Console) PrintLogo() {
	if c.quiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, c.paint(codeCyan, ASCIILogo))
}

// PrintError prints an error message in red. Never suppressed.
func (c *Console) PrintError(format string, args ...interface{}) {
	c.println(c.paint(codeRed, fmt.Sprintf(format, args...)))
}

// PrintSuccess prints a success message in green
func (c *Console) PrintSuccess(format string, args ...interface{}) {
	if c.quiet {
		return
	}
	c.println(c.paint(codeGreen, fmt.Sprintf(format, args...)))
}

// PrintInfo prints a label and value
func (c *Console) PrintInfo(label, value string) {
	if c.quiet {
		return
	}
	c.println(c.paint(codeCyan, label) + ": " + c.paint(codeYellow, value))
}

// PrintWarning prints a warning message in yellow
func (c *Console) PrintWarning(format string, args ...interface{}) {
	if c.quiet {
		return
	}
	c.println(c.paint(codeYellow, fmt.Sprintf(format, args...)))
}

// PrintHighlight prints a highlighted message in magenta
func (c *Console) PrintHighlight(format string, args ...interface{}) {
	if c.quiet {
		return
	}
	c.println(c.paint(codeMagenta, fmt.Sprintf(format, args...)))
}

// PrintDim prints a de-emphasized message
func (c *Console) PrintDim(format string, args ...interface{}) {
	if c.quiet {
		return
	}
	c.println(c.paint(codeDim, fmt.Sprintf(format, args...)))
}

// PrintSummary prints a label and count. Never suppressed.
func (c *Console) PrintSummary(label string, count int) {
	c.println(fmt.Sprintf("%s: %d", c.paint(codeCyan, label), count))
}
