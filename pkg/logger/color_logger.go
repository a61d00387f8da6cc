package logger

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mattn/go-isatty"
)

type ColorLogger struct {
	*log.Logger
	color bool
}

type Color string

const (
	ColorBlack  Color = "\u001b[30m"
	ColorRed    Color = "\u001b[31m"
	ColorGreen  Color = "\u001b[32m"
	ColorYellow Color = "\u001b[33m"
	ColorBlue   Color = "\u001b[34m"
	ColorReset  Color = "\u001b[0m"
)

// NewColorLogger wraps lg. Colours are only written when the logger's output
// is a terminal.
func NewColorLogger(lg *log.Logger) *ColorLogger {
	return &ColorLogger{
		Logger: lg,
		color:  IsTerminal(lg.Writer()),
	}
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (c *ColorLogger) SetColor(enabled bool) {
	c.color = enabled
}

func (c *ColorLogger) Printcf(color Color, format string, args ...interface{}) {
	c.Printc(color, fmt.Sprintf(format, args...))
}

func (c *ColorLogger) Printc(color Color, s string) {
	if !c.color {
		c.Print(s)
		return
	}
	c.Print(string(color) + s + string(ColorReset))
}

func (c *ColorLogger) Successf(format string, args ...interface{}) {
	c.Printcf(ColorGreen, format, args...)
}

func (c *ColorLogger) Infof(format string, args ...interface{}) {
	c.Printcf(ColorBlue, format, args...)
}

func (c *ColorLogger) Warnf(format string, args ...interface{}) {
	c.Printcf(ColorYellow, format, args...)
}

func (c *ColorLogger) Failf(format string, args ...interface{}) {
	c.Printcf(ColorRed, format, args...)
}
