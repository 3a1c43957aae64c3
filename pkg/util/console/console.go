// Package console prints messages for the user on stderr, filtered by level.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/logrusorgru/aurora"
)

// Console writes leveled messages. Command output does not go through it; commands
// write to their cobra output writer so it can be piped.
type Console struct {
	Color bool
	Level Level
	// Err defaults to os.Stderr.
	Err io.Writer
	mu  sync.Mutex
}

// Spam is for chatty tracing, such as every variable read from an env file.
func (c *Console) Spam(msg string) { c.log(SpamLevel, msg) }

// Debug is hidden unless -vv is passed.
func (c *Console) Debug(msg string) { c.log(DebugLevel, msg) }

// Verbose reports what is done on the user's behalf, such as the commands that are run.
func (c *Console) Verbose(msg string) { c.log(VerboseLevel, msg) }

func (c *Console) Info(msg string)  { c.log(InfoLevel, msg) }
func (c *Console) Warn(msg string)  { c.log(WarnLevel, msg) }
func (c *Console) Error(msg string) { c.log(ErrorLevel, msg) }

func (c *Console) Spamf(msg string, v ...interface{})    { c.Spam(fmt.Sprintf(msg, v...)) }
func (c *Console) Debugf(msg string, v ...interface{})   { c.Debug(fmt.Sprintf(msg, v...)) }
func (c *Console) Verbosef(msg string, v ...interface{}) { c.Verbose(fmt.Sprintf(msg, v...)) }
func (c *Console) Infof(msg string, v ...interface{})    { c.Info(fmt.Sprintf(msg, v...)) }
func (c *Console) Warnf(msg string, v ...interface{})    { c.Warn(fmt.Sprintf(msg, v...)) }
func (c *Console) Errorf(msg string, v ...interface{})   { c.Error(fmt.Sprintf(msg, v...)) }

// Fatalf prints at fatal level and exits with status 1.
func (c *Console) Fatalf(msg string, v ...interface{}) {
	c.log(FatalLevel, fmt.Sprintf(msg, v...))
	os.Exit(1)
}

func (c *Console) stderr() io.Writer {
	if c.Err != nil {
		return c.Err
	}
	return os.Stderr
}

func (c *Console) log(level Level, msg string) {
	if level < c.Level {
		return
	}

	prompt := ""
	if c.Color {
		switch level {
		case WarnLevel:
			prompt = aurora.Yellow("⚠ ").String()
		case ErrorLevel, FatalLevel:
			prompt = aurora.Red("ⅹ ").String()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	w := c.stderr()
	for _, line := range strings.Split(msg, "\n") {
		if c.Color {
			switch level {
			case SpamLevel, DebugLevel:
				line = aurora.Faint(line).String()
			case VerboseLevel:
				line = aurora.Cyan(line).String()
			}
		}
		fmt.Fprintln(w, prompt+line)
	}
}
