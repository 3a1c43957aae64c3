package console

import (
	"os"

	"github.com/mattn/go-isatty"
)

// ConsoleInstance is the console the package-level functions write to.
var ConsoleInstance = &Console{
	Color: true,
	Level: InfoLevel,
}

func SetLevel(level Level) {
	ConsoleInstance.Level = level
}

func SetColor(color bool) {
	ConsoleInstance.Color = color
}

func Verbose(msg string) { ConsoleInstance.Verbose(msg) }
func Info(msg string)    { ConsoleInstance.Info(msg) }
func Warn(msg string)    { ConsoleInstance.Warn(msg) }
func Error(msg string)   { ConsoleInstance.Error(msg) }

func Spamf(msg string, v ...interface{})    { ConsoleInstance.Spamf(msg, v...) }
func Debugf(msg string, v ...interface{})   { ConsoleInstance.Debugf(msg, v...) }
func Verbosef(msg string, v ...interface{}) { ConsoleInstance.Verbosef(msg, v...) }
func Infof(msg string, v ...interface{})    { ConsoleInstance.Infof(msg, v...) }
func Warnf(msg string, v ...interface{})    { ConsoleInstance.Warnf(msg, v...) }
func Errorf(msg string, v ...interface{})   { ConsoleInstance.Errorf(msg, v...) }

// Fatalf prints the message and exits with status 1.
func Fatalf(msg string, v ...interface{}) { ConsoleInstance.Fatalf(msg, v...) }

// IsTTY reports whether f is a terminal, e.g. IsTTY(os.Stdin) before asking docker exec for a pseudo-TTY.
func IsTTY(f *os.File) bool {
	return isatty.IsTerminal(f.Fd())
}
