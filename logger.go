package accounts

import (
	"fmt"
	"strings"
)

// Logger is the minimal logging surface this package needs. Calls carry a
// message followed by alternating key/value pairs. Wire your own
// implementation with the With* options; the default writes to stdout.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Println(formatLogLine("ERR", msg, args))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Println(formatLogLine("WRN", msg, args))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Println(formatLogLine("INF", msg, args))
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Println(formatLogLine("DBG", msg, args))
}

func formatLogLine(level, msg string, args []any) string {
	var b strings.Builder
	b.WriteString("[" + level + "] ACCOUNTS " + msg)

	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}

	// A dangling key still gets printed rather than dropped.
	if len(args)%2 == 1 {
		fmt.Fprintf(&b, " %v", args[len(args)-1])
	}

	return b.String()
}
