package logging

import (
	"log"
	"log/slog"
	"os"
	"strings"
)

// Setup wires process-wide structured logging for the stipend daemon: JSON on
// stdout with stable "timestamp"/"severity"/"message" keys so collectors need
// no per-service parsing rules. The returned logger carries the service and
// environment attributes; it is also installed as the slog default and
// bridged into the standard library logger so stray log.Printf calls land in
// the same stream.
func Setup(service, env string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{ReplaceAttr: remapAttr})

	base := slog.New(handler).With(slog.String("service", strings.TrimSpace(service)))
	if env = strings.TrimSpace(env); env != "" {
		base = base.With(slog.String("env", env))
	}
	slog.SetDefault(base)

	bridge := slog.NewLogLogger(base.Handler(), slog.LevelInfo)
	bridge.SetFlags(0)
	log.SetOutput(bridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}

func remapAttr(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "timestamp"
	case slog.LevelKey:
		return slog.String("severity", strings.ToUpper(attr.Value.String()))
	case slog.MessageKey:
		attr.Key = "message"
	}
	return attr
}
