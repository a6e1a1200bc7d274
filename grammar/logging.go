package grammar

import "github.com/rs/zerolog"

// Logger is the minimal structured-logging surface the engine and its
// passes use to narrate stage progress and structural decisions. It is
// satisfied by a *zerolog.Logger via ZerologLogger; callers that don't want
// logging pass NopLogger{}.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
}

// NopLogger discards every event; it is the Engine default so the library
// stays silent unless a caller opts in.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}

// ZerologLogger adapts a zerolog.Logger to the Logger interface for
// structured progress output in place of bare fmt.Printf lines.
type ZerologLogger struct {
	Log zerolog.Logger
}

func (z ZerologLogger) Debug(msg string, kv ...any) { logEvent(z.Log.Debug(), msg, kv) }
func (z ZerologLogger) Info(msg string, kv ...any)  { logEvent(z.Log.Info(), msg, kv) }

func logEvent(ev *zerolog.Event, msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}
