package logger

import (
	"log/slog"
	"testing"
	"time"
)

func recordWithType(value string) slog.Record {
	r := slog.NewRecord(time.Now(), slog.LevelInfo, "message", 0)
	if value != "" {
		r.AddAttrs(slog.String("type", value))
	}
	return r
}

func Test_getLogType(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  LogType
	}{
		{name: "db", value: "db", want: TypeDB},
		{name: "import", value: "import", want: TypeImport},
		{name: "search", value: "search", want: TypeSearch},
		{name: "cache", value: "cache", want: TypeCache},
		{name: "migration", value: "migration", want: TypeMigration},
		{name: "error", value: "error", want: TypeError},
		{name: "untyped defaults to system", value: "", want: TypeSystem},
		{name: "unknown defaults to system", value: "weird", want: TypeSystem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := recordWithType(tt.value)
			if got := getLogType(&r); got != tt.want {
				t.Errorf("getLogType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func Test_isInternalAttr(t *testing.T) {
	internal := []string{"type", "error", "error_location"}
	for _, key := range internal {
		if !isInternalAttr(key) {
			t.Errorf("isInternalAttr(%q) = false, want true", key)
		}
	}
	for _, key := range []string{"query", "took", "user_id"} {
		if isInternalAttr(key) {
			t.Errorf("isInternalAttr(%q) = true, want false", key)
		}
	}
}

func Test_Handler_Levels(t *testing.T) {
	h := NewHandler()
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if !h.Enabled(nil, level) {
			t.Errorf("Enabled(%v) = false, want true", level)
		}
	}
}
