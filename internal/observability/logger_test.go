package observability

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestInitLoggerLevelToggle(t *testing.T) {
	t.Setenv("CHATMESH_DEBUG", "")
	if lvl := InitLogger("test").GetLevel(); lvl != zerolog.InfoLevel {
		t.Fatalf("default level = %v, want info", lvl)
	}

	t.Setenv("CHATMESH_DEBUG", "1")
	if lvl := InitLogger("test").GetLevel(); lvl != zerolog.DebugLevel {
		t.Fatalf("debug toggle level = %v, want debug", lvl)
	}
}
