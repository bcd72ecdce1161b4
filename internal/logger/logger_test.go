package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInit_JSONOutput(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	if err := Init(Config{Level: "info", Format: "json", Out: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	log.Info().Str("symbol", "AAPL").Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not a JSON line: %q", buf.String())
	}
	if line["symbol"] != "AAPL" || line["message"] != "hello" || line["service"] != "algosentinel" {
		t.Errorf("unexpected fields: %v", line)
	}
}

func TestInit_LevelFilters(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	if err := Init(Config{Level: "warn", Out: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	log.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("info line written at warn level: %q", buf.String())
	}
}

func TestInit_InvalidLevel(t *testing.T) {
	if err := Init(Config{Level: "loud"}); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestInit_FileOutput(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	dir := t.TempDir()
	var buf bytes.Buffer
	if err := Init(Config{Level: "info", FileEnabled: true, FilePath: dir, RotationSize: 1, RetentionDays: 1, Out: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	log.Info().Msg("to file")

	data, err := os.ReadFile(filepath.Join(dir, "algosentinel.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !bytes.Contains(data, []byte("to file")) {
		t.Errorf("log file missing line: %q", data)
	}
}
