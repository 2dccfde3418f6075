package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetup_JSON(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Setup("info", "json", &buf); err != nil {
		t.Fatal(err)
	}
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Debug().Msg("hidden")
	log.Info().Str("asset", "bitcoin").Msg("shown")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected a single json line, got %q: %v", buf.String(), err)
	}
	if entry["asset"] != "bitcoin" || entry["message"] != "shown" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestSetup_Rejects(t *testing.T) {
	if _, err := Setup("loud", "json", nil); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := Setup("info", "xml", nil); err == nil {
		t.Error("expected error for unknown format")
	}
}
