package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/doInfinitely/selective-speaker/cmd/selective-speaker/internal/config"
)

func TestReadWords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.json")
	data := `[
		{"start_ms": 0, "end_ms": 700, "speaker": "S1", "text": "hello"},
		{"start_ms": 800, "end_ms": 1500, "speaker": "S1", "confidence": 0.9, "text": "world"}
	]`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	words, err := readWords(path)
	if err != nil {
		t.Fatalf("readWords: %v", err)
	}
	if len(words) != 2 {
		t.Fatalf("got %d words, want 2", len(words))
	}
	if words[0].Confidence != 1.0 {
		t.Fatalf("missing confidence should default to 1.0, got %f", words[0].Confidence)
	}
	if words[1].Confidence != 0.9 {
		t.Fatalf("Confidence = %f, want 0.9", words[1].Confidence)
	}
}

func TestAttributionConfigFlagOverrides(t *testing.T) {
	cfg = config.Default()

	cmd := &cobra.Command{Use: "test"}
	addAttributionFlags(cmd)
	if err := cmd.Flags().Parse([]string{"--gap-ms", "800", "--dominance", "0.5"}); err != nil {
		t.Fatal(err)
	}

	c := attributionConfig(cmd)
	if c.GapMS != 800 {
		t.Fatalf("GapMS = %d, want 800", c.GapMS)
	}
	if c.Dominance != 0.5 {
		t.Fatalf("Dominance = %f, want 0.5", c.Dominance)
	}
	// Untouched values come from the config file defaults.
	if c.MinDurationMS != 1000 {
		t.Fatalf("MinDurationMS = %d, want 1000", c.MinDurationMS)
	}
	if c.SimilarityThreshold != 0.65 {
		t.Fatalf("SimilarityThreshold = %f, want 0.65", c.SimilarityThreshold)
	}
}
