package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doInfinitely/selective-speaker/pkg/diarize"
)

var mapEnrollMS int

var mapCmd = &cobra.Command{
	Use:   "map <words.json>",
	Short: "Attribute a diarized words file via the anchored mapper",
	Long: `Run the enrollment-anchored mapper over a diarized words file.

The file holds a JSON array of words, each with start_ms, end_ms,
speaker, text, and an optional confidence (default 1.0):

  [
    {"start_ms": 0, "end_ms": 700, "speaker": "S1", "text": "hello"},
    ...
  ]

The result is printed as JSON: status, reason, accepted label, and the
kept segments with timestamps re-based to the subject region.`,
	Args: cobra.ExactArgs(1),
	RunE: runMap,
}

func init() {
	mapCmd.Flags().IntVar(&mapEnrollMS, "enroll-ms", 0, "enrollment region duration in ms (required)")
	mapCmd.MarkFlagRequired("enroll-ms")
	addAttributionFlags(mapCmd)
	rootCmd.AddCommand(mapCmd)
}

func runMap(cmd *cobra.Command, args []string) error {
	words, err := readWords(args[0])
	if err != nil {
		return err
	}

	mapper := diarize.NewAnchoredMapper(attributionConfig(cmd))
	res, err := mapper.Attribute(cmd.Context(), diarize.Request{
		Words:        words,
		EnrollmentMS: mapEnrollMS,
	})
	if err != nil {
		return err
	}
	return printResult(res)
}

// readWords loads a JSON array of diarized words from a file.
func readWords(path string) ([]diarize.Word, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var words []diarize.Word
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return words, nil
}

// printResult writes an attribution result to stdout as indented JSON.
func printResult(res *diarize.Result) error {
	out := map[string]any{
		"status": res.Status.String(),
	}
	if res.Reason != "" {
		out["reason"] = res.Reason
	}
	if res.Label != "" {
		out["label"] = res.Label
	}
	if res.Segments != nil {
		out["segments"] = res.Segments
	}
	if res.Debug != nil {
		out["debug"] = res.Debug
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// addAttributionFlags registers override flags for every tunable in
// diarize.Config. attributionConfig reads them back.
func addAttributionFlags(cmd *cobra.Command) {
	def := diarize.DefaultConfig()
	cmd.Flags().Int("pad-ms", def.PadMS, "silence allowance after the enrollment region in ms")
	cmd.Flags().Float64("dominance", def.Dominance, "required enrollment speaking-time fraction")
	cmd.Flags().Bool("use-majority", def.UseMajority, "accept the subject region's majority label instead of the enrollment label")
	cmd.Flags().Int("gap-ms", def.GapMS, "largest inter-word silence kept inside one segment, in ms")
	cmd.Flags().Int("min-duration-ms", def.MinDurationMS, "drop segments shorter than this, in ms")
	cmd.Flags().Int("min-chars", def.MinChars, "drop segments with less text than this")
	cmd.Flags().Int("min-speaker-ms", def.MinSpeakerMS, "shortest span a label needs for an embedding, in ms")
	cmd.Flags().Float64("similarity-threshold", def.SimilarityThreshold, "cosine similarity a label must exceed to match")
}

// attributionConfig merges the config file values with any flags the user
// set explicitly.
func attributionConfig(cmd *cobra.Command) diarize.Config {
	c := cfg.Attribution
	f := cmd.Flags()
	if f.Changed("pad-ms") {
		c.PadMS, _ = f.GetInt("pad-ms")
	}
	if f.Changed("dominance") {
		c.Dominance, _ = f.GetFloat64("dominance")
	}
	if f.Changed("use-majority") {
		c.UseMajority, _ = f.GetBool("use-majority")
	}
	if f.Changed("gap-ms") {
		c.GapMS, _ = f.GetInt("gap-ms")
	}
	if f.Changed("min-duration-ms") {
		c.MinDurationMS, _ = f.GetInt("min-duration-ms")
	}
	if f.Changed("min-chars") {
		c.MinChars, _ = f.GetInt("min-chars")
	}
	if f.Changed("min-speaker-ms") {
		c.MinSpeakerMS, _ = f.GetInt("min-speaker-ms")
	}
	if f.Changed("similarity-threshold") {
		c.SimilarityThreshold, _ = f.GetFloat64("similarity-threshold")
	}
	return c
}
