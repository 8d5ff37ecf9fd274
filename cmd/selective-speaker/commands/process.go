package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doInfinitely/selective-speaker/pkg/enroll"
	"github.com/doInfinitely/selective-speaker/pkg/transcript"
)

var (
	processStrategy string
	processModel    string
	processDataDir  string
)

var processCmd = &cobra.Command{
	Use:   "process <event.json>",
	Short: "Process a transcription-completion event end to end",
	Long: `Process a transcription-completion event: attribute its words to the
enrolled speaker and persist the kept segments. Reprocessing an already
handled chunk is a no-op reported as already_processed.

The event file is JSON:

  {
    "transcript_id": "t-42",
    "user_id": "user-7",
    "chunk_id": "chunk-3",
    "enrollment_ms": 18000,
    "audio_path": "chunks/chunk-3.wav",
    "words": [ ... ]
  }

enrollment_ms is required by the anchored strategy; audio_path by the
embedding strategy.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processStrategy, "strategy", "", "attribution strategy: anchored or embedding")
	processCmd.Flags().StringVar(&processModel, "model", "", "speaker embedding ONNX model path")
	processCmd.Flags().StringVar(&processDataDir, "data-dir", "", "badger data directory")
	addAttributionFlags(processCmd)
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var ev transcript.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	strategy := transcript.Strategy(processStrategy)
	if strategy == "" {
		strategy = transcript.Strategy(cfg.Strategy)
	}

	store, err := openStore(processDataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := transcript.ProcessorOptions{
		Config:   attributionConfig(cmd),
		Strategy: strategy,
		Store:    store,
	}
	if strategy == transcript.StrategyEmbedding {
		files, err := openFiles(cmd.Context())
		if err != nil {
			return err
		}
		ex, err := openExtractor(processModel)
		if err != nil {
			return err
		}
		defer ex.Close()
		opts.Files = files
		opts.Registry = enroll.NewRegistry(store, ex)
		opts.Extractor = ex
	}

	p, err := transcript.NewProcessor(opts)
	if err != nil {
		return err
	}
	res, err := p.Process(cmd.Context(), &ev)
	if err != nil {
		return err
	}
	return printResult(res)
}
