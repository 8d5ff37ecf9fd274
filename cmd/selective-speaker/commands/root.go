package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/doInfinitely/selective-speaker/cmd/selective-speaker/internal/config"
	"github.com/doInfinitely/selective-speaker/pkg/storage"
	"github.com/doInfinitely/selective-speaker/pkg/voiceprint"
)

var (
	// Global flags
	cfgPath string
	verbose bool

	// Global configuration (loaded before any command runs)
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "selective-speaker",
	Short: "Attribute diarized transcripts to an enrolled speaker",
	Long: `selective-speaker - keep only the enrolled speaker's words.

Diarizing STT providers label words with session-local speaker tags
(S1, S2, ...) that carry no identity. This tool decides which tag is
the enrolled user and rebuilds clean utterance segments from that
speaker's words, via one of two strategies:

  anchored   The recording starts with a known enrollment region; the
             tag that dominates it is the user.
  embedding  Candidate speakers are compared against the user's stored
             voice embedding.

Examples:
  # Attribute a diarized words file (enrollment-anchored)
  selective-speaker map words.json --enroll-ms 18000

  # Enroll a user from a WAV recording
  selective-speaker enroll user-7 enrollment.wav

  # Compare voice samples in a directory
  selective-speaker match ./samples

  # Process a transcription-completion event
  selective-speaker process event.json --strategy embedding

  # List a processed chunk's kept segments, exporting the first as WAV
  selective-speaker segments t1 chunk-1 --export 0 --audio chunk-1.wav --offset-ms 19000`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))

		c, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// openFiles builds the audio FileStore from the loaded configuration:
// S3 when a bucket is configured, local disk otherwise.
func openFiles(ctx context.Context) (storage.FileStore, error) {
	a := cfg.Audio
	if a.S3Bucket != "" {
		var opts []func(*awsconfig.LoadOptions) error
		if a.S3Region != "" {
			opts = append(opts, awsconfig.WithRegion(a.S3Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		var s3Opts []func(*s3.Options)
		if a.S3Endpoint != "" || a.S3PathStyle {
			s3Opts = append(s3Opts, func(o *s3.Options) {
				if a.S3Endpoint != "" {
					o.BaseEndpoint = aws.String(a.S3Endpoint)
				}
				o.UsePathStyle = a.S3PathStyle
			})
		}
		client := s3.NewFromConfig(awsCfg, s3Opts...)
		return storage.NewS3(client, a.S3Bucket, a.S3Prefix), nil
	}
	dir := a.Dir
	if dir == "" {
		dir = "."
	}
	return storage.NewLocal(dir)
}

// openExtractor builds a lazily-loaded embedding extractor for the
// configured ONNX model. The model file is not touched until the first
// embedding is requested.
func openExtractor(modelPath string) (*voiceprint.Extractor, error) {
	if modelPath == "" {
		modelPath = cfg.ModelPath
	}
	if modelPath == "" {
		return nil, fmt.Errorf("no model configured: set model_path in config or pass --model")
	}
	path := modelPath
	return voiceprint.NewExtractor(func() (voiceprint.Model, error) {
		return voiceprint.NewONNXModel(path)
	}), nil
}
