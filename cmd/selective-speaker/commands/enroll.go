package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doInfinitely/selective-speaker/pkg/audio"
	"github.com/doInfinitely/selective-speaker/pkg/enroll"
	"github.com/doInfinitely/selective-speaker/pkg/voiceprint"
)

var (
	enrollModel   string
	enrollDataDir string
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <user-id> <audio-file>",
	Short: "Create a voiceprint from an enrollment recording",
	Long: `Extract a voice embedding from an enrollment recording (WAV or MP3)
and store it as the user's voiceprint. Later enrollments for the same
user supersede earlier ones; the newest is used for matching.`,
	Args: cobra.ExactArgs(2),
	RunE: runEnroll,
}

func init() {
	enrollCmd.Flags().StringVar(&enrollModel, "model", "", "speaker embedding ONNX model path")
	enrollCmd.Flags().StringVar(&enrollDataDir, "data-dir", "", "badger data directory")
	rootCmd.AddCommand(enrollCmd)
}

func runEnroll(cmd *cobra.Command, args []string) error {
	userID, audioPath := args[0], args[1]

	f, err := os.Open(audioPath)
	if err != nil {
		return err
	}
	defer f.Close()
	clip, err := audio.DecodeAtRate(f, voiceprint.ModelSampleRate)
	if err != nil {
		return fmt.Errorf("decode %s: %w", audioPath, err)
	}

	ex, err := openExtractor(enrollModel)
	if err != nil {
		return err
	}
	defer ex.Close()

	store, err := openStore(enrollDataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	registry := enroll.NewRegistry(store, ex)
	vp, err := registry.Create(cmd.Context(), userID, clip)
	if err != nil {
		return err
	}

	fmt.Printf("Enrolled %s: voiceprint %s (%d ms, dim %d)\n",
		userID, vp.ID, vp.DurationMS, len(vp.Embedding))
	return nil
}
