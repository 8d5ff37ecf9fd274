package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doInfinitely/selective-speaker/pkg/audio"
	"github.com/doInfinitely/selective-speaker/pkg/audio/wav"
	"github.com/doInfinitely/selective-speaker/pkg/diarize"
	"github.com/doInfinitely/selective-speaker/pkg/transcript"
)

var (
	segmentsDataDir string
	segmentsExport  int
	segmentsAudio   string
	segmentsOut     string
	segmentsOffset  int
	segmentsGain    float64
)

var segmentsCmd = &cobra.Command{
	Use:   "segments <transcript-id> <chunk-id>",
	Short: "List a chunk's kept segments, optionally exporting one as WAV",
	Long: `Read back the kept utterance segments stored for a processed chunk
and print them as JSON.

With --export N the Nth listed segment is also cut out of the chunk's
audio file (--audio), amplified, and written as a mono WAV. Anchored
segment timestamps are relative to the subject region; pass --offset-ms
with the region's start (enrollment duration plus pad) to address the
original recording.`,
	Args: cobra.ExactArgs(2),
	RunE: runSegments,
}

func init() {
	segmentsCmd.Flags().StringVar(&segmentsDataDir, "data-dir", "", "badger data directory (default: config value)")
	segmentsCmd.Flags().IntVar(&segmentsExport, "export", -1, "index of a segment to extract as audio")
	segmentsCmd.Flags().StringVar(&segmentsAudio, "audio", "", "chunk audio file to extract from (required with --export)")
	segmentsCmd.Flags().StringVar(&segmentsOut, "out", "", "output WAV path (default <chunk-id>-<index>.wav)")
	segmentsCmd.Flags().IntVar(&segmentsOffset, "offset-ms", 0, "start of the subject region within the chunk audio, in ms")
	segmentsCmd.Flags().Float64Var(&segmentsGain, "gain", 6, "amplification factor for the exported audio")
	rootCmd.AddCommand(segmentsCmd)
}

func runSegments(cmd *cobra.Command, args []string) error {
	store, err := openStore(segmentsDataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	proc, err := transcript.NewProcessor(transcript.ProcessorOptions{Store: store})
	if err != nil {
		return err
	}
	segs, err := proc.Segments(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(segs, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))

	if segmentsExport < 0 {
		return nil
	}
	if segmentsAudio == "" {
		return fmt.Errorf("--audio is required with --export")
	}
	if segmentsExport >= len(segs) {
		return fmt.Errorf("segment index %d out of range (%d kept)", segmentsExport, len(segs))
	}
	return exportSegment(segs[segmentsExport], args[1])
}

// exportSegment cuts one kept segment out of the chunk audio, amplifies
// it, and writes a mono WAV next to the caller.
func exportSegment(seg diarize.Segment, chunkID string) error {
	f, err := os.Open(segmentsAudio)
	if err != nil {
		return err
	}
	defer f.Close()
	clip, err := audio.Decode(f)
	if err != nil {
		return fmt.Errorf("decode %s: %w", segmentsAudio, err)
	}

	cut := clip.CropMS(seg.StartMS+segmentsOffset, seg.EndMS+segmentsOffset)
	if len(cut.Samples) == 0 {
		return fmt.Errorf("segment [%d, %d] (+%dms) lies outside the audio", seg.StartMS, seg.EndMS, segmentsOffset)
	}
	cut.Amplify(float32(segmentsGain))

	out := segmentsOut
	if out == "" {
		out = fmt.Sprintf("%s-%03d.wav", chunkID, segmentsExport)
	}
	of, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := wav.Encode(of, cut); err != nil {
		of.Close()
		return err
	}
	if err := of.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%dms, gain %.1fx)\n", out, cut.DurationMS(), segmentsGain)
	return nil
}
