package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/doInfinitely/selective-speaker/pkg/audio"
	"github.com/doInfinitely/selective-speaker/pkg/diarize"
	"github.com/doInfinitely/selective-speaker/pkg/voiceprint"
)

var (
	matchModel     string
	matchThreshold float64
)

var matchCmd = &cobra.Command{
	Use:   "match <dir>",
	Short: "Print a cosine similarity matrix for audio samples",
	Long: `Extract a voice embedding from every WAV and MP3 file in a directory
and print the pairwise cosine similarity matrix. Pairs above the match
threshold are highlighted.

Useful for sanity-checking a model against known recordings: samples of
the same speaker should score high against each other and low against
everyone else.`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().StringVar(&matchModel, "model", "", "speaker embedding ONNX model path")
	matchCmd.Flags().Float64Var(&matchThreshold, "threshold",
		diarize.DefaultConfig().SimilarityThreshold, "similarity highlight threshold")
	rootCmd.AddCommand(matchCmd)
}

type matchSample struct {
	name string
	emb  []float32
}

func runMatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".wav", ".mp3":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) < 2 {
		return fmt.Errorf("need at least 2 audio files in %s", dir)
	}
	sort.Strings(paths)

	ex, err := openExtractor(matchModel)
	if err != nil {
		return err
	}
	defer ex.Close()

	var samples []matchSample
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		clip, err := audio.DecodeAtRate(f, voiceprint.ModelSampleRate)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "  skip %s: %v\n", filepath.Base(path), err)
			continue
		}
		emb, err := ex.Embed(clip.Samples)
		if err != nil {
			return fmt.Errorf("embed %s: %w", filepath.Base(path), err)
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		samples = append(samples, matchSample{name: name, emb: emb})
	}
	if len(samples) < 2 {
		return fmt.Errorf("need at least 2 decodable samples")
	}

	printMatrix(samples, matchThreshold)
	return nil
}

var (
	matrixHeader = lipgloss.NewStyle().Bold(true)
	matrixDiag   = lipgloss.NewStyle().Faint(true)
	matrixHit    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	matrixMiss   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
)

// printMatrix renders the pairwise similarity table. Scores above the
// threshold are highlighted; the diagonal is dimmed.
func printMatrix(samples []matchSample, threshold float64) {
	fmt.Printf("\n%s\n\n", matrixHeader.Render(
		fmt.Sprintf("Cosine similarity (%d samples, threshold %.2f)", len(samples), threshold)))

	fmt.Printf("%20s", "")
	for i := range samples {
		fmt.Printf(" %6s", matrixHeader.Render(fmt.Sprintf("[%d]", i)))
	}
	fmt.Println()

	for i, si := range samples {
		label := fmt.Sprintf("[%d] %s", i, si.name)
		if len(label) > 20 {
			label = label[:20]
		}
		fmt.Printf("%20s", label)
		for j, sj := range samples {
			if i == j {
				fmt.Printf(" %6s", matrixDiag.Render("  ----"))
				continue
			}
			sim, err := voiceprint.Cosine(si.emb, sj.emb)
			if err != nil {
				fmt.Printf(" %6s", "   err")
				continue
			}
			cell := fmt.Sprintf("%6.3f", sim)
			if sim > threshold {
				cell = matrixHit.Render(cell)
			} else {
				cell = matrixMiss.Render(cell)
			}
			fmt.Printf(" %s", cell)
		}
		fmt.Println()
	}
	fmt.Println()
}
