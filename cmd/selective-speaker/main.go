// Package main is the entry point for the selective-speaker CLI.
//
// Usage:
//
//	selective-speaker [flags] <command> [args]
//
// Commands:
//
//	map      - Attribute a diarized words file via the anchored mapper
//	enroll   - Create a voiceprint from an enrollment recording
//	match    - Print a cosine similarity matrix for audio samples
//	process  - Process a transcription-completion event end to end
//	segments - List a chunk's kept segments, optionally exporting audio
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/doInfinitely/selective-speaker/cmd/selective-speaker/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
