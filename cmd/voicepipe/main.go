// voicepipe: resilience and caching layer for a realtime voice pipeline.
// Fronts ElevenLabs TTS and a Whisper STT server with a cache-aside audio
// cache, retry policy, and circuit breaker.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "voicepipe",
		Short:   "Realtime voice pipeline with caching and circuit breaking",
		Version: version,
	}

	root.AddCommand(
		newServeCmd(),
		newCacheCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
