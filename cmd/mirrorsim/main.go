// mirrorsim is a stand-in companion: it accepts connections and streams image
// files (or generated placeholders) using the mirror frame protocol.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/mirrorbridge/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	logging.ConfigureRuntime()

	addr := pflag.String("addr", "127.0.0.1:27183", "listen address")
	dir := pflag.String("dir", "", "directory of .png/.jpg/.webp files to stream (default: generated frames)")
	interval := pflag.Duration("interval", 100*time.Millisecond, "delay between frames")
	count := pflag.Int("count", 50, "frames per connection, 0 streams until the client leaves")
	pflag.Parse()

	src, err := newSource(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mirrorsim: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &server{source: src, interval: *interval, count: *count}
	if err := srv.ListenAndServe(ctx, *addr); err != nil {
		fmt.Fprintf(os.Stderr, "mirrorsim: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("mirrorsim stopped")
}
