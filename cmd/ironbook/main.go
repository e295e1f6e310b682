// Command ironbook reads a text feed of order-book messages from a
// file and drives the book engine over it, printing midpoints, trade
// prints, and periodic book snapshots to stderr, then a counter
// summary at shutdown.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ironbook/internal/book"
	"ironbook/internal/counters"
	"ironbook/internal/feed"
	"ironbook/internal/logger"
	"ironbook/internal/perf"
)

func usage() {
	fmt.Fprintf(os.Stdout, "usage: %s [-debug] [-profile] [-book-every N] <filename>\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	debug := flag.Bool("debug", false, "suppress periodic book snapshots, raise log verbosity")
	profile := flag.Bool("profile", false, "enable latency histogram instrumentation")
	bookEvery := flag.Int("book-every", 0, "print a book snapshot every N processed lines (default 10)")
	flag.Usage = usage
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	runLog := log.With().Str("run_id", uuid.New().String()).Logger()

	if flag.NArg() != 1 {
		usage()
		os.Exit(1)
	}
	filename := flag.Arg(0)

	f, err := os.Open(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ironbook: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	c := &counters.Counters{}
	textLog := logger.New(os.Stderr)

	diag := diagnosticsAdapter{log: runLog}
	engine := book.NewEngine(c, textLog, diag)
	hist := perf.NewHistogram(*profile)

	runLog.Info().Str("file", filename).Msg("feed handler starting")

	h := feed.New(engine, c, *bookEvery, *debug, hist)
	if err := h.Run(f); err != nil {
		runLog.Error().Err(err).Msg("feed handler stopped early")
	}

	textLog.Stop()
	c.Summary(os.Stderr)
	hist.Report(os.Stderr)

	runLog.Info().Msg("feed handler finished")
}

// diagnosticsAdapter satisfies book.Diagnostics by forwarding
// catastrophic-invariant reports into structured operational logging,
// separate from the engine's exact line-protocol output.
type diagnosticsAdapter struct {
	log zerolog.Logger
}

func (d diagnosticsAdapter) Catastrophic(msg string) {
	d.log.Error().Str("kind", "catastrophic").Msg(msg)
}
