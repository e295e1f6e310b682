// Package feed drives the book engine from a stream of text lines: it
// reads one line at a time, classifies and parses it, dispatches valid
// messages into the engine, and triggers a periodic book snapshot.
package feed

import (
	"bufio"
	"io"

	"github.com/rs/zerolog/log"

	"ironbook/internal/book"
	"ironbook/internal/common"
	"ironbook/internal/counters"
	"ironbook/internal/parser"
	"ironbook/internal/perf"
)

// defaultBookEvery is the default book-snapshot cadence in lines.
const defaultBookEvery = 10

// Handler wires the parser and book engine together over an input
// stream, counting every line read toward the periodic snapshot
// cadence, including lines the parser rejects.
type Handler struct {
	engine    *book.Engine
	counters  *counters.Counters
	bookEvery int
	suppress  bool
	hist      *perf.Histogram

	linesRead int
}

// New constructs a Handler. bookEvery <= 0 falls back to the default
// cadence. suppress disables periodic book snapshots (mirrors the
// original's debug-build behavior, which skips them to avoid
// duplicated output).
func New(engine *book.Engine, c *counters.Counters, bookEvery int, suppress bool, hist *perf.Histogram) *Handler {
	if bookEvery <= 0 {
		bookEvery = defaultBookEvery
	}
	return &Handler{engine: engine, counters: c, bookEvery: bookEvery, suppress: suppress, hist: hist}
}

// Run reads r line by line until EOF, applying each to the book engine.
func (h *Handler) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), int(common.MessageLenMax)+1)

	for scanner.Scan() {
		h.linesRead++
		h.process(scanner.Text())

		if !h.suppress && h.linesRead%h.bookEvery == 0 {
			h.engine.PrintBook()
		}
	}
	return scanner.Err()
}

func (h *Handler) process(line string) {
	timer := perf.StartTimer(h.hist.Enabled())

	mt, order, trade := parser.ParseLine(line, h.counters)
	switch mt {
	case common.Add:
		if order.Side == common.Unknown {
			return
		}
		h.engine.AddOrder(order)
		h.record("add", timer)
		h.engine.PrintMidpoint()
	case common.Modify:
		if order.Side == common.Unknown {
			return
		}
		h.engine.ModifyOrder(order)
		h.record("modify", timer)
		h.engine.PrintMidpoint()
	case common.Remove:
		if order.Side == common.Unknown {
			return
		}
		h.engine.RemoveOrder(order.OrderID)
		h.record("remove", timer)
		h.engine.PrintMidpoint()
	case common.Trade:
		if trade.Price == 0 {
			return
		}
		h.engine.HandleTrade(trade)
		h.record("trade", timer)
		h.engine.PrintMidpoint()
	default:
		log.Debug().Str("line", line).Msg("dropped unparseable line")
	}
}

func (h *Handler) record(op string, timer perf.Timer) {
	if !h.hist.Enabled() {
		return
	}
	h.hist.Record(op, timer.Stop())
}
