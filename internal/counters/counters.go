// Package counters implements a set of monotonically-increasing named
// error counters plus a fixed-column summary.
//
// Counters is an explicit dependency passed into the parser and the
// book engine rather than a package-level singleton, so ownership and
// lifetime are plain Go: it is constructed once by main and touched
// only from the hot-path goroutine, so no locking is required here.
package counters

import (
	"fmt"
	"io"
)

// Counters accumulates the logical and syntactic error counts emitted
// while processing a message feed. Zero value is ready to use.
type Counters struct {
	CorruptMessages    uint64
	GoodMessages       uint64
	DuplicateAdd       uint64
	TradeMissingOrders uint64
	BadCancels         uint64
	BadModifies        uint64
	CrossedBook        uint64
	InvalidQty         uint64
	InvalidPrice       uint64
	InvalidID          uint64
}

func (c *Counters) IncCorruptMessage()     { c.CorruptMessages++ }
func (c *Counters) IncGoodMessage()        { c.GoodMessages++ }
func (c *Counters) IncDuplicateAdd()       { c.DuplicateAdd++ }
func (c *Counters) IncTradeMissingOrders() { c.TradeMissingOrders++ }
func (c *Counters) IncBadCancel()          { c.BadCancels++ }
func (c *Counters) IncBadModify()          { c.BadModifies++ }
func (c *Counters) IncCrossedBook()        { c.CrossedBook++ }
func (c *Counters) IncInvalidQty()         { c.InvalidQty++ }
func (c *Counters) IncInvalidPrice()       { c.InvalidPrice++ }
func (c *Counters) IncInvalidID()          { c.InvalidID++ }

// Summary prints all counters to w with fixed column widths.
func (c *Counters) Summary(w io.Writer) {
	fmt.Fprintf(w, "\n[Feed Handler Statistics]\n")
	fmt.Fprintf(w, "   %-30s %10d\n", "Corrupt Messages:", c.CorruptMessages)
	fmt.Fprintf(w, "   %-30s %10d\n", "Good Messages:", c.GoodMessages)
	fmt.Fprintf(w, "   %-30s %10d\n", "Duplicate Adds:", c.DuplicateAdd)
	fmt.Fprintf(w, "   %-30s %10d\n", "Trades Missing Orders:", c.TradeMissingOrders)
	fmt.Fprintf(w, "   %-30s %10d\n", "Cancels for Missing IDs:", c.BadCancels)
	fmt.Fprintf(w, "   %-30s %10d\n", "Modifies for Missing IDs:", c.BadModifies)
	fmt.Fprintf(w, "   %-30s %10d\n", "Crossed Book:", c.CrossedBook)
	fmt.Fprintf(w, "   %-30s %10d\n", "Invalid Quantities:", c.InvalidQty)
	fmt.Fprintf(w, "   %-30s %10d\n", "Invalid Prices:", c.InvalidPrice)
	fmt.Fprintf(w, "   %-30s %10d\n", "Invalid IDs:", c.InvalidID)
}
