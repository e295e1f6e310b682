package book

import (
	"errors"
	"fmt"

	"ironbook/internal/common"
	"ironbook/internal/counters"
)

// ErrUnknownOrder is returned by CheckInvariants when the order index
// disagrees with what is actually resting in the side books.
var ErrUnknownOrder = errors.New("book: order index entry has no resting order")

// Sink is the line-emitting collaborator the engine writes its output
// contract to (midpoints, trade prints, book snapshots). Satisfied by
// *logger.Logger.
type Sink interface {
	Print(line string)
}

// Diagnostics receives a one-line report of a structural inconsistency
// that should never occur under valid input. Satisfied by a zerolog
// logger via a small adapter in cmd/ironbook.
type Diagnostics interface {
	Catastrophic(msg string)
}

// Engine is the book's state machine: it owns both side books and the
// order index, and exposes the feed handler's message operations.
type Engine struct {
	buy  *SideBook
	sell *SideBook
	idx  *orderIndex

	counters *counters.Counters
	sink     Sink
	diag     Diagnostics

	hasRecentTrade   bool
	recentTradePrice uint64
	recentTradeQty   uint32
}

// NewEngine constructs an empty book engine. c, sink, and diag are
// explicit dependencies owned by the caller, not package-level state.
func NewEngine(c *counters.Counters, sink Sink, diag Diagnostics) *Engine {
	return &Engine{
		buy:      newSideBook(),
		sell:     newSideBook(),
		idx:      newOrderIndex(),
		counters: c,
		sink:     sink,
		diag:     diag,
	}
}

func (e *Engine) sideBook(side common.Side) *SideBook {
	if side == common.Buy {
		return e.buy
	}
	return e.sell
}

// AddOrder applies an ADD message. Callers must have already rejected
// orders with Side == Unknown, zero quantity, or an out-of-range price.
func (e *Engine) AddOrder(order common.Order) {
	defer e.checkCross()

	if _, exists := e.idx.get(order.OrderID); exists {
		e.counters.IncDuplicateAdd()
		return
	}

	sb := e.sideBook(order.Side)
	level := sb.GetOrCreate(order.Price)
	n := level.PushFront(order)
	e.idx.set(order.OrderID, indexEntry{side: order.Side, price: order.Price, node: n})
}

// ModifyOrder applies a MODIFY message, which carries the id of an
// existing resting order plus its possibly-new price and quantity.
func (e *Engine) ModifyOrder(newOrder common.Order) {
	defer e.checkCross()

	entry, exists := e.idx.get(newOrder.OrderID)
	if !exists {
		e.counters.IncBadModify()
		return
	}

	sb := e.sideBook(entry.side)
	level, ok := sb.Get(entry.price)
	if !ok {
		e.catastrophic(fmt.Sprintf("modify: index has order %d at price %d but no such level", newOrder.OrderID, entry.price))
		return
	}

	if newOrder.Price == entry.price {
		if newOrder.Quantity <= entry.node.order.Quantity {
			// Quantity reduction retains time priority: mutate in place.
			level.ChangeQuantity(entry.node, newOrder.Quantity)
			return
		}
		// Quantity increase forfeits priority: remove and re-add at head.
		level.Remove(entry.node)
		if level.Empty() {
			sb.Delete(level.Price)
		}
		level = sb.GetOrCreate(newOrder.Price)
		n := level.PushFront(newOrder)
		e.idx.set(newOrder.OrderID, indexEntry{side: entry.side, price: entry.price, node: n})
		return
	}

	// Price changed: move to the new level, always losing priority.
	level.Remove(entry.node)
	if level.Empty() {
		sb.Delete(level.Price)
	}
	newLevel := sb.GetOrCreate(newOrder.Price)
	n := newLevel.PushFront(newOrder)
	e.idx.set(newOrder.OrderID, indexEntry{side: entry.side, price: newOrder.Price, node: n})
}

// RemoveOrder applies a REMOVE (cancel) message, which carries only an
// id; other fields are ignored.
func (e *Engine) RemoveOrder(id uint32) {
	defer e.checkCross()

	entry, exists := e.idx.get(id)
	if !exists {
		e.counters.IncBadCancel()
		return
	}

	sb := e.sideBook(entry.side)
	level, ok := sb.Get(entry.price)
	if !ok {
		e.catastrophic(fmt.Sprintf("remove: index has order %d at price %d but no such level", id, entry.price))
		return
	}

	level.Remove(entry.node)
	e.idx.delete(id)
	if level.Empty() {
		sb.Delete(level.Price)
	}
}

// HandleTrade applies a TRADE confirmation: it decrements resting
// liquidity on both sides without regard to which incoming order
// caused it, since ADD never executes against the book.
func (e *Engine) HandleTrade(trade common.TradeMessage) {
	if e.buy.Empty() || e.sell.Empty() {
		e.counters.IncTradeMissingOrders()
		return
	}

	bestBuy, _ := e.buy.Max()
	if bestBuy.Price < trade.Price {
		e.counters.IncTradeMissingOrders()
		return
	}

	sellLevel, ok := e.sell.Get(trade.Price)
	if !ok {
		e.counters.IncTradeMissingOrders()
		return
	}

	if bestBuy.TotalQuantity < trade.Quantity || sellLevel.TotalQuantity < trade.Quantity {
		e.counters.IncTradeMissingOrders()
		return
	}

	e.consumeFromTail(e.buy, bestBuy, trade.Quantity)
	e.consumeFromTail(e.sell, sellLevel, trade.Quantity)

	if e.hasRecentTrade && e.recentTradePrice == trade.Price {
		e.recentTradeQty += trade.Quantity
	} else {
		e.hasRecentTrade = true
		e.recentTradePrice = trade.Price
		e.recentTradeQty = trade.Quantity
	}
	e.sink.Print(fmt.Sprintf("%d@%s\n", e.recentTradeQty, formatPrice(e.recentTradePrice)))

	e.checkCross()
}

// consumeFromTail pops remaining quantity off level's tail, oldest
// order first, removing fully-consumed orders and reducing a
// partially-consumed one in place.
func (e *Engine) consumeFromTail(sb *SideBook, level *PriceLevel, remaining uint32) {
	for remaining > 0 {
		n := level.Tail()
		if n == nil {
			break
		}
		if n.order.Quantity > remaining {
			level.ChangeQuantity(n, n.order.Quantity-remaining)
			remaining = 0
			break
		}
		remaining -= n.order.Quantity
		level.Remove(n)
		e.idx.delete(n.order.OrderID)
	}
	if level.Empty() {
		sb.Delete(level.Price)
	}
}

// PrintMidpoint emits the current midpoint quote, or "NAN" if either
// side is empty.
func (e *Engine) PrintMidpoint() {
	if e.buy.Empty() || e.sell.Empty() {
		e.sink.Print("NAN\n")
		return
	}
	bestBuy, _ := e.buy.Max()
	bestSell, _ := e.sell.Min()
	mid := float64(bestBuy.Price+bestSell.Price) / 200.0
	e.sink.Print(fmt.Sprintf("%.2f\n", mid))
}

// checkCross observes whether the book is crossed (best bid >= best
// ask) and counts it. It is purely observational and never repairs
// the book.
func (e *Engine) checkCross() {
	if e.buy.Empty() || e.sell.Empty() {
		return
	}
	bestBuy, _ := e.buy.Max()
	bestSell, _ := e.sell.Min()
	if bestSell.Price <= bestBuy.Price {
		e.counters.IncCrossedBook()
	}
}

// PrintBook emits a single multi-line snapshot: sell levels highest
// first, a blank separator, then buy levels highest first. Each level
// prints its price followed by one "<side> <qty> " token per resting
// order, oldest first.
func (e *Engine) PrintBook() {
	var out string
	e.sell.Descend(func(pl *PriceLevel) bool {
		out += formatLevel(pl, "S")
		return true
	})
	out += "\n"
	e.buy.Descend(func(pl *PriceLevel) bool {
		out += formatLevel(pl, "B")
		return true
	})
	e.sink.Print(out)
}

func formatLevel(pl *PriceLevel, tag string) string {
	if pl.Empty() {
		return ""
	}
	line := fmt.Sprintf("%s ", formatPrice(pl.Price))
	for _, o := range pl.Orders() {
		line += fmt.Sprintf("%s %d ", tag, o.Quantity)
	}
	return line + "\n"
}

func formatPrice(price uint64) string {
	return fmt.Sprintf("%d.%02d", price/100, price%100)
}

func (e *Engine) catastrophic(msg string) {
	e.sink.Print("CATASTROPHIC: " + msg + "\n")
	if e.diag != nil {
		e.diag.Catastrophic(msg)
	}
}

// CheckInvariants walks the live data structures and verifies that
// quantities, the order index, and cross-detection stay consistent.
// It never mutates state; it exists so tests can assert the book is
// internally consistent after each processed message.
func (e *Engine) CheckInvariants() error {
	seen := make(map[uint32]bool)

	checkSide := func(sb *SideBook, side common.Side) error {
		var err error
		sb.Ascend(func(pl *PriceLevel) bool {
			if pl.Empty() {
				err = fmt.Errorf("book: empty price level %d persists in side book", pl.Price)
				return false
			}
			var sum uint32
			for _, o := range pl.Orders() {
				if o.Quantity == 0 {
					err = fmt.Errorf("book: resting order %d has zero quantity", o.OrderID)
					return false
				}
				entry, ok := e.idx.get(o.OrderID)
				if !ok || entry.side != side || entry.price != pl.Price {
					err = fmt.Errorf("%w: order %d", ErrUnknownOrder, o.OrderID)
					return false
				}
				seen[o.OrderID] = true
				sum += o.Quantity
			}
			if sum != pl.TotalQuantity {
				err = fmt.Errorf("book: level %d total_quantity %d does not match sum %d", pl.Price, pl.TotalQuantity, sum)
				return false
			}
			return true
		})
		return err
	}

	if err := checkSide(e.buy, common.Buy); err != nil {
		return err
	}
	if err := checkSide(e.sell, common.Sell); err != nil {
		return err
	}

	if len(seen) != e.idx.len() {
		return fmt.Errorf("book: order index has %d entries but %d orders are resting", e.idx.len(), len(seen))
	}

	if !e.buy.Empty() && !e.sell.Empty() {
		bestBuy, _ := e.buy.Max()
		bestSell, _ := e.sell.Min()
		if bestSell.Price <= bestBuy.Price && e.counters.CrossedBook == 0 {
			return fmt.Errorf("book: crossed at bid %d / ask %d but crossed_book was never counted", bestBuy.Price, bestSell.Price)
		}
	}

	return nil
}
