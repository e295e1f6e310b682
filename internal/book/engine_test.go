package book

import (
	"testing"

	"ironbook/internal/common"
	"ironbook/internal/counters"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	lines []string
}

func (f *fakeSink) Print(line string) { f.lines = append(f.lines, line) }

func buyOrder(id uint32, qty uint32, price uint64) common.Order {
	return common.Order{OrderID: id, Side: common.Buy, Quantity: qty, Price: price}
}

func sellOrder(id uint32, qty uint32, price uint64) common.Order {
	return common.Order{OrderID: id, Side: common.Sell, Quantity: qty, Price: price}
}

func newTestEngine() (*Engine, *counters.Counters, *fakeSink) {
	c := &counters.Counters{}
	sink := &fakeSink{}
	return NewEngine(c, sink, nil), c, sink
}

func TestScenarioSingleAddThenCancel(t *testing.T) {
	e, c, sink := newTestEngine()

	e.AddOrder(buyOrder(1, 10, 10000))
	require.NoError(t, e.CheckInvariants())
	e.PrintMidpoint()

	e.RemoveOrder(1)
	require.NoError(t, e.CheckInvariants())
	e.PrintMidpoint()

	assert.Equal(t, []string{"NAN\n", "NAN\n"}, sink.lines)
	assert.Equal(t, uint64(0), c.CrossedBook)
}

func TestScenarioCrossEmission(t *testing.T) {
	e, c, sink := newTestEngine()

	e.AddOrder(buyOrder(1, 10, 10100))
	require.NoError(t, e.CheckInvariants())
	e.PrintMidpoint()

	e.AddOrder(sellOrder(2, 10, 10000))
	require.NoError(t, e.CheckInvariants())
	e.PrintMidpoint()

	assert.Equal(t, uint64(1), c.CrossedBook)
	assert.Equal(t, "100.50\n", sink.lines[len(sink.lines)-1])
}

func TestScenarioTradeConsumesOldest(t *testing.T) {
	e, _, sink := newTestEngine()

	e.AddOrder(buyOrder(1, 5, 10000))
	e.AddOrder(buyOrder(2, 5, 10000))
	e.AddOrder(sellOrder(3, 5, 10000))
	require.NoError(t, e.CheckInvariants())

	e.HandleTrade(common.TradeMessage{Quantity: 5, Price: 10000})
	require.NoError(t, e.CheckInvariants())

	_, exists := e.idx.get(1)
	assert.False(t, exists)
	_, exists = e.idx.get(3)
	assert.False(t, exists)

	level, ok := e.buy.Get(10000)
	require.True(t, ok)
	assert.Equal(t, uint32(5), level.TotalQuantity)
	assert.Equal(t, uint32(2), level.Tail().order.OrderID)

	assert.Equal(t, "5@100.00\n", sink.lines[len(sink.lines)-1])
}

func TestScenarioModifyRetainsPriorityOnReduce(t *testing.T) {
	e, _, sink := newTestEngine()

	e.AddOrder(buyOrder(1, 10, 10000))
	e.AddOrder(buyOrder(2, 5, 10000))
	// A resting sell at the trade price: HandleTrade rejects a trade
	// while either side is empty.
	e.AddOrder(sellOrder(3, 5, 10000))
	e.ModifyOrder(buyOrder(1, 5, 10000))
	require.NoError(t, e.CheckInvariants())

	e.HandleTrade(common.TradeMessage{Quantity: 5, Price: 10000})
	require.NoError(t, e.CheckInvariants())

	_, exists := e.idx.get(1)
	assert.False(t, exists, "id 1 should be fully consumed by the trade")
	_, exists = e.idx.get(2)
	assert.True(t, exists, "id 2 should remain resting")

	assert.Equal(t, "5@100.00\n", sink.lines[len(sink.lines)-1])
}

func TestScenarioModifyLosesPriorityOnIncrease(t *testing.T) {
	e, _, _ := newTestEngine()

	e.AddOrder(buyOrder(1, 5, 10000))
	e.AddOrder(buyOrder(2, 5, 10000))
	// A resting sell at the trade price: HandleTrade rejects a trade
	// while either side is empty.
	e.AddOrder(sellOrder(3, 5, 10000))
	e.ModifyOrder(buyOrder(1, 6, 10000))
	require.NoError(t, e.CheckInvariants())

	e.HandleTrade(common.TradeMessage{Quantity: 5, Price: 10000})
	require.NoError(t, e.CheckInvariants())

	_, exists := e.idx.get(2)
	assert.False(t, exists, "id 2 should be consumed: it is now at tail")

	entry, exists := e.idx.get(1)
	require.True(t, exists, "id 1 should remain: it forfeited priority to head")
	assert.Equal(t, uint32(6), entry.node.order.Quantity)
}

func TestScenarioTradeAggregationAcrossIdenticalPrices(t *testing.T) {
	e, _, sink := newTestEngine()

	e.AddOrder(buyOrder(1, 10, 10000))
	e.AddOrder(sellOrder(2, 10, 10000))

	e.HandleTrade(common.TradeMessage{Quantity: 4, Price: 10000})
	e.HandleTrade(common.TradeMessage{Quantity: 3, Price: 10000})

	assert.Contains(t, sink.lines, "4@100.00\n")
	assert.Contains(t, sink.lines, "7@100.00\n")
}

func TestTradeMissingOrdersWhenSideEmpty(t *testing.T) {
	e, c, _ := newTestEngine()
	e.HandleTrade(common.TradeMessage{Quantity: 5, Price: 10000})
	assert.Equal(t, uint64(1), c.TradeMissingOrders)
}

func TestTradeMissingOrdersWhenPriceAboveBestBuy(t *testing.T) {
	e, c, _ := newTestEngine()
	e.AddOrder(buyOrder(1, 5, 9900))
	e.AddOrder(sellOrder(2, 5, 10100))
	e.HandleTrade(common.TradeMessage{Quantity: 5, Price: 10100})
	assert.Equal(t, uint64(1), c.TradeMissingOrders)
}

func TestDuplicateAddIsCounted(t *testing.T) {
	e, c, _ := newTestEngine()
	e.AddOrder(buyOrder(1, 5, 10000))
	e.AddOrder(buyOrder(1, 5, 10000))
	assert.Equal(t, uint64(1), c.DuplicateAdd)
}

func TestBadCancelAndModifyAreCounted(t *testing.T) {
	e, c, _ := newTestEngine()
	e.RemoveOrder(99)
	e.ModifyOrder(buyOrder(99, 5, 10000))
	assert.Equal(t, uint64(1), c.BadCancels)
	assert.Equal(t, uint64(1), c.BadModifies)
}

func TestModifyPriceChangeAlwaysLosesPriority(t *testing.T) {
	e, _, _ := newTestEngine()
	e.AddOrder(buyOrder(1, 5, 10000))
	e.ModifyOrder(buyOrder(1, 5, 10100))
	require.NoError(t, e.CheckInvariants())

	entry, exists := e.idx.get(1)
	require.True(t, exists)
	assert.Equal(t, uint64(10100), entry.price)

	_, stillAtOld := e.buy.Get(10000)
	assert.False(t, stillAtOld)
}

func TestModifyQuantityIncreaseOnSoleOrderKeepsLevelLive(t *testing.T) {
	e, _, _ := newTestEngine()

	e.AddOrder(buyOrder(1, 5, 10000))
	e.ModifyOrder(buyOrder(1, 6, 10000))
	require.NoError(t, e.CheckInvariants())

	level, ok := e.buy.Get(10000)
	require.True(t, ok, "the level must still be registered in the side book")
	assert.Equal(t, uint32(6), level.TotalQuantity)
	assert.False(t, e.buy.Empty())

	entry, exists := e.idx.get(1)
	require.True(t, exists)
	assert.Equal(t, uint32(6), entry.node.order.Quantity)

	e.PrintMidpoint()
}

// TestCatastrophicPathUnreachableUnderValidSequences drives adds on
// both sides, modifies across price, a same-price quantity increase on
// a sole resting order, removes, and a trade attempt (rejected, since
// the removes empty the buy side) through a range of id/price/quantity
// combinations and asserts CheckInvariants never fails. Since the only
// way catastrophic() fires is an order index entry pointing at a price
// level that no longer exists in the side book, and CheckInvariants
// independently walks both the index and the side books to confirm
// they agree, a clean pass shows these sequences do not desynchronize
// them.
func TestCatastrophicPathUnreachableUnderValidSequences(t *testing.T) {
	e, _, _ := newTestEngine()

	var nextID uint32 = 1
	add := func(side common.Side, qty uint32, price uint64) uint32 {
		id := nextID
		nextID++
		o := common.Order{OrderID: id, Side: side, Quantity: qty, Price: price}
		e.AddOrder(o)
		require.NoError(t, e.CheckInvariants())
		return id
	}

	prices := []uint64{9900, 10000, 10000, 10100, 10200}
	ids := make([]uint32, 0, len(prices)*2)
	for i, p := range prices {
		ids = append(ids, add(common.Buy, uint32(5+i), p-200))
		ids = append(ids, add(common.Sell, uint32(5+i), p))
	}

	for i, id := range ids {
		o := common.Order{OrderID: id, Side: common.Buy, Quantity: uint32(10 + i), Price: 9800 + uint64(i)*100}
		if i%2 == 0 {
			o.Side = common.Sell
		}
		e.ModifyOrder(o)
		require.NoError(t, e.CheckInvariants())
	}

	for i := 0; i < len(ids); i += 2 {
		e.RemoveOrder(ids[i])
		require.NoError(t, e.CheckInvariants())
	}

	e.HandleTrade(common.TradeMessage{Quantity: 1, Price: 9800})
	require.NoError(t, e.CheckInvariants())
}

func TestPrintBookFormat(t *testing.T) {
	e, _, sink := newTestEngine()
	e.AddOrder(buyOrder(1, 5, 10000))
	e.AddOrder(sellOrder(2, 3, 10100))

	e.PrintBook()
	out := sink.lines[len(sink.lines)-1]
	assert.Contains(t, out, "101.00")
	assert.Contains(t, out, "S 3")
	assert.Contains(t, out, "100.00")
	assert.Contains(t, out, "B 5")
}
