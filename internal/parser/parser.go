// Package parser classifies one input line and decodes its fields with
// strict validation, counting exactly one error bucket per failure via
// the explicit *counters.Counters dependency it is given.
package parser

import (
	"strconv"
	"strings"

	"ironbook/internal/common"
	"ironbook/internal/counters"
)

// fieldStatus is the outcome of decoding one numeric token.
type fieldStatus int

const (
	fieldGood    fieldStatus = iota
	fieldMissing             // token absent entirely -> corrupt_messages
	fieldBad                 // negative or unparseable -> the field's own bucket
)

// ParseLine classifies and decodes one line (without its trailing
// newline). It always returns a (MessageType, Order, TradeMessage)
// triple; callers distinguish success from failure by inspecting the
// returned MessageType and Order.Side / TradeMessage.Price (Side ==
// Unknown, or trade price == 0, means "drop this message").
func ParseLine(line string, c *counters.Counters) (common.MessageType, common.Order, common.TradeMessage) {
	if len(line) < common.MessageLenMin || len(line) > common.MessageLenMax {
		c.IncCorruptMessage()
		return common.Invalid, common.Order{}, common.TradeMessage{}
	}

	tokens := strings.Split(line, ",")
	if len(tokens) == 0 || tokens[0] == "" {
		c.IncCorruptMessage()
		return common.Invalid, common.Order{}, common.TradeMessage{}
	}

	switch tokens[0][0] {
	case 'A':
		order := parseOrder(tokens[1:], c)
		return common.Add, order, common.TradeMessage{}
	case 'M':
		order := parseOrder(tokens[1:], c)
		return common.Modify, order, common.TradeMessage{}
	case 'X':
		order := parseOrder(tokens[1:], c)
		return common.Remove, order, common.TradeMessage{}
	case 'T':
		trade := parseTrade(tokens[1:], c)
		return common.Trade, common.Order{}, trade
	default:
		c.IncCorruptMessage()
		return common.Invalid, common.Order{}, common.TradeMessage{}
	}
}

// parseOrder decodes "<id>,<B|S>,<qty>,<price>" (the type token already
// consumed by the caller). On any failure it returns an Order with
// Side == common.Unknown so the engine never sees it.
func parseOrder(fields []string, c *counters.Counters) common.Order {
	fail := func() common.Order { return common.Order{Side: common.Unknown} }

	// Trailing tokens beyond price are ignored; only the presence of the
	// four required fields is checked.
	if len(fields) < 4 {
		c.IncCorruptMessage()
		return fail()
	}

	id, status := parseUintToken(fields[0], 32)
	switch status {
	case fieldMissing:
		c.IncCorruptMessage()
		return fail()
	case fieldBad:
		c.IncInvalidID()
		return fail()
	}

	var side common.Side
	switch fields[1] {
	case "B":
		side = common.Buy
	case "S":
		side = common.Sell
	default:
		c.IncCorruptMessage()
		return fail()
	}

	qty, status := parseUintToken(fields[2], 32)
	switch status {
	case fieldMissing:
		c.IncCorruptMessage()
		return fail()
	case fieldBad:
		c.IncInvalidQty()
		return fail()
	}
	if qty == 0 {
		c.IncInvalidQty()
		return fail()
	}

	price, status := parsePriceToken(fields[3])
	switch status {
	case fieldMissing:
		c.IncCorruptMessage()
		return fail()
	case fieldBad:
		c.IncInvalidPrice()
		return fail()
	}
	if price == 0 {
		c.IncInvalidPrice()
		return fail()
	}
	if price >= common.MaxPrice {
		c.IncInvalidPrice()
		return fail()
	}

	c.IncGoodMessage()
	return common.Order{
		OrderID:  uint32(id),
		Side:     side,
		Price:    price,
		Quantity: uint32(qty),
	}
}

// parseTrade decodes "<qty>,<price>" (the leading "T" token already
// consumed). A zero quantity is classified under invalid_price rather
// than invalid_qty.
func parseTrade(fields []string, c *counters.Counters) common.TradeMessage {
	fail := func() common.TradeMessage { return common.TradeMessage{} }

	if len(fields) < 2 {
		c.IncCorruptMessage()
		return fail()
	}

	qty, status := parseUintToken(fields[0], 32)
	switch status {
	case fieldMissing:
		c.IncCorruptMessage()
		return fail()
	case fieldBad:
		c.IncInvalidQty()
		return fail()
	}
	if qty == 0 {
		c.IncInvalidPrice()
		return fail()
	}

	price, status := parsePriceToken(fields[1])
	switch status {
	case fieldMissing:
		c.IncCorruptMessage()
		return fail()
	case fieldBad:
		c.IncInvalidPrice()
		return fail()
	}
	if price == 0 {
		c.IncInvalidPrice()
		return fail()
	}
	if price >= common.MaxPrice {
		c.IncInvalidPrice()
		return fail()
	}

	c.IncGoodMessage()
	return common.TradeMessage{Quantity: uint32(qty), Price: price}
}

// parseUintToken decodes a non-negative integer token.
func parseUintToken(tok string, bitSize int) (uint64, fieldStatus) {
	if tok == "" {
		return 0, fieldMissing
	}
	if tok[0] == '-' {
		return 0, fieldBad
	}
	v, err := strconv.ParseUint(tok, 10, bitSize)
	if err != nil {
		return 0, fieldBad
	}
	return v, fieldGood
}

// parsePriceToken decodes a price token into cent-fixed-point, accepting
// 0, 1, or 2 digits of fractional precision. Validation is done on the
// token's text rather than via float64 multiplication, avoiding
// floating-point rounding at the accept/reject boundary (0.01 accepted,
// 0.00 and 0.001 rejected).
func parsePriceToken(tok string) (uint64, fieldStatus) {
	if tok == "" {
		return 0, fieldMissing
	}
	if tok[0] == '-' {
		return 0, fieldBad
	}

	intPart, fracPart, hasFrac := strings.Cut(tok, ".")
	if intPart == "" {
		return 0, fieldBad
	}
	if hasFrac && len(fracPart) > 2 {
		return 0, fieldBad
	}
	for _, r := range fracPart {
		if r < '0' || r > '9' {
			return 0, fieldBad
		}
	}

	whole, err := strconv.ParseUint(intPart, 10, 64)
	if err != nil {
		return 0, fieldBad
	}

	switch len(fracPart) {
	case 0:
		fracPart = "00"
	case 1:
		fracPart += "0"
	}
	frac, err := strconv.ParseUint(fracPart, 10, 64)
	if err != nil {
		return 0, fieldBad
	}

	return whole*100 + frac, fieldGood
}
