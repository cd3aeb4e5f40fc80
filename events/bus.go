// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package events

import (
	"context"
)

type Type int

// Base is embedded in every event.
type Base struct {
	ctx         context.Context
	blockHeight uint64
	seq         uint64
	et          Type
}

// Event is what the engine emits once an operation commits.
type Event interface {
	Type() Type
	Context() context.Context
	BlockHeight() uint64
	Sequence() uint64
	SetSequence(uint64)
	// Payload is the JSON-ready content of the event.
	Payload() interface{}
}

// MarketScoped is implemented by events that belong to one market.
type MarketScoped interface {
	MarketKey() string
}

const (
	All Type = iota
	BetPlacedEvent
	BetMatchedEvent
	BetAdjustedEvent
	BetCanceledEvent
	MarketGroupResolvedEvent
	MarketEvent
	MarketGroupEvent
	RulesEvent
	LedgerMovementsEvent
)

var eventStrings = map[Type]string{
	All:                      "ALL",
	BetPlacedEvent:           "BetPlaced",
	BetMatchedEvent:          "BetMatched",
	BetAdjustedEvent:         "BetAdjusted",
	BetCanceledEvent:         "BetCanceled",
	MarketGroupResolvedEvent: "MarketGroupResolved",
	MarketEvent:              "Market",
	MarketGroupEvent:         "MarketGroup",
	RulesEvent:               "Rules",
	LedgerMovementsEvent:     "LedgerMovements",
}

func newBase(ctx context.Context, height uint64, t Type) *Base {
	return &Base{
		ctx:         ctx,
		blockHeight: height,
		et:          t,
	}
}

func (b Base) BlockHeight() uint64 {
	return b.blockHeight
}

func (b Base) Sequence() uint64 {
	return b.seq
}

func (b *Base) SetSequence(seq uint64) {
	b.seq = seq
}

func (b Base) Context() context.Context {
	return b.ctx
}

func (b Base) Type() Type {
	return b.et
}

func (t Type) String() string {
	s, ok := eventStrings[t]
	if !ok {
		return "UNKNOWN EVENT"
	}
	return s
}

// AllTypes returns every concrete event type.
func AllTypes() []Type {
	return []Type{
		BetPlacedEvent,
		BetMatchedEvent,
		BetAdjustedEvent,
		BetCanceledEvent,
		MarketGroupResolvedEvent,
		MarketEvent,
		MarketGroupEvent,
		RulesEvent,
		LedgerMovementsEvent,
	}
}
