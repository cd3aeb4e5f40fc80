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

package broker

import (
	"context"
	"sort"
	"sync"

	"code.vegaprotocol.io/betting/events"
	"code.vegaprotocol.io/betting/logging"
)

// Subscriber receives committed events. Push is called synchronously, in
// subscription order, so it must not block.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/subscriber_mock.go -package mocks code.vegaprotocol.io/betting/broker Subscriber
type Subscriber interface {
	Push(evts ...events.Event)
	Closed() <-chan struct{}
	// Types returns the event types the subscriber wants, all when empty.
	Types() []events.Type
	SetID(id int)
	ID() int
}

// BrokerI interface (horribly named) is declared here to provide a drop-in replacement for broker mocks used throughout.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/broker_mock.go -package mocks code.vegaprotocol.io/betting/broker BrokerI
type BrokerI interface {
	Send(event events.Event)
	SendBatch(evts []events.Event)
}

// Broker dispatches events to its subscribers in the order they were sent.
type Broker struct {
	log *logging.Logger
	ctx context.Context

	mu    sync.Mutex
	subs  map[int]Subscriber
	tSubs map[events.Type]map[int]struct{}
	keys  []int
	next  int
	seq   uint64
}

// New creates a new base broker.
func New(ctx context.Context, log *logging.Logger, config Config) *Broker {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &Broker{
		log:   log,
		ctx:   ctx,
		subs:  map[int]Subscriber{},
		tSubs: map[events.Type]map[int]struct{}{},
		next:  1,
		seq:   1,
	}
}

func (b *Broker) ReloadConf(config Config) {
	b.log.Info("reloading configuration")
	if b.log.GetLevel() != config.Level.Get() {
		b.log.Info("updating log level",
			logging.String("old", b.log.GetLevel().String()),
			logging.String("new", config.Level.String()),
		)
		b.log.SetLevel(config.Level.Get())
	}
}

// Send sends an event to all subscribers.
func (b *Broker) Send(event events.Event) {
	b.SendBatch([]events.Event{event})
}

// SendBatch numbers the events and hands them to every interested
// subscriber as one push per subscriber.
func (b *Broker) SendBatch(evts []events.Event) {
	if len(evts) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, e := range evts {
		e.SetSequence(b.seq)
		b.seq++
	}

	closed := []int{}
	for _, k := range b.keys {
		sub := b.subs[k]
		select {
		case <-sub.Closed():
			closed = append(closed, k)
			continue
		case <-b.ctx.Done():
			return
		default:
		}
		if wanted := b.filter(k, evts); len(wanted) > 0 {
			sub.Push(wanted...)
		}
	}
	if len(closed) > 0 {
		b.rmSubs(closed...)
	}
}

func (b *Broker) filter(k int, evts []events.Event) []events.Event {
	if _, ok := b.tSubs[events.All][k]; ok {
		return evts
	}
	out := make([]events.Event, 0, len(evts))
	for _, e := range evts {
		if _, ok := b.tSubs[e.Type()][k]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Subscribe registers a new subscriber, returning the key.
func (b *Broker) Subscribe(s Subscriber) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := b.getKey()
	s.SetID(k)
	b.subs[k] = s
	b.keys = append(b.keys, k)

	types := s.Types()
	if len(types) == 0 {
		types = []events.Type{events.All}
	}
	for _, t := range types {
		if _, ok := b.tSubs[t]; !ok {
			b.tSubs[t] = map[int]struct{}{}
		}
		b.tSubs[t][k] = struct{}{}
	}
	b.log.Debug("new subscriber", logging.Int("id", k), logging.Int("types", len(types)))
	return k
}

// Unsubscribe removes subscriber from broker
// this does not change the state of the subscriber.
func (b *Broker) Unsubscribe(k int) {
	b.mu.Lock()
	b.rmSubs(k)
	b.mu.Unlock()
}

func (b *Broker) getKey() int {
	k := b.next
	b.next++
	return k
}

func (b *Broker) rmSubs(keys ...int) {
	for _, k := range keys {
		if _, ok := b.subs[k]; !ok {
			continue
		}
		delete(b.subs, k)
		for _, m := range b.tSubs {
			delete(m, k)
		}
		i := sort.SearchInts(b.keys, k)
		b.keys = append(b.keys[:i], b.keys[i+1:]...)
	}
}
