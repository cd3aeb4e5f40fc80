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
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"code.vegaprotocol.io/betting/events"
	"code.vegaprotocol.io/betting/logging"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of kafka.Writer the sink uses.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/message_writer_mock.go -package mocks code.vegaprotocol.io/betting/broker MessageWriter
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// envelope is the JSON value of every Kafka message.
type envelope struct {
	Type        string      `json:"type"`
	BlockHeight uint64      `json:"block_height"`
	Sequence    uint64      `json:"sequence"`
	Payload     interface{} `json:"payload"`
}

// KafkaSink forwards committed events to a Kafka topic. Events are queued
// and written from a separate routine so a slow cluster never holds up
// block processing: when the queue is full the batch is dropped and logged.
type KafkaSink struct {
	log     *logging.Logger
	w       MessageWriter
	timeout time.Duration

	ch     chan []events.Event
	closed chan struct{}
	once   sync.Once
	done   chan struct{}
	id     int

	onDrop func(int)
}

// NewKafkaWriter builds the writer for the configured cluster.
func NewKafkaWriter(config KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(config.Brokers...),
		Topic:                  config.Topic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           config.WriteTimeout.Get(),
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaSink starts a sink writing through w until ctx is done or Close
// is called.
func NewKafkaSink(ctx context.Context, log *logging.Logger, config KafkaConfig, w MessageWriter) *KafkaSink {
	size := config.BufferSize
	if size <= 0 {
		size = 1
	}
	s := &KafkaSink{
		log:     log.Named("kafka"),
		w:       w,
		timeout: config.WriteTimeout.Get(),
		ch:      make(chan []events.Event, size),
		closed:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.loop(ctx)
	return s
}

// OnDrop registers a callback told how many events were dropped.
func (s *KafkaSink) OnDrop(f func(int)) {
	s.onDrop = f
}

func (s *KafkaSink) Push(evts ...events.Event) {
	select {
	case <-s.closed:
		return
	default:
	}
	select {
	case s.ch <- evts:
	default:
		s.log.Error("kafka sink queue full, dropping events", logging.Int("count", len(evts)))
		if s.onDrop != nil {
			s.onDrop(len(evts))
		}
	}
}

func (s *KafkaSink) loop(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closed:
			// flush what was queued before closing
			for {
				select {
				case evts := <-s.ch:
					s.write(ctx, evts)
				default:
					return
				}
			}
		case evts := <-s.ch:
			s.write(ctx, evts)
		}
	}
}

func (s *KafkaSink) write(ctx context.Context, evts []events.Event) {
	msgs := make([]kafka.Message, 0, len(evts))
	for _, e := range evts {
		msg, err := toMessage(e)
		if err != nil {
			s.log.Error("could not encode event", logging.String("type", e.Type().String()), logging.Error(err))
			continue
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return
	}
	wctx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.w.WriteMessages(wctx, msgs...); err != nil {
		s.log.Error("could not write events to kafka", logging.Int("count", len(msgs)), logging.Error(err))
	}
}

func toMessage(e events.Event) (kafka.Message, error) {
	value, err := json.Marshal(envelope{
		Type:        e.Type().String(),
		BlockHeight: e.BlockHeight(),
		Sequence:    e.Sequence(),
		Payload:     e.Payload(),
	})
	if err != nil {
		return kafka.Message{}, err
	}
	key := e.Type().String()
	if ms, ok := e.(events.MarketScoped); ok {
		key = ms.MarketKey()
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.Type().String())},
			{Key: "block-height", Value: []byte(strconv.FormatUint(e.BlockHeight(), 10))},
		},
	}, nil
}

// Close stops accepting events, writes what is queued and closes the writer.
func (s *KafkaSink) Close() error {
	s.once.Do(func() { close(s.closed) })
	<-s.done
	return s.w.Close()
}

func (s *KafkaSink) Closed() <-chan struct{} {
	return s.closed
}

func (s *KafkaSink) Types() []events.Type {
	return nil
}

func (s *KafkaSink) SetID(id int) {
	s.id = id
}

func (s *KafkaSink) ID() int {
	return s.id
}
