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

package commands

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"code.vegaprotocol.io/betting/broker"
	"code.vegaprotocol.io/betting/collateral"
	"code.vegaprotocol.io/betting/config"
	"code.vegaprotocol.io/betting/execution"
	vgclose "code.vegaprotocol.io/betting/libs/close"
	"code.vegaprotocol.io/betting/logging"
	"code.vegaprotocol.io/betting/metrics"
	"code.vegaprotocol.io/betting/snapshot"
	"code.vegaprotocol.io/betting/txn"
	"code.vegaprotocol.io/betting/types"

	"github.com/jessevdk/go-flags"
)

const maxBlockLine = 16 << 20

type replayCmd struct {
	RootPathFlag
	Input            string `short:"i" long:"input" description:"File of hex encoded transactions, one block per line, - for stdin" default:"-"`
	SnapshotInterval uint64 `long:"snapshot-interval" description:"Save a snapshot every n blocks, 0 disables snapshots" default:"100"`
	GenesisTime      int64  `long:"genesis-time" description:"Unix time of block 0, each block adds one second" default:"0"`

	ctx context.Context
}

func Replay(ctx context.Context, parser *flags.Parser) error {
	_, err := parser.AddCommand("replay",
		"Apply a file of transactions",
		"Apply transactions block by block, resuming from the latest snapshot, and print the resulting state hash",
		&replayCmd{ctx: ctx},
	)
	return err
}

func (opts *replayCmd) Execute(_ []string) error {
	height, hash, err := opts.replay()
	if err != nil {
		return err
	}
	fmt.Printf("height %d, state hash %s\n", height, hex.EncodeToString(hash))
	return nil
}

func (opts *replayCmd) replay() (_ uint64, _ []byte, err error) {
	closer := vgclose.NewCloser()
	defer func() {
		if cerr := closer.CloseAll(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	bootLog := logging.NewLoggerFromConfig(logging.NewDefaultConfig())
	defer bootLog.AtExit()

	watcher, err := config.NewWatcher(opts.ctx, bootLog, opts.RootPath)
	if err != nil {
		return 0, nil, err
	}
	cfg := watcher.Get()
	log := logging.NewLoggerFromConfig(cfg.Logging)
	defer log.AtExit()
	metrics.Start(log, cfg.Metrics)

	brk := broker.New(opts.ctx, log, cfg.Broker)
	if cfg.Broker.Kafka.Enabled {
		sink := broker.NewKafkaSink(opts.ctx, log, cfg.Broker.Kafka, broker.NewKafkaWriter(cfg.Broker.Kafka))
		sink.OnDrop(metrics.DroppedEventsAdd)
		brk.Subscribe(sink)
		closer.Add("kafka sink", sink.Close)
	}

	store, err := snapshot.NewStore(log, cfg.Snapshot)
	if err != nil {
		return 0, nil, err
	}
	closer.Add("snapshot store", store.Close)

	col := collateral.New(log, cfg.Collateral)
	engine, height, err := loadEngine(log, cfg.Execution, col, brk, store)
	if err != nil {
		return 0, nil, err
	}

	watcher.OnConfigUpdate(func(c config.Config) {
		engine.ReloadConf(c.Execution)
		col.ReloadConf(c.Collateral)
		brk.ReloadConf(c.Broker)
		store.ReloadConf(c.Snapshot)
	})

	in, err := opts.input()
	if err != nil {
		return 0, nil, err
	}
	closer.Add("input", in.Close)

	height, err = opts.run(log, in, watcher, engine, store, height)
	if err != nil {
		return height, nil, err
	}

	hash, err := engine.StateHash()
	return height, hash, err
}

func (opts *replayCmd) input() (io.ReadCloser, error) {
	if opts.Input == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(opts.Input)
}

// loadEngine restores the engine from the latest snapshot, or starts it
// empty at height 0.
func loadEngine(
	log *logging.Logger,
	conf execution.Config,
	col *collateral.Engine,
	brk *broker.Broker,
	store *snapshot.Store,
) (*execution.Engine, uint64, error) {
	p, err := store.Latest()
	if errors.Is(err, snapshot.ErrSnapshotNotFound) {
		return execution.New(log, conf, col, brk), 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	engine, err := execution.NewFromSnapshot(log, conf, col, brk, p)
	if err != nil {
		return nil, 0, fmt.Errorf("couldn't restore snapshot at height %d: %w", p.Height, err)
	}
	log.Info("restored from snapshot", logging.Uint64("height", p.Height))
	return engine, p.Height, nil
}

// run applies one block per non empty line, each line holding the space
// separated hex transactions of the block. A rejected transaction does
// not stop the rest of its block. Blocks at or below the restored height
// were already applied and are skipped.
func (opts *replayCmd) run(
	log *logging.Logger,
	in io.Reader,
	watcher *config.Watcher,
	engine *execution.Engine,
	store *snapshot.Store,
	restored uint64,
) (uint64, error) {
	params := types.DefaultParams()
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), maxBlockLine)

	height, applied, rejected := uint64(0), 0, 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}
		height++
		if height <= restored {
			continue
		}
		if err := opts.ctx.Err(); err != nil {
			return height - 1, err
		}
		watcher.OnBlock(opts.ctx, height)
		block := types.BlockContext{
			Height: height,
			Time:   time.Unix(opts.GenesisTime+int64(height), 0).UTC(),
			Params: params,
		}

		for i, tx := range strings.Fields(line) {
			if err := apply(opts.ctx, engine, block, tx); err != nil {
				rejected++
				log.Info("transaction rejected",
					logging.Uint64("height", height),
					logging.Int("index", i),
					logging.String("reason", types.ReasonFor(err).String()),
					logging.Error(err),
				)
				continue
			}
			applied++
		}

		if opts.SnapshotInterval > 0 && height%opts.SnapshotInterval == 0 {
			if err := store.Save(engine.Snapshot(height)); err != nil {
				return height, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return height, err
	}
	if height < restored {
		height = restored
	}
	log.Info("replay done",
		logging.Uint64("height", height),
		logging.Int("applied", applied),
		logging.Int("rejected", rejected),
	)
	return height, nil
}

func apply(ctx context.Context, engine *execution.Engine, block types.BlockContext, tx string) error {
	raw, err := hex.DecodeString(tx)
	if err != nil {
		return fmt.Errorf("%w: %v", txn.ErrInvalidEnvelope, err)
	}
	op, err := txn.Decode(raw)
	if err != nil {
		return err
	}
	return engine.Apply(ctx, block, op)
}
