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

package snapshot

import (
	"code.vegaprotocol.io/betting/logging"

	"github.com/google/orderedcode"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const keyPrefix = "snapshot"

var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store keeps snapshot payloads in LevelDB, ordered by height.
type Store struct {
	Config
	log *logging.Logger

	db *leveldb.DB
}

// NewStore opens the store at the configured path, or in memory if the
// path is empty.
func NewStore(log *logging.Logger, conf Config) (*Store, error) {
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())

	var (
		db  *leveldb.DB
		err error
	)
	if len(conf.Path) == 0 {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(conf.Path, &opt.Options{
			Filter:          filter.NewBloomFilter(10),
			BlockCacher:     opt.NoCacher,
			OpenFilesCacher: opt.NoCacher,
		})
	}
	if err != nil {
		return nil, errors.Wrap(err, "could not open snapshot store")
	}

	return &Store{
		Config: conf,
		log:    log,
		db:     db,
	}, nil
}

// ReloadConf updates the log level and retention.
func (s *Store) ReloadConf(cfg Config) {
	s.log.Info("reloading configuration")
	if s.log.GetLevel() != cfg.Level.Get() {
		s.log.Info("updating log level",
			logging.String("old", s.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		s.log.SetLevel(cfg.Level.Get())
	}
	s.Retain = cfg.Retain
}

func key(height uint64) []byte {
	k, err := orderedcode.Append(nil, keyPrefix, height)
	if err != nil {
		// only fails on unsupported item types
		panic(err)
	}
	return k
}

func prefix() *util.Range {
	k, err := orderedcode.Append(nil, keyPrefix)
	if err != nil {
		panic(err)
	}
	return util.BytesPrefix(k)
}

func parseKey(k []byte) (uint64, error) {
	var (
		p      string
		height uint64
	)
	if _, err := orderedcode.Parse(string(k), &p, &height); err != nil {
		return 0, errors.Wrap(err, "invalid snapshot key")
	}
	return height, nil
}

// Save writes the payload under its height and drops the snapshots that
// fall out of retention.
func (s *Store) Save(p *Payload) error {
	data, err := p.Marshal()
	if err != nil {
		return err
	}
	if err := s.db.Put(key(p.Height), data, nil); err != nil {
		return errors.Wrapf(err, "could not save snapshot at %d", p.Height)
	}
	s.log.Debug("snapshot saved",
		logging.BlockHeight(p.Height),
		logging.Int("size", len(data)),
	)
	return s.prune()
}

func (s *Store) prune() error {
	if s.Retain == 0 {
		return nil
	}
	heights, err := s.Heights()
	if err != nil {
		return err
	}
	if uint64(len(heights)) <= s.Retain {
		return nil
	}
	batch := new(leveldb.Batch)
	for _, h := range heights[:uint64(len(heights))-s.Retain] {
		batch.Delete(key(h))
	}
	return s.db.Write(batch, nil)
}

// Load returns the snapshot taken at height.
func (s *Store) Load(height uint64) (*Payload, error) {
	data, err := s.db.Get(key(height), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, errors.Wrapf(ErrSnapshotNotFound, "height %d", height)
	}
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

// Latest returns the snapshot with the highest height.
func (s *Store) Latest() (*Payload, error) {
	it := s.db.NewIterator(prefix(), nil)
	defer it.Release()
	if !it.Last() {
		if err := it.Error(); err != nil {
			return nil, err
		}
		return nil, ErrSnapshotNotFound
	}
	return Unmarshal(it.Value())
}

// Heights lists the heights of the stored snapshots in increasing order.
func (s *Store) Heights() ([]uint64, error) {
	it := s.db.NewIterator(prefix(), nil)
	defer it.Release()
	heights := []uint64{}
	for it.Next() {
		h, err := parseKey(it.Key())
		if err != nil {
			return nil, err
		}
		heights = append(heights, h)
	}
	return heights, it.Error()
}

func (s *Store) Close() error {
	return s.db.Close()
}
