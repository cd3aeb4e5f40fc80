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

package snapshot_test

import (
	"path/filepath"
	"testing"

	"code.vegaprotocol.io/betting/collateral"
	"code.vegaprotocol.io/betting/libs/num"
	"code.vegaprotocol.io/betting/logging"
	"code.vegaprotocol.io/betting/snapshot"
	"code.vegaprotocol.io/betting/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payloadAt(height uint64) *snapshot.Payload {
	return &snapshot.Payload{
		Height: height,
		IDs:    types.NewIDs(),
		Markets: []*types.Market{
			{ID: 1, Group: 1, Description: "home", Status: types.MarketStatusOpen},
		},
		Accounts: []collateral.AccountBalance{
			{Account: types.GeneralAccount("alice", "BTF"), Balance: num.NewUint(1000)},
		},
	}
}

func getTestStore(t *testing.T, conf snapshot.Config) *snapshot.Store {
	t.Helper()
	s, err := snapshot.NewStore(logging.NewTestLogger(), conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore(t *testing.T) {
	t.Run("save and load", testSaveLoad)
	t.Run("latest is the highest height", testLatest)
	t.Run("old snapshots are pruned", testPrune)
	t.Run("snapshots survive reopening", testReopen)
}

func testSaveLoad(t *testing.T) {
	s := getTestStore(t, snapshot.NewDefaultConfig())
	_, err := s.Load(5)
	assert.ErrorIs(t, err, snapshot.ErrSnapshotNotFound)
	_, err = s.Latest()
	assert.ErrorIs(t, err, snapshot.ErrSnapshotNotFound)

	require.NoError(t, s.Save(payloadAt(5)))
	p, err := s.Load(5)
	require.NoError(t, err)
	assert.Equal(t, payloadAt(5), p)
}

func testLatest(t *testing.T) {
	s := getTestStore(t, snapshot.NewDefaultConfig())
	// heights must sort numerically, not as strings
	for _, h := range []uint64{9, 300, 20} {
		require.NoError(t, s.Save(payloadAt(h)))
	}
	p, err := s.Latest()
	require.NoError(t, err)
	assert.Equal(t, uint64(300), p.Height)

	heights, err := s.Heights()
	require.NoError(t, err)
	assert.Equal(t, []uint64{9, 20, 300}, heights)
}

func testPrune(t *testing.T) {
	conf := snapshot.NewDefaultConfig()
	conf.Retain = 2
	s := getTestStore(t, conf)
	for h := uint64(1); h <= 4; h++ {
		require.NoError(t, s.Save(payloadAt(h)))
	}
	heights, err := s.Heights()
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 4}, heights)
}

func testReopen(t *testing.T) {
	conf := snapshot.NewDefaultConfig()
	conf.Path = filepath.Join(t.TempDir(), "snapshots")
	s, err := snapshot.NewStore(logging.NewTestLogger(), conf)
	require.NoError(t, err)
	require.NoError(t, s.Save(payloadAt(7)))
	require.NoError(t, s.Close())

	s = getTestStore(t, conf)
	p, err := s.Latest()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), p.Height)
}

func TestPayloadHash(t *testing.T) {
	a, err := payloadAt(1).Hash()
	require.NoError(t, err)
	b, err := payloadAt(2).Hash()
	require.NoError(t, err)
	// the height is not part of the state
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	other := payloadAt(1)
	other.Accounts[0].Balance = num.NewUint(999)
	c, err := other.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
