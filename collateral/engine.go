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

package collateral

import (
	"fmt"
	"sort"

	"code.vegaprotocol.io/betting/libs/num"
	"code.vegaprotocol.io/betting/logging"
	"code.vegaprotocol.io/betting/types"
)

// Engine keeps the balance of every account. Balances only change through
// Apply, which takes a whole batch of transfers or none of it.
type Engine struct {
	log *logging.Logger
	cfg Config

	accounts map[types.Account]*num.Uint
}

// AccountBalance is an account with its balance.
type AccountBalance struct {
	Account types.Account `json:"account"`
	Balance *num.Uint     `json:"balance"`
}

// New instantiates a new collateral engine.
func New(log *logging.Logger, conf Config) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())

	return &Engine{
		log:      log,
		cfg:      conf,
		accounts: map[types.Account]*num.Uint{},
	}
}

// ReloadConf updates the internal configuration of the collateral engine.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}
	e.cfg = cfg
}

// Balance returns a copy of the account balance, zero for unknown accounts.
func (e *Engine) Balance(acc types.Account) *num.Uint {
	if b, ok := e.accounts[acc]; ok {
		return b.Clone()
	}
	return num.UintZero()
}

func (e *Engine) GeneralBalance(party types.PartyID, asset types.AssetID) *num.Uint {
	return e.Balance(types.GeneralAccount(party, asset))
}

// Check tells whether the batch could be applied, without applying it.
func (e *Engine) Check(transfers []*types.Transfer) error {
	_, _, err := e.run(transfers)
	return err
}

// Apply applies the transfers in order. If a general account would go
// below zero nothing is applied and ErrInsufficientBalance is returned,
// if any account would no longer fit in 256 bits ErrBalanceOverflow is.
func (e *Engine) Apply(transfers []*types.Transfer) ([]*types.LedgerMovement, error) {
	balances, movements, err := e.run(transfers)
	if err != nil {
		return nil, err
	}
	for acc, b := range balances {
		if b.IsZero() {
			delete(e.accounts, acc)
			continue
		}
		e.accounts[acc] = b
	}
	return movements, nil
}

func (e *Engine) run(transfers []*types.Transfer) (map[types.Account]*num.Uint, []*types.LedgerMovement, error) {
	scratch := map[types.Account]*num.Uint{}
	get := func(acc types.Account) *num.Uint {
		if b, ok := scratch[acc]; ok {
			return b
		}
		b := e.Balance(acc)
		scratch[acc] = b
		return b
	}

	movements := make([]*types.LedgerMovement, 0, len(transfers))
	for _, t := range transfers {
		if t.Amount == nil || t.Amount.IsZero() {
			continue
		}
		if t.From.Asset != t.To.Asset {
			e.log.Error("transfer between assets", logging.String("transfer", t.String()))
			types.PanicInvariant("collateral", "transfer between assets %s and %s", t.From.Asset, t.To.Asset)
		}

		from, to := num.UintZero(), num.UintZero()
		if t.From.Type != types.AccountTypeExternal {
			from = get(t.From)
			if from.LT(t.Amount) {
				if t.From.Type != types.AccountTypeGeneral {
					e.log.Error("account would go negative",
						logging.String("account", t.From.String()),
						logging.Amount("balance", from),
						logging.Amount("amount", t.Amount),
					)
					types.PanicInvariant("collateral", "%s balance %s below transfer %s", t.From, from, t.Amount)
				}
				return nil, nil, fmt.Errorf("%w: %s has %s, needs %s", types.ErrInsufficientBalance, t.From, from, t.Amount)
			}
			from.Sub(from, t.Amount)
		}
		if t.To.Type != types.AccountTypeExternal {
			to = get(t.To)
			if _, overflow := num.UintZero().AddOverflow(to, t.Amount); overflow {
				return nil, nil, fmt.Errorf("%w: %s has %s, receives %s", types.ErrBalanceOverflow, t.To, to, t.Amount)
			}
			to.Add(to, t.Amount)
		}
		movements = append(movements, &types.LedgerMovement{
			Transfer:    *t,
			FromBalance: from.Clone(),
			ToBalance:   to.Clone(),
		})
	}
	return scratch, movements, nil
}

// Accounts returns every non empty account, sorted.
func (e *Engine) Accounts() []AccountBalance {
	out := make([]AccountBalance, 0, len(e.accounts))
	for acc, b := range e.accounts {
		out = append(out, AccountBalance{Account: acc, Balance: b.Clone()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account.Less(out[j].Account) })
	return out
}

// Total is the sum of every balance held in the asset.
func (e *Engine) Total(asset types.AssetID) *num.Uint {
	total := num.UintZero()
	for acc, b := range e.accounts {
		if acc.Asset == asset {
			total.AddSum(b)
		}
	}
	return total
}

// Restore replaces every balance, used when loading a snapshot.
func (e *Engine) Restore(balances []AccountBalance) {
	e.accounts = make(map[types.Account]*num.Uint, len(balances))
	for _, ab := range balances {
		if ab.Balance == nil || ab.Balance.IsZero() {
			continue
		}
		e.accounts[ab.Account] = ab.Balance.Clone()
	}
}
