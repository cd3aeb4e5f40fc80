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

package types

import (
	"fmt"

	"code.vegaprotocol.io/betting/libs/num"
)

type AccountType uint8

const (
	AccountTypeUnspecified AccountType = iota
	// AccountTypeGeneral is a bettor's spendable balance in an asset.
	AccountTypeGeneral
	// AccountTypeEscrow holds the collateral and fees locked on a market.
	AccountTypeEscrow
	// AccountTypeFeePool collects bet fees and rake for an asset.
	AccountTypeFeePool
	// AccountTypeExternal is the source and sink of deposits and withdrawals.
	AccountTypeExternal
)

func (t AccountType) String() string {
	switch t {
	case AccountTypeGeneral:
		return "general"
	case AccountTypeEscrow:
		return "escrow"
	case AccountTypeFeePool:
		return "fee_pool"
	case AccountTypeExternal:
		return "external"
	default:
		return "unspecified"
	}
}

func (t AccountType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *AccountType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "general":
		*t = AccountTypeGeneral
	case "escrow":
		*t = AccountTypeEscrow
	case "fee_pool":
		*t = AccountTypeFeePool
	case "external":
		*t = AccountTypeExternal
	case "unspecified":
		*t = AccountTypeUnspecified
	default:
		return fmt.Errorf("invalid account type %q", string(b))
	}
	return nil
}

// Account identifies a balance. Only the fields relevant to the type are set.
type Account struct {
	Type   AccountType `json:"type"`
	Asset  AssetID     `json:"asset"`
	Owner  PartyID     `json:"owner,omitempty"`
	Market MarketID    `json:"market,omitempty"`
}

func GeneralAccount(party PartyID, asset AssetID) Account {
	return Account{Type: AccountTypeGeneral, Asset: asset, Owner: party}
}

func EscrowAccount(market MarketID, asset AssetID) Account {
	return Account{Type: AccountTypeEscrow, Asset: asset, Market: market}
}

func FeePoolAccount(asset AssetID) Account {
	return Account{Type: AccountTypeFeePool, Asset: asset}
}

func ExternalAccount(asset AssetID) Account {
	return Account{Type: AccountTypeExternal, Asset: asset}
}

func (a Account) String() string {
	switch a.Type {
	case AccountTypeGeneral:
		return fmt.Sprintf("%s/%s/%s", a.Type, a.Owner, a.Asset)
	case AccountTypeEscrow:
		return fmt.Sprintf("%s/%s/%s", a.Type, a.Market, a.Asset)
	default:
		return fmt.Sprintf("%s/%s", a.Type, a.Asset)
	}
}

// Less orders accounts for deterministic iteration.
func (a Account) Less(o Account) bool {
	if a.Type != o.Type {
		return a.Type < o.Type
	}
	if a.Asset != o.Asset {
		return a.Asset < o.Asset
	}
	if a.Owner != o.Owner {
		return a.Owner < o.Owner
	}
	return a.Market < o.Market
}

type TransferType uint8

const (
	TransferTypeUnspecified TransferType = iota
	TransferTypeDeposit
	TransferTypeWithdraw
	// TransferTypeBetLock moves collateral and fee into escrow at placement.
	TransferTypeBetLock
	// TransferTypeBetRelease returns released or netted collateral.
	TransferTypeBetRelease
	TransferTypeFeeCollect
	TransferTypePayout
	TransferTypeRake
)

func (t TransferType) String() string {
	switch t {
	case TransferTypeDeposit:
		return "deposit"
	case TransferTypeWithdraw:
		return "withdraw"
	case TransferTypeBetLock:
		return "bet_lock"
	case TransferTypeBetRelease:
		return "bet_release"
	case TransferTypeFeeCollect:
		return "fee_collect"
	case TransferTypePayout:
		return "payout"
	case TransferTypeRake:
		return "rake"
	default:
		return "unspecified"
	}
}

func (t TransferType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Transfer moves an amount between two accounts of the same asset.
type Transfer struct {
	Type   TransferType `json:"type"`
	From   Account      `json:"from"`
	To     Account      `json:"to"`
	Amount *num.Uint    `json:"amount"`
}

func (t *Transfer) String() string {
	return fmt.Sprintf("%s %s -> %s (%s)", t.Type, t.From, t.To, t.Amount)
}

// LedgerMovement is a transfer once applied, with the resulting balances.
type LedgerMovement struct {
	Transfer
	FromBalance *num.Uint `json:"from_balance"`
	ToBalance   *num.Uint `json:"to_balance"`
}
