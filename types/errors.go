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
	"errors"
	"fmt"
)

// Validation errors. An operation failing with one of these is rejected
// without any state change.
var (
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrOddsOutOfBounds      = errors.New("odds out of bounds")
	ErrInvalidStake         = errors.New("invalid stake")
	ErrInvalidSide          = errors.New("invalid side")
	ErrMarketNotOpen        = errors.New("market is not open")
	ErrMarketNotFound       = errors.New("market not found")
	ErrGroupNotFound        = errors.New("market group not found")
	ErrRulesNotFound        = errors.New("rules not found")
	ErrAssetMismatch        = errors.New("asset does not match the market group asset")
	ErrInvalidResolution    = errors.New("resolutions must have exactly one win or be all cancel")
	ErrMissingResolution    = errors.New("missing resolution for a market of the group")
	ErrUnknownMarket        = errors.New("resolution for a market outside the group")
	ErrBetNotFound          = errors.New("bet not found")
	ErrNotBetOwner          = errors.New("bet is owned by another party")
	ErrFeeExceedsMax        = errors.New("bet fee exceeds max fee")
	ErrGroupAlreadyResolved = errors.New("market group already resolved")
	ErrMarketFinal          = errors.New("market is already resolved or canceled")
	ErrInvalidParty         = errors.New("invalid party")
	ErrInvalidAsset         = errors.New("invalid asset")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrBalanceOverflow      = errors.New("balance would overflow")
)

// RejectReason is the code reported to the submitter of a rejected operation.
type RejectReason uint16

const (
	RejectReasonUnspecified RejectReason = iota
	RejectReasonInsufficientBalance
	RejectReasonOddsOutOfBounds
	RejectReasonInvalidStake
	RejectReasonInvalidSide
	RejectReasonMarketNotOpen
	RejectReasonMarketNotFound
	RejectReasonGroupNotFound
	RejectReasonRulesNotFound
	RejectReasonAssetMismatch
	RejectReasonInvalidResolution
	RejectReasonMissingResolution
	RejectReasonUnknownMarket
	RejectReasonBetNotFound
	RejectReasonNotBetOwner
	RejectReasonFeeExceedsMax
	RejectReasonGroupAlreadyResolved
	RejectReasonMarketFinal
	RejectReasonInvalidParty
	RejectReasonInvalidAsset
	RejectReasonInvalidAmount
	RejectReasonInvalidCommand
	RejectReasonBalanceOverflow
)

var reasons = []struct {
	err    error
	reason RejectReason
	name   string
}{
	{ErrInsufficientBalance, RejectReasonInsufficientBalance, "insufficient_balance"},
	{ErrOddsOutOfBounds, RejectReasonOddsOutOfBounds, "odds_out_of_bounds"},
	{ErrInvalidStake, RejectReasonInvalidStake, "invalid_stake"},
	{ErrInvalidSide, RejectReasonInvalidSide, "invalid_side"},
	{ErrMarketNotOpen, RejectReasonMarketNotOpen, "market_not_open"},
	{ErrMarketNotFound, RejectReasonMarketNotFound, "market_not_found"},
	{ErrGroupNotFound, RejectReasonGroupNotFound, "group_not_found"},
	{ErrRulesNotFound, RejectReasonRulesNotFound, "rules_not_found"},
	{ErrAssetMismatch, RejectReasonAssetMismatch, "asset_mismatch"},
	{ErrInvalidResolution, RejectReasonInvalidResolution, "invalid_resolution"},
	{ErrMissingResolution, RejectReasonMissingResolution, "missing_resolution"},
	{ErrUnknownMarket, RejectReasonUnknownMarket, "unknown_market"},
	{ErrBetNotFound, RejectReasonBetNotFound, "bet_not_found"},
	{ErrNotBetOwner, RejectReasonNotBetOwner, "not_bet_owner"},
	{ErrFeeExceedsMax, RejectReasonFeeExceedsMax, "fee_exceeds_max"},
	{ErrGroupAlreadyResolved, RejectReasonGroupAlreadyResolved, "group_already_resolved"},
	{ErrMarketFinal, RejectReasonMarketFinal, "market_final"},
	{ErrInvalidParty, RejectReasonInvalidParty, "invalid_party"},
	{ErrInvalidAsset, RejectReasonInvalidAsset, "invalid_asset"},
	{ErrInvalidAmount, RejectReasonInvalidAmount, "invalid_amount"},
	{ErrBalanceOverflow, RejectReasonBalanceOverflow, "balance_overflow"},
}

// ReasonFor maps a validation error to its reject reason. Errors that wrap
// none of the known sentinels are reported as invalid commands.
func ReasonFor(err error) RejectReason {
	if err == nil {
		return RejectReasonUnspecified
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return RejectReasonInvalidCommand
}

func (r RejectReason) String() string {
	if r == RejectReasonInvalidCommand {
		return "invalid_command"
	}
	for _, v := range reasons {
		if v.reason == r {
			return v.name
		}
	}
	return "unspecified"
}

// InvariantViolation is the panic value raised when the engine detects a
// state it can only reach through a bug. It is never returned as an error.
type InvariantViolation struct {
	Op  string
	Msg string
}

func (v *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", v.Op, v.Msg)
}

// PanicInvariant raises an InvariantViolation.
func PanicInvariant(op, format string, args ...interface{}) {
	panic(&InvariantViolation{Op: op, Msg: fmt.Sprintf(format, args...)})
}

// IsInvariantViolation reports whether a recovered value is an invariant
// violation.
func IsInvariantViolation(r interface{}) bool {
	_, ok := r.(*InvariantViolation)
	return ok
}
