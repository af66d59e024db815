// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

// Package accounting implements size based storage fees, per node rewards
// and the fee/reward conservation check.
package accounting

import (
	"context"

	"github.com/zeebo/errs"
	"go.uber.org/zap"
	monkit "gopkg.in/spacemonkeygo/monkit.v2"

	"atrium.io/vault/pkg/atrium"
	"atrium.io/vault/pkg/fixed"
	"atrium.io/vault/pkg/registry"
)

var (
	mon = monkit.Package()

	// Error is the default accounting error class.
	Error = errs.Class("accounting")
	// ErrConservation reports rewards exceeding fees. The check itself never
	// halts; callers hand the violation to a halt authority.
	ErrConservation = errs.Class("conservation violation")
)

// Metadata complexity saturates at this many entries.
const maxComplexity = 99

// Accountant tracks the economic totals of one engine instance. Totals are
// per instance state, never process wide.
type Accountant struct {
	log   *zap.Logger
	arith Arithmetic

	baseCostPerKB fixed.Value
	scalingFactor fixed.Value

	feesCollected      fixed.Value
	rewardsDistributed fixed.Value
}

// New creates an accountant charging baseCostPerKB per started KiB and
// scaling rewards down by scalingFactor.
func New(log *zap.Logger, arith Arithmetic, baseCostPerKB, scalingFactor fixed.Value) *Accountant {
	return &Accountant{
		log:           log,
		arith:         arith,
		baseCostPerKB: baseCostPerKB,
		scalingFactor: scalingFactor,
	}
}

// Cost computes the storage fee for a write: base cost per started KiB of
// content, scaled up by one percent per metadata entry, saturating at 99.
func (accountant *Accountant) Cost(ctx context.Context, size int64, meta atrium.Metadata) (_ fixed.Value, err error) {
	defer mon.Task()(&ctx)(&err)

	kb := (size + 1023) / 1024
	base, err := accountant.arith.Mul(ctx, accountant.baseCostPerKB, fixed.FromInt(uint64(kb)))
	if err != nil {
		return fixed.Value{}, Error.Wrap(err)
	}

	complexity := len(meta)
	if complexity > maxComplexity {
		complexity = maxComplexity
	}
	multiplier, err := accountant.arith.Div(ctx, fixed.FromInt(uint64(100+complexity)), fixed.FromInt(100))
	if err != nil {
		return fixed.Value{}, Error.Wrap(err)
	}

	fee, err := accountant.arith.Mul(ctx, base, multiplier)
	if err != nil {
		return fixed.Value{}, Error.Wrap(err)
	}
	return fee, nil
}

// AccrueFee adds a collected fee to the running total.
func (accountant *Accountant) AccrueFee(ctx context.Context, fee fixed.Value) (err error) {
	defer mon.Task()(&ctx)(&err)

	total, err := accountant.arith.Add(ctx, accountant.feesCollected, fee)
	if err != nil {
		return Error.Wrap(err)
	}
	accountant.feesCollected = total
	mon.Meter("fees_accrued").Mark(1)
	return nil
}

// Reward computes the payout for a node in the given epoch. Nodes whose
// aegis verification does not match the epoch earn nothing.
func (accountant *Accountant) Reward(ctx context.Context, node registry.Node, epoch uint64) (_ fixed.Value, err error) {
	defer mon.Task()(&ctx)(&err)

	if !node.VerifiedIn(epoch) {
		return fixed.Zero(), nil
	}

	contribution, err := accountant.arith.Mul(ctx, node.BytesStored, fixed.FromInt(uint64(node.UptimeBucket)))
	if err != nil {
		return fixed.Value{}, Error.Wrap(err)
	}
	contribution, err = accountant.arith.Mul(ctx, contribution, fixed.FromInt(uint64(node.ProofsVerified)))
	if err != nil {
		return fixed.Value{}, Error.Wrap(err)
	}
	reward, err := accountant.arith.Div(ctx, contribution, accountant.scalingFactor)
	if err != nil {
		return fixed.Value{}, Error.Wrap(err)
	}
	return reward, nil
}

// AccrueReward adds a distributed reward to the running total. The
// conservation invariant is observed by Summary, not enforced here.
func (accountant *Accountant) AccrueReward(ctx context.Context, reward fixed.Value) (err error) {
	defer mon.Task()(&ctx)(&err)

	total, err := accountant.arith.Add(ctx, accountant.rewardsDistributed, reward)
	if err != nil {
		return Error.Wrap(err)
	}
	accountant.rewardsDistributed = total
	mon.Meter("rewards_accrued").Mark(1)
	return nil
}

// Summary is one observation of the economic totals. Difference carries the
// absolute gap between fees and rewards; Conserved tells its sign.
type Summary struct {
	Fees       fixed.Value
	Rewards    fixed.Value
	Difference fixed.Value
	Conserved  bool
}

// Summary reports the current totals and whether the conservation invariant
// holds. It is a pure observation and never triggers a halt by itself.
func (accountant *Accountant) Summary() Summary {
	fees := accountant.feesCollected
	rewards := accountant.rewardsDistributed

	conserved := rewards.Cmp(fees) <= 0
	var difference fixed.Value
	var err error
	if conserved {
		difference, err = fees.Sub(rewards)
	} else {
		difference, err = rewards.Sub(fees)
	}
	if err != nil {
		// cannot happen, the larger operand is always on the left
		accountant.log.Error("summary difference", zap.Error(err))
	}

	return Summary{
		Fees:       fees,
		Rewards:    rewards,
		Difference: difference,
		Conserved:  conserved,
	}
}
