// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package accounting_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"atrium.io/vault/internal/testcontext"
	"atrium.io/vault/internal/testrand"
	"atrium.io/vault/pkg/accounting"
	"atrium.io/vault/pkg/atrium"
	"atrium.io/vault/pkg/fixed"
	"atrium.io/vault/pkg/registry"
)

func newAccountant(t *testing.T) *accounting.Accountant {
	log := zaptest.NewLogger(t)
	return accounting.New(log,
		accounting.NewTracedArithmetic(log.Named("arithmetic")),
		fixed.MustFromString("0.001"),
		fixed.FromInt(1000000000))
}

func TestCost(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	accountant := newAccountant(t)

	for _, tt := range []struct {
		size int64
		meta atrium.Metadata
		fee  string
	}{
		{1000, atrium.Metadata{"author": "u1"}, "0.00101"},
		{2048, nil, "0.002"},
		{300000, atrium.Metadata{"a": "1", "b": "2"}, "0.29886"},
		{0, nil, "0.0"},
	} {
		fee, err := accountant.Cost(ctx, tt.size, tt.meta)
		require.NoError(t, err)
		require.Equal(t, tt.fee, fee.String(), "size=%d", tt.size)
	}

	// complexity saturates at 99 entries
	fee, err := accountant.Cost(ctx, 1, testrand.Metadata(150))
	require.NoError(t, err)
	require.Equal(t, "0.00199", fee.String())
}

func TestReward(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	accountant := newAccountant(t)

	node := registry.Node{
		ID:             "n1",
		Status:         registry.StatusActive,
		BytesStored:    fixed.FromInt(1000),
		UptimeBucket:   2,
		ProofsVerified: 3,
		AegisVerified:  true,
		AegisEpoch:     5,
	}

	reward, err := accountant.Reward(ctx, node, 5)
	require.NoError(t, err)
	require.Equal(t, "0.000006", reward.String())

	// stale verification earns nothing
	reward, err = accountant.Reward(ctx, node, 4)
	require.NoError(t, err)
	require.True(t, reward.IsZero())

	node.AegisVerified = false
	reward, err = accountant.Reward(ctx, node, 5)
	require.NoError(t, err)
	require.True(t, reward.IsZero())
}

func TestSummaryConservation(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	accountant := newAccountant(t)

	summary := accountant.Summary()
	require.True(t, summary.Conserved)
	require.True(t, summary.Difference.IsZero())

	require.NoError(t, accountant.AccrueFee(ctx, fixed.FromInt(2)))
	require.NoError(t, accountant.AccrueReward(ctx, fixed.MustFromString("0.5")))

	summary = accountant.Summary()
	require.True(t, summary.Conserved)
	require.Equal(t, "2.0", summary.Fees.String())
	require.Equal(t, "0.5", summary.Rewards.String())
	require.Equal(t, "1.5", summary.Difference.String())

	// inflating rewards beyond fees flips the invariant
	require.NoError(t, accountant.AccrueReward(ctx, fixed.FromInt(2)))

	summary = accountant.Summary()
	require.False(t, summary.Conserved)
	require.Equal(t, "0.5", summary.Difference.String())

	violation := accounting.ErrConservation.New(
		"rewards %s exceed fees %s", summary.Rewards, summary.Fees)
	require.True(t, accounting.ErrConservation.Has(violation))
}

func TestTracedArithmetic(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	core, logs := observer.New(zap.DebugLevel)
	arith := accounting.NewTracedArithmetic(zap.New(core))

	sum, err := arith.Add(ctx, fixed.FromInt(1), fixed.FromInt(2))
	require.NoError(t, err)
	require.Equal(t, "3.0", sum.String())

	_, err = arith.Sub(ctx, fixed.FromInt(1), fixed.FromInt(2))
	require.True(t, fixed.ErrUnderflow.Has(err))

	product, err := arith.Mul(ctx, fixed.FromInt(6), fixed.MustFromString("0.5"))
	require.NoError(t, err)
	require.Equal(t, "3.0", product.String())

	quotient, err := arith.Div(ctx, fixed.FromInt(1), fixed.FromInt(3))
	require.NoError(t, err)
	require.Equal(t, "0.333333333333333333", quotient.String())

	// one audit entry per call, operands and outcome included
	entries := logs.All()
	require.Len(t, entries, 4)

	first := entries[0].ContextMap()
	require.Equal(t, "add", first["op"])
	require.Equal(t, "1.0", first["a"])
	require.Equal(t, "2.0", first["b"])
	require.Equal(t, "3.0", first["result"])

	failed := entries[1].ContextMap()
	require.Equal(t, "sub", failed["op"])
	require.Contains(t, failed, "error")
}
