// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package accounting

import (
	"context"

	"go.uber.org/zap"

	"atrium.io/vault/pkg/fixed"
)

// Arithmetic is the provider performing all economic math. It carries the
// same numeric contract as fixed.Value and writes one audit entry per call,
// so the operation trace of a run can be replayed and compared.
type Arithmetic interface {
	Add(ctx context.Context, a, b fixed.Value) (fixed.Value, error)
	Sub(ctx context.Context, a, b fixed.Value) (fixed.Value, error)
	Mul(ctx context.Context, a, b fixed.Value) (fixed.Value, error)
	Div(ctx context.Context, a, b fixed.Value) (fixed.Value, error)
}

type tracedArithmetic struct {
	log *zap.Logger
}

// NewTracedArithmetic returns the default Arithmetic backed by fixed.Value
// operations, logging every call with operands and outcome.
func NewTracedArithmetic(log *zap.Logger) Arithmetic {
	return &tracedArithmetic{log: log}
}

func (arith *tracedArithmetic) trace(op string, a, b, result fixed.Value, err error) {
	if err != nil {
		arith.log.Debug("arithmetic",
			zap.String("op", op),
			zap.Stringer("a", a),
			zap.Stringer("b", b),
			zap.Error(err))
		return
	}
	arith.log.Debug("arithmetic",
		zap.String("op", op),
		zap.Stringer("a", a),
		zap.Stringer("b", b),
		zap.Stringer("result", result))
}

func (arith *tracedArithmetic) Add(ctx context.Context, a, b fixed.Value) (fixed.Value, error) {
	result, err := a.Add(b)
	arith.trace("add", a, b, result, err)
	return result, err
}

func (arith *tracedArithmetic) Sub(ctx context.Context, a, b fixed.Value) (fixed.Value, error) {
	result, err := a.Sub(b)
	arith.trace("sub", a, b, result, err)
	return result, err
}

func (arith *tracedArithmetic) Mul(ctx context.Context, a, b fixed.Value) (fixed.Value, error) {
	result, err := a.Mul(b)
	arith.trace("mul", a, b, result, err)
	return result, err
}

func (arith *tracedArithmetic) Div(ctx context.Context, a, b fixed.Value) (fixed.Value, error) {
	result, err := a.Div(b)
	arith.trace("div", a, b, result, err)
	return result, err
}
