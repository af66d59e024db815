// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package accounting

import (
	"context"

	"go.uber.org/zap"
)

// Halt is the authority that terminates the process on an invariant
// violation. The accounting core only detects violations; pulling the
// trigger stays a caller decision.
type Halt interface {
	Trigger(ctx context.Context, reason string, evidence ...zap.Field)
}

type fatalHalt struct {
	log *zap.Logger
}

// NewFatalHalt returns a Halt that logs the evidence and terminates.
func NewFatalHalt(log *zap.Logger) Halt {
	return &fatalHalt{log: log}
}

func (halt *fatalHalt) Trigger(ctx context.Context, reason string, evidence ...zap.Field) {
	halt.log.Fatal(reason, evidence...)
}
