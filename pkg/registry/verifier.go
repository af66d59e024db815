// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package registry

import (
	"context"

	"atrium.io/vault/pkg/atrium"
)

// Verifier is the external aegis oracle deciding whether a node's storage
// contribution is genuine for an epoch. A nil Verifier is a valid
// configuration under which eligibility degrades to status checks alone.
type Verifier interface {
	Verify(ctx context.Context, req VerifyRequest) (Verdict, error)
}

// VerifyRequest carries everything the oracle may inspect for one node.
type VerifyRequest struct {
	NodeID atrium.NodeID
	Epoch  uint64

	// Registry is a snapshot of all registered node identities.
	Registry []NodeInfo
	// Telemetry is the snapshot of the node under verification.
	Telemetry Telemetry
}

// Verdict is the oracle's answer.
type Verdict struct {
	Valid bool
}
