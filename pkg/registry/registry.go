// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

// Package registry tracks storage node identity, liveness and epoch scoped
// verified eligibility.
package registry

import (
	"context"
	"sort"

	"github.com/zeebo/errs"
	"go.uber.org/zap"
	monkit "gopkg.in/spacemonkeygo/monkit.v2"

	"atrium.io/vault/pkg/atrium"
	"atrium.io/vault/pkg/fixed"
)

var (
	mon = monkit.Package()

	// Error is the default registry error class.
	Error = errs.Class("registry")
	// ErrValidation is returned for malformed requests.
	ErrValidation = errs.Class("registry validation")
	// ErrNodeExists is returned when registering an already known node id.
	ErrNodeExists = errs.Class("node already registered")
	// ErrNodeNotFound is returned for lookups of unknown node ids.
	ErrNodeNotFound = errs.Class("node not found")
	// ErrCapabilityDegraded reports that no aegis verifier is configured and
	// eligibility is decided by status alone. Logged, never fatal.
	ErrCapabilityDegraded = errs.Class("capability degraded")
)

// Registry holds the node set for one engine instance. It is not safe for
// concurrent use; callers serialize access the same way they do for the
// engine that owns it.
type Registry struct {
	log      *zap.Logger
	verifier Verifier

	epoch uint64
	nodes map[atrium.NodeID]*Node

	// eligible caches the sorted eligibility result. It is reset to nil by
	// every node set, status or epoch mutation before that mutation returns.
	eligible atrium.NodeIDList
}

// New creates a node registry. verifier may be nil.
func New(log *zap.Logger, verifier Verifier) *Registry {
	if verifier == nil {
		log.Warn("no aegis verifier configured, node eligibility degrades to status checks",
			zap.Error(ErrCapabilityDegraded.New("verifier missing")))
	}
	return &Registry{
		log:      log,
		verifier: verifier,
		nodes:    make(map[atrium.NodeID]*Node),
	}
}

// CheckCapabilities reports whether the registry runs with full
// verification capability.
func (registry *Registry) CheckCapabilities() error {
	if registry.verifier == nil {
		return ErrCapabilityDegraded.New("verifier missing")
	}
	return nil
}

// Epoch returns the current epoch.
func (registry *Registry) Epoch() uint64 { return registry.epoch }

// Len returns the number of registered nodes.
func (registry *Registry) Len() int { return len(registry.nodes) }

// Register adds a new node in active state with unknown verification.
func (registry *Registry) Register(ctx context.Context, info NodeInfo) (err error) {
	defer mon.Task()(&ctx)(&err)

	if err := info.Verify(); err != nil {
		return err
	}
	if _, found := registry.nodes[info.ID]; found {
		return ErrNodeExists.New("%s", info.ID)
	}

	registry.nodes[info.ID] = &Node{
		ID:     info.ID,
		Host:   info.Host,
		Port:   info.Port,
		Status: StatusActive,
	}
	registry.eligible = nil

	registry.log.Debug("node registered",
		zap.String("node", info.ID.String()),
		zap.String("address", info.Host),
		zap.Int("port", info.Port))
	return nil
}

// Unregister removes a node entirely.
func (registry *Registry) Unregister(ctx context.Context, id atrium.NodeID) (err error) {
	defer mon.Task()(&ctx)(&err)

	if _, found := registry.nodes[id]; !found {
		return ErrNodeNotFound.New("%s", id)
	}
	delete(registry.nodes, id)
	registry.eligible = nil

	registry.log.Debug("node unregistered", zap.String("node", id.String()))
	return nil
}

// SetStatus changes a node's administrative status.
func (registry *Registry) SetStatus(ctx context.Context, id atrium.NodeID, status Status) (err error) {
	defer mon.Task()(&ctx)(&err)

	if !status.Valid() {
		return ErrValidation.New("invalid status %d", status)
	}
	node, found := registry.nodes[id]
	if !found {
		return ErrNodeNotFound.New("%s", id)
	}
	node.Status = status
	registry.eligible = nil

	registry.log.Debug("node status changed",
		zap.String("node", id.String()),
		zap.Stringer("status", status))
	return nil
}

// AdvanceEpoch moves the registry into the next epoch. Nodes active at the
// boundary earn an uptime bucket, and when a verifier is configured every
// node is re-verified for the new epoch. A verifier failure leaves that node
// unverified rather than aborting the advance.
func (registry *Registry) AdvanceEpoch(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)

	registry.epoch++
	registry.eligible = nil

	var snapshot []NodeInfo
	if registry.verifier != nil {
		snapshot = registry.infoSnapshot()
	}

	for _, id := range registry.sortedIDs() {
		node := registry.nodes[id]
		if node.Status == StatusActive {
			node.UptimeBucket++
		}
		if registry.verifier == nil {
			continue
		}

		verdict, verifyErr := registry.verifier.Verify(ctx, VerifyRequest{
			NodeID:   id,
			Epoch:    registry.epoch,
			Registry: snapshot,
			Telemetry: Telemetry{
				Status:         node.Status,
				BytesStored:    node.BytesStored,
				UptimeBucket:   node.UptimeBucket,
				ProofsVerified: node.ProofsVerified,
			},
		})
		if verifyErr != nil {
			registry.log.Warn("aegis verification failed",
				zap.String("node", id.String()),
				zap.Uint64("epoch", registry.epoch),
				zap.Error(verifyErr))
			verdict = Verdict{}
		}
		node.AegisVerified = verdict.Valid
		node.AegisEpoch = registry.epoch
	}

	registry.log.Debug("epoch advanced", zap.Uint64("epoch", registry.epoch))
	return nil
}

// EligibleNodes returns the sorted ids of nodes admissible for replica
// placement: active, and verified for the current epoch whenever a verifier
// is configured. The result is independent of registration order.
func (registry *Registry) EligibleNodes(ctx context.Context) (_ atrium.NodeIDList, err error) {
	defer mon.Task()(&ctx)(&err)

	if registry.eligible == nil {
		eligible := make(atrium.NodeIDList, 0, len(registry.nodes))
		for id, node := range registry.nodes {
			if node.Status != StatusActive {
				continue
			}
			if registry.verifier != nil && !node.VerifiedIn(registry.epoch) {
				continue
			}
			eligible = append(eligible, id)
		}
		sort.Sort(eligible)
		registry.eligible = eligible
	}

	mon.IntVal("registry_eligible_count").Observe(int64(len(registry.eligible)))
	return registry.eligible.Copy(), nil
}

// RecordShardStored credits a node with one stored shard of the given size.
// Metric updates do not touch eligibility, so the cache stays valid.
func (registry *Registry) RecordShardStored(ctx context.Context, id atrium.NodeID, size int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	node, found := registry.nodes[id]
	if !found {
		return ErrNodeNotFound.New("%s", id)
	}

	total, err := node.BytesStored.Add(fixed.FromInt(uint64(size)))
	if err != nil {
		return Error.Wrap(err)
	}
	node.BytesStored = total
	node.ProofsVerified++
	return nil
}

// Node returns a copy of the record for id.
func (registry *Registry) Node(ctx context.Context, id atrium.NodeID) (_ Node, err error) {
	defer mon.Task()(&ctx)(&err)

	node, found := registry.nodes[id]
	if !found {
		return Node{}, ErrNodeNotFound.New("%s", id)
	}
	return *node, nil
}

// Nodes returns copies of all records sorted by node id.
func (registry *Registry) Nodes(ctx context.Context) (_ []Node, err error) {
	defer mon.Task()(&ctx)(&err)

	nodes := make([]Node, 0, len(registry.nodes))
	for _, id := range registry.sortedIDs() {
		nodes = append(nodes, *registry.nodes[id])
	}
	return nodes, nil
}

func (registry *Registry) sortedIDs() atrium.NodeIDList {
	ids := make(atrium.NodeIDList, 0, len(registry.nodes))
	for id := range registry.nodes {
		ids = append(ids, id)
	}
	sort.Sort(ids)
	return ids
}

func (registry *Registry) infoSnapshot() []NodeInfo {
	infos := make([]NodeInfo, 0, len(registry.nodes))
	for _, id := range registry.sortedIDs() {
		node := registry.nodes[id]
		infos = append(infos, NodeInfo{ID: node.ID, Host: node.Host, Port: node.Port})
	}
	return infos
}
