// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

// Package vault implements the storage engine of the platform: content
// addressed sharding, deterministic replica placement, proof commitments,
// economic accounting and the audit journal, behind one facade.
package vault

import (
	"github.com/zeebo/errs"
	"go.uber.org/zap"
	monkit "gopkg.in/spacemonkeygo/monkit.v2"

	"atrium.io/vault/internal/memory"
	"atrium.io/vault/pkg/accounting"
	"atrium.io/vault/pkg/atrium"
	"atrium.io/vault/pkg/fixed"
	"atrium.io/vault/pkg/journal"
	"atrium.io/vault/pkg/proof"
	"atrium.io/vault/pkg/registry"
)

var (
	mon = monkit.Package()

	// Error is the default vault error class.
	Error = errs.Class("vault")
	// ErrNotFound is returned when an object or one of its shards is
	// missing.
	ErrNotFound = errs.Class("not found")
)

// Config holds the engine parameters.
type Config struct {
	BlockSize           memory.Size `help:"maximum content bytes per shard" default:"256 KiB"`
	LeafSize            memory.Size `help:"leaf granularity of shard commitments" default:"4 KiB"`
	ReplicationFactor   int         `help:"distinct nodes to assign per shard" default:"3"`
	SchemaVersion       string      `help:"schema version mixed into content commitments" default:"1"`
	BaseCostPerKB       string      `help:"storage fee in ATR per started KiB" default:"0.001"`
	RewardScalingFactor uint64      `help:"divisor applied to node reward contributions" default:"1000000000"`
}

// Verify checks that the configuration is usable.
func (config Config) Verify() error {
	switch {
	case config.BlockSize <= 0:
		return Error.New("block size must be positive, got %d", config.BlockSize)
	case config.ReplicationFactor <= 0:
		return Error.New("replication factor must be positive, got %d", config.ReplicationFactor)
	case config.SchemaVersion == "":
		return Error.New("schema version missing")
	case config.RewardScalingFactor == 0:
		return Error.New("reward scaling factor must be positive")
	}
	return nil
}

// LogicalObject is the immutable record of one stored object version.
type LogicalObject struct {
	Ref        atrium.ObjectRef
	HashCommit atrium.Digest
	Metadata   atrium.Metadata
	ShardIDs   atrium.ShardIDList
	Tick       int64
	Epoch      uint64
	Size       int64
	Cost       fixed.Value
}

// Shard holds one content chunk, its replica assignment and commitment.
type Shard struct {
	ID         atrium.ShardID
	Data       []byte
	Replicas   atrium.NodeIDList
	Commitment proof.Commitment
}

type proofTally struct {
	generated int64
	failed    int64
}

// Engine is a single instance of the storage core. Every public operation
// is a synchronous transition over private in-memory maps; concurrent
// callers must serialize access to one instance.
type Engine struct {
	log    *zap.Logger
	config Config

	registry   *registry.Registry
	accountant *accounting.Accountant
	prover     *proof.Engine
	journal    *journal.Log

	objects map[atrium.ObjectRef]*LogicalObject
	shards  map[atrium.ShardID]*Shard

	tallies        map[atrium.NodeID]*proofTally
	proofGenerated int64
	proofFailed    int64

	lastTick int64
}

// New creates an engine. verifier may be nil, degrading node eligibility to
// status checks.
func New(log *zap.Logger, config Config, verifier registry.Verifier) (*Engine, error) {
	if err := config.Verify(); err != nil {
		return nil, err
	}
	baseCost, err := fixed.FromString(config.BaseCostPerKB)
	if err != nil {
		return nil, Error.New("invalid base cost %q: %v", config.BaseCostPerKB, err)
	}

	arith := accounting.NewTracedArithmetic(log.Named("arithmetic"))
	return &Engine{
		log:    log,
		config: config,

		registry: registry.New(log.Named("registry"), verifier),
		accountant: accounting.New(log.Named("accounting"), arith,
			baseCost, fixed.FromInt(config.RewardScalingFactor)),
		prover:  proof.NewEngine(config.LeafSize),
		journal: journal.NewLog(),

		objects: make(map[atrium.ObjectRef]*LogicalObject),
		shards:  make(map[atrium.ShardID]*Shard),
		tallies: make(map[atrium.NodeID]*proofTally),
	}, nil
}

func (engine *Engine) tallyFor(id atrium.NodeID) *proofTally {
	if _, found := engine.tallies[id]; !found {
		engine.tallies[id] = &proofTally{}
	}
	return engine.tallies[id]
}
