// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package registry

import (
	"atrium.io/vault/pkg/atrium"
	"atrium.io/vault/pkg/fixed"
)

// Status is the administrative state of a storage node.
type Status int8

// Possible node statuses.
const (
	StatusActive Status = iota
	StatusInactive
	StatusRevoked
)

// String returns the lowercase name of the status.
func (status Status) String() string {
	switch status {
	case StatusActive:
		return "active"
	case StatusInactive:
		return "inactive"
	case StatusRevoked:
		return "revoked"
	default:
		return "unknown"
	}
}

// Valid reports whether the status is one of the defined states.
func (status Status) Valid() bool {
	switch status {
	case StatusActive, StatusInactive, StatusRevoked:
		return true
	}
	return false
}

// ParseStatus converts a status name into a Status.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "active":
		return StatusActive, nil
	case "inactive":
		return StatusInactive, nil
	case "revoked":
		return StatusRevoked, nil
	}
	return StatusActive, ErrValidation.New("unknown status %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (status Status) MarshalText() ([]byte, error) {
	return []byte(status.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (status *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*status = parsed
	return nil
}

// NodeInfo is the caller supplied identity of a node being registered.
type NodeInfo struct {
	ID   atrium.NodeID
	Host string
	Port int
}

// Verify checks that the node identity is complete.
func (info NodeInfo) Verify() error {
	switch {
	case info.ID == "":
		return ErrValidation.New("node id missing")
	case info.Host == "":
		return ErrValidation.New("host missing")
	case info.Port <= 0 || info.Port > 65535:
		return ErrValidation.New("invalid port %d", info.Port)
	}
	return nil
}

// Node is the registry's record of a single storage node.
type Node struct {
	ID   atrium.NodeID
	Host string
	Port int

	Status Status

	BytesStored    fixed.Value
	UptimeBucket   int64
	ProofsVerified int64

	AegisVerified bool
	AegisEpoch    uint64
}

// VerifiedIn reports whether the node's aegis verification is trusted for
// the given epoch. Verification from any other epoch is stale.
func (node Node) VerifiedIn(epoch uint64) bool {
	return node.AegisVerified && node.AegisEpoch == epoch
}

// Telemetry is the observable state of a node handed to the aegis verifier.
type Telemetry struct {
	Status         Status
	BytesStored    fixed.Value
	UptimeBucket   int64
	ProofsVerified int64
}
