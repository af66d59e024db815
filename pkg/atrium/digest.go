// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package atrium

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/zeebo/errs"
)

// ErrDigest is used when a digest cannot be parsed.
var ErrDigest = errs.Class("digest error")

// DigestSize is the length of a Digest in bytes.
const DigestSize = sha256.Size

// Digest is a SHA-256 digest of some canonical byte sequence. It identifies
// content commitments, Merkle roots and events.
type Digest [DigestSize]byte

// SumDigest hashes the concatenation of the given byte sequences.
func SumDigest(data ...[]byte) Digest {
	hash := sha256.New()
	for _, part := range data {
		_, _ = hash.Write(part)
	}
	var digest Digest
	copy(digest[:], hash.Sum(nil))
	return digest
}

// DigestFromString parses a hex encoded digest.
func DigestFromString(s string) (Digest, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, ErrDigest.Wrap(err)
	}
	return DigestFromBytes(raw)
}

// DigestFromBytes converts a raw byte slice into a Digest.
func DigestFromBytes(raw []byte) (Digest, error) {
	if len(raw) != DigestSize {
		return Digest{}, ErrDigest.New("invalid length %d", len(raw))
	}
	var digest Digest
	copy(digest[:], raw)
	return digest, nil
}

// Bytes returns the digest as a raw byte slice.
func (digest Digest) Bytes() []byte { return digest[:] }

// String returns the digest in hex encoding.
func (digest Digest) String() string { return hex.EncodeToString(digest[:]) }

// IsZero reports whether the digest is the zero value.
func (digest Digest) IsZero() bool { return digest == Digest{} }

// MarshalText implements encoding.TextMarshaler.
func (digest Digest) MarshalText() ([]byte, error) {
	return []byte(digest.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (digest *Digest) UnmarshalText(text []byte) error {
	parsed, err := DigestFromString(string(text))
	if err != nil {
		return err
	}
	*digest = parsed
	return nil
}
