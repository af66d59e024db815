// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

// Package testrand implements generating random base types for testing.
package testrand

import (
	"encoding/hex"
	"io"
	"math/rand"
	"strconv"

	"atrium.io/vault/internal/memory"
	"atrium.io/vault/pkg/atrium"
)

// Intn returns, as an int, a non-negative pseudo-random number in [0,n)
// from the default source. It panics if n <= 0.
func Intn(n int) int {
	return rand.Intn(n)
}

// Read reads pseudo-random data into data.
func Read(data []byte) {
	const newSourceThreshold = 64
	if len(data) < newSourceThreshold {
		_, _ = rand.Read(data)
		return
	}

	src := rand.NewSource(rand.Int63())
	r := rand.New(src)
	_, _ = r.Read(data)
}

// Bytes generates size amount of random data.
func Bytes(size memory.Size) []byte {
	data := make([]byte, size.Int())
	Read(data)
	return data
}

// BytesN generates size amount of random data.
func BytesN(size int) []byte {
	return Bytes(memory.Size(size))
}

// Reader creates a new random data reader.
func Reader() io.Reader {
	return rand.New(rand.NewSource(rand.Int63()))
}

// NodeID creates a random node id.
func NodeID() atrium.NodeID {
	var raw [4]byte
	Read(raw[:])
	return atrium.NodeID("node-" + hex.EncodeToString(raw[:]))
}

// ObjectID creates a random object id.
func ObjectID() string {
	var raw [4]byte
	Read(raw[:])
	return "object-" + hex.EncodeToString(raw[:])
}

// Metadata creates metadata with n random entries.
func Metadata(n int) atrium.Metadata {
	meta := make(atrium.Metadata, n)
	for i := 0; i < n; i++ {
		var raw [4]byte
		Read(raw[:])
		meta["key-"+strconv.Itoa(i)] = hex.EncodeToString(raw[:])
	}
	return meta
}
