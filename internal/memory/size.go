// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

// Package memory implements human friendly byte size parsing and formatting
// for configuration flags.
package memory

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zeebo/errs"
)

// Size implements a byte count with human readable formatting.
type Size int64

// Binary size suffixes.
const (
	B Size = 1 << (10 * iota)
	KiB
	MiB
	GiB
	TiB
)

// Int returns the size in bytes as an int.
func (size Size) Int() int { return int(size) }

// Int64 returns the size in bytes as an int64.
func (size Size) Int64() int64 { return int64(size) }

// String converts the size to a string using the largest fitting suffix.
func (size Size) String() string {
	scaled := func(unit Size, suffix string) string {
		value := float64(size) / float64(unit)
		return strconv.FormatFloat(value, 'f', -1, 64) + " " + suffix
	}
	switch {
	case size >= TiB:
		return scaled(TiB, "TiB")
	case size >= GiB:
		return scaled(GiB, "GiB")
	case size >= MiB:
		return scaled(MiB, "MiB")
	case size >= KiB:
		return scaled(KiB, "KiB")
	default:
		return strconv.FormatInt(int64(size), 10) + " B"
	}
}

// Set parses a string such as "256 KiB", "1.5MiB" or "4096" into a size.
// It implements pflag.Value together with String and Type.
func (size *Size) Set(s string) error {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return errs.New("empty size")
	}

	unit := B
	upper := strings.ToUpper(trimmed)
	for _, match := range []struct {
		suffix string
		unit   Size
	}{
		{"TIB", TiB}, {"GIB", GiB}, {"MIB", MiB}, {"KIB", KiB}, {"B", B},
	} {
		if strings.HasSuffix(upper, match.suffix) {
			unit = match.unit
			trimmed = strings.TrimSpace(trimmed[:len(trimmed)-len(match.suffix)])
			break
		}
	}

	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return errs.New("invalid size %q: %v", s, err)
	}
	if value < 0 {
		return errs.New("negative size %q", s)
	}

	*size = Size(value * float64(unit))
	return nil
}

// Type implements pflag.Value.
func (size Size) Type() string { return "memory.Size" }

// FormatBytes formats a raw byte count for log output.
func FormatBytes(bytes int64) string {
	return fmt.Sprintf("%s (%d B)", Size(bytes).String(), bytes)
}
