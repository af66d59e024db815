// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package cfgstruct

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"atrium.io/vault/internal/memory"
)

func TestBind(t *testing.T) {
	var config struct {
		Name     string        `help:"instance name" default:"vault"`
		Workers  int           `default:"4"`
		Seed     int64         `default:"42"`
		Scaling  uint64        `default:"1000000000"`
		Ratio    float64       `default:"0.5"`
		Verbose  bool          `default:"true"`
		Interval time.Duration `default:"5s"`
		Block    memory.Size   `default:"256 KiB"`
		Empty    string
		Nested   struct {
			BaseCostPerKB string `default:"0.001"`
		}
	}

	flags := pflag.NewFlagSet("test", pflag.PanicOnError)
	Bind(flags, &config)

	require.Equal(t, "vault", config.Name)
	require.Equal(t, 4, config.Workers)
	require.EqualValues(t, 42, config.Seed)
	require.EqualValues(t, 1000000000, config.Scaling)
	require.Equal(t, 0.5, config.Ratio)
	require.True(t, config.Verbose)
	require.Equal(t, 5*time.Second, config.Interval)
	require.Equal(t, 256*memory.KiB, config.Block)
	require.Equal(t, "", config.Empty)
	require.Equal(t, "0.001", config.Nested.BaseCostPerKB)

	require.Equal(t, "instance name", flags.Lookup("name").Usage)
	require.NotNil(t, flags.Lookup("nested.base-cost-per-kb"))

	require.NoError(t, flags.Set("workers", "8"))
	require.NoError(t, flags.Set("block", "1.5 MiB"))
	require.NoError(t, flags.Set("nested.base-cost-per-kb", "0.002"))

	require.Equal(t, 8, config.Workers)
	require.Equal(t, memory.MiB+memory.MiB/2, config.Block)
	require.Equal(t, "0.002", config.Nested.BaseCostPerKB)
}

func TestBindInvalid(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.PanicOnError)

	require.Panics(t, func() { Bind(flags, struct{}{}) })

	var badDefault struct {
		Workers int `default:"abc"`
	}
	require.Panics(t, func() { Bind(flags, &badDefault) })

	var badType struct {
		Handler func()
	}
	require.Panics(t, func() { Bind(flags, &badType) })
}

func TestHyphenate(t *testing.T) {
	for _, tt := range []struct{ in, out string }{
		{"BlockSize", "block-size"},
		{"BaseCostPerKB", "base-cost-per-kb"},
		{"ID", "id"},
		{"NodeID", "node-id"},
		{"HTTPAddr", "http-addr"},
		{"Seed", "seed"},
	} {
		require.Equal(t, tt.out, hyphenate(tt.in), tt.in)
	}
}
