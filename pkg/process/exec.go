// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

// Package process provides the shared runtime glue of the vault binaries:
// flag and environment based configuration, logger setup, debug endpoints
// and signal aware contexts.
package process

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
	monkit "gopkg.in/spacemonkeygo/monkit.v2"
)

// Error is a process error class.
var Error = errs.Class("process error")

var configFile = flag.String("config", "", "configuration file read before flags and environment")

var (
	contextMtx sync.Mutex
	contexts   = map[*cobra.Command]context.Context{}
)

// Ctx returns the context for a command, canceled when the process receives
// an interrupt or termination signal.
func Ctx(cmd *cobra.Command) context.Context {
	contextMtx.Lock()
	defer contextMtx.Unlock()

	ctx := contexts[cmd]
	if ctx == nil {
		newCtx, cancel := context.WithCancel(context.Background())
		ctx = newCtx
		contexts[cmd] = ctx

		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-c
			zap.S().Infof("got a signal from the os: %q", sig)
			signal.Stop(c)
			cancel()
		}()
	}
	return ctx
}

// Exec runs a command tree with process wide configuration applied: stdlib
// flags are merged into the command, a configuration file and ATRIUM_
// environment variables fill every flag not set on the command line, and a
// logger built from the log flags is installed as the zap global before the
// command body runs.
func Exec(cmd *cobra.Command) {
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	cleanup(cmd)
	Must(cmd.Execute())
}

// Must exits the process on error.
func Must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func cleanup(cmd *cobra.Command) {
	for _, child := range cmd.Commands() {
		cleanup(child)
	}
	if cmd.RunE == nil {
		return
	}
	internalRun := cmd.RunE

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		vip := viper.New()
		if err := vip.BindPFlags(cmd.Flags()); err != nil {
			return Error.Wrap(err)
		}
		vip.SetEnvPrefix("atrium")
		vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		vip.AutomaticEnv()

		if *configFile != "" {
			vip.SetConfigFile(*configFile)
			if err := vip.ReadInConfig(); err != nil && !os.IsNotExist(err) {
				return Error.Wrap(err)
			}
		}

		// copy the effective settings back into any flag left unchanged
		for _, key := range vip.AllKeys() {
			pf := cmd.Flags().Lookup(key)
			if pf == nil || pf.Changed || !vip.IsSet(key) {
				continue
			}
			if err := cmd.Flags().Set(key, vip.GetString(key)); err != nil {
				return Error.New("invalid setting %q: %v", key, err)
			}
		}

		logger, err := NewLogger()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		defer zap.ReplaceGlobals(logger)()
		defer zap.RedirectStdLog(logger)()

		if err := initDebug(logger, monkit.Default); err != nil {
			logger.Error("failed to start debug endpoints", zap.Error(err))
		}

		return internalRun(cmd, args)
	}
}
