// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

package process

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"strings"

	"go.uber.org/zap"
	monkit "gopkg.in/spacemonkeygo/monkit.v2"
	"gopkg.in/spacemonkeygo/monkit.v2/present"
)

var debugAddr = flag.String("debug.addr", "127.0.0.1:0", "address to listen on for debug endpoints, empty disables them")

func initDebug(logger *zap.Logger, r *monkit.Registry) (err error) {
	if *debugAddr == "" {
		return nil
	}

	var mux http.ServeMux
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/mon/", http.StripPrefix("/mon", present.HTTP(r)))
	mux.HandleFunc("/metrics", prometheus)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, "OK")
	})

	ln, err := net.Listen("tcp", *debugAddr)
	if err != nil {
		return err
	}
	go func() {
		logger.Debug("debug server listening", zap.Stringer("addr", ln.Addr()))
		if err := (&http.Server{Handler: &mux}).Serve(ln); err != nil {
			logger.Error("debug server died", zap.Error(err))
		}
	}()
	return nil
}

func sanitize(val string) string {
	// https://prometheus.io/docs/concepts/data_model/ requires metric names
	// to match [a-zA-Z_:][a-zA-Z0-9_:]*, with colons reserved for rules
	if '0' <= val[0] && val[0] <= '9' {
		val = "_" + val
	}
	return strings.Map(func(r rune) rune {
		switch {
		case 'a' <= r && r <= 'z':
			return r
		case 'A' <= r && r <= 'Z':
			return r
		case '0' <= r && r <= '9':
			return r
		default:
			return '_'
		}
	}, val)
}

func prometheus(w http.ResponseWriter, r *http.Request) {
	// writes https://prometheus.io/docs/instrumenting/exposition_formats/
	monkit.Default.Stats(func(name string, val float64) {
		metric := sanitize(name)
		_, _ = fmt.Fprintf(w, "# TYPE %s gauge\n%s %g\n", metric, metric, val)
	})
}
