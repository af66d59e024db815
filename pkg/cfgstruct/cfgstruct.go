// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

// Package cfgstruct registers configuration structs as flags, reading
// defaults and usage text from field tags.
package cfgstruct

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/pflag"
)

// FlagSet is the subset of *pflag.FlagSet needed to register config fields.
type FlagSet interface {
	BoolVar(p *bool, name string, value bool, usage string)
	IntVar(p *int, name string, value int, usage string)
	Int64Var(p *int64, name string, value int64, usage string)
	Uint64Var(p *uint64, name string, value uint64, usage string)
	Float64Var(p *float64, name string, value float64, usage string)
	DurationVar(p *time.Duration, name string, value time.Duration, usage string)
	StringVar(p *string, name string, value string, usage string)
	Var(val pflag.Value, name string, usage string)
}

// Bind registers a flag for every exported field of the config struct and
// binds the flag value directly to the field. Nested structs become dotted
// flag name prefixes. The `default` tag sets the initial value and the
// `help` tag the usage text. Invalid defaults panic, they are programmer
// errors.
func Bind(flags FlagSet, config interface{}) {
	ptr := reflect.ValueOf(config)
	if ptr.Kind() != reflect.Ptr {
		panic(fmt.Sprintf("invalid config type: %#v, expected pointer to struct", config))
	}
	bindConfig(flags, "", ptr.Elem())
}

func bindConfig(flags FlagSet, prefix string, val reflect.Value) {
	if val.Kind() != reflect.Struct {
		panic(fmt.Sprintf("invalid config type: %s, expected struct", val.Type()))
	}
	typ := val.Type()

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue
		}

		fieldval := val.Field(i)
		flagname := prefix + hyphenate(field.Name)
		help := field.Tag.Get("help")
		def := field.Tag.Get("default")

		if value, ok := fieldval.Addr().Interface().(pflag.Value); ok {
			flags.Var(value, flagname, help)
			if def != "" {
				if err := value.Set(def); err != nil {
					panic(fmt.Sprintf("invalid default %q for %s: %v", def, flagname, err))
				}
			}
			continue
		}

		if field.Type == reflect.TypeOf(time.Duration(0)) {
			var parsed time.Duration
			if def != "" {
				var err error
				if parsed, err = time.ParseDuration(def); err != nil {
					panic(fmt.Sprintf("invalid default %q for %s: %v", def, flagname, err))
				}
			}
			flags.DurationVar(fieldval.Addr().Interface().(*time.Duration), flagname, parsed, help)
			continue
		}

		switch field.Type.Kind() {
		case reflect.Struct:
			if def != "" || help != "" {
				panic(fmt.Sprintf("struct field %s cannot carry default or help tags", flagname))
			}
			bindConfig(flags, flagname+".", fieldval)
		case reflect.Bool:
			flags.BoolVar(fieldval.Addr().Interface().(*bool), flagname, parseBool(flagname, def), help)
		case reflect.Int:
			flags.IntVar(fieldval.Addr().Interface().(*int), flagname, int(parseInt(flagname, def)), help)
		case reflect.Int64:
			flags.Int64Var(fieldval.Addr().Interface().(*int64), flagname, parseInt(flagname, def), help)
		case reflect.Uint64:
			flags.Uint64Var(fieldval.Addr().Interface().(*uint64), flagname, parseUint(flagname, def), help)
		case reflect.Float64:
			flags.Float64Var(fieldval.Addr().Interface().(*float64), flagname, parseFloat(flagname, def), help)
		case reflect.String:
			flags.StringVar(fieldval.Addr().Interface().(*string), flagname, def, help)
		default:
			panic(fmt.Sprintf("unsupported config type %s for %s", field.Type, flagname))
		}
	}
}

func parseBool(flagname, def string) bool {
	if def == "" {
		return false
	}
	v, err := strconv.ParseBool(def)
	if err != nil {
		panic(fmt.Sprintf("invalid default %q for %s: %v", def, flagname, err))
	}
	return v
}

func parseInt(flagname, def string) int64 {
	if def == "" {
		return 0
	}
	v, err := strconv.ParseInt(def, 10, 64)
	if err != nil {
		panic(fmt.Sprintf("invalid default %q for %s: %v", def, flagname, err))
	}
	return v
}

func parseUint(flagname, def string) uint64 {
	if def == "" {
		return 0
	}
	v, err := strconv.ParseUint(def, 10, 64)
	if err != nil {
		panic(fmt.Sprintf("invalid default %q for %s: %v", def, flagname, err))
	}
	return v
}

func parseFloat(flagname, def string) float64 {
	if def == "" {
		return 0
	}
	v, err := strconv.ParseFloat(def, 64)
	if err != nil {
		panic(fmt.Sprintf("invalid default %q for %s: %v", def, flagname, err))
	}
	return v
}

// hyphenate converts a Go field name into its flag spelling, for example
// BaseCostPerKB becomes base-cost-per-kb.
func hyphenate(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (unicode.IsUpper(runes[i-1]) && nextLower) {
				b.WriteByte('-')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
