// Package abi loads a plugin's exported function table from a Go shared
// object and validates it against the Griffon plugin contract: a stable
// symbol name, a base name string, and a major version gate.
package abi

import (
	"errors"
	"fmt"
	"plugin"
	"strings"
)

// BaseName is the only accepted value of a loaded Table's BaseName field.
const BaseName = "Griffon_Plugin"

// SupportedMajorVersion is the only Table.MajorVersion this host accepts.
const SupportedMajorVersion = 1

// Symbol is the exported name a plugin .so must provide, holding a Table.
const Symbol = "GriffonPlugin"

// ErrLoadFailed wraps every failure mode of Load: a missing file, a bad
// suffix, a missing or mistyped symbol, or a BaseName/version mismatch.
var ErrLoadFailed = errors.New("abi: plugin load failed")

// Table is the function-table contract a plugin .so exports under Symbol.
// It stands in for the source's abi_stable prefix type: a fixed, versioned
// set of fields the host and the plugin both compile against.
type Table struct {
	BaseName      string
	MajorVersion  int
	Init          func() (map[string]string, error)
	HandleMessage func(string) string
}

// Load opens path as a Go plugin, looks up Symbol, and validates the
// resulting Table's identity and version before handing it back. Any
// failure, including a panic raised while opening or looking up the
// symbol, is reported as ErrLoadFailed.
func Load(path string) (tbl *Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			tbl = nil
			err = fmt.Errorf("%w: %s: panic during load: %v", ErrLoadFailed, path, r)
		}
	}()

	if !strings.HasSuffix(path, ".so") {
		return nil, fmt.Errorf("%w: %s: not a .so file", ErrLoadFailed, path)
	}

	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: open: %v", ErrLoadFailed, path, err)
	}

	sym, err := p.Lookup(Symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: lookup %s: %v", ErrLoadFailed, path, Symbol, err)
	}

	t, ok := sym.(*Table)
	if !ok {
		return nil, fmt.Errorf("%w: %s: symbol %s has type %T, want *abi.Table", ErrLoadFailed, path, Symbol, sym)
	}

	if t.BaseName != BaseName {
		return nil, fmt.Errorf("%w: %s: base name %q, want %q", ErrLoadFailed, path, t.BaseName, BaseName)
	}
	if t.MajorVersion != SupportedMajorVersion {
		return nil, fmt.Errorf("%w: %s: major version %d, want %d", ErrLoadFailed, path, t.MajorVersion, SupportedMajorVersion)
	}
	if t.Init == nil || t.HandleMessage == nil {
		return nil, fmt.Errorf("%w: %s: table missing Init or HandleMessage", ErrLoadFailed, path)
	}

	return t, nil
}

// SafeInit calls tbl.Init, converting a plugin-side panic into an error so
// a misbehaving plugin can never take the Runner down with it.
func SafeInit(tbl *Table) (info map[string]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			info, err = nil, fmt.Errorf("init panicked: %v", r)
		}
	}()
	return tbl.Init()
}

// SafeHandleMessage calls tbl.HandleMessage, converting a plugin-side panic
// into an error result rather than letting it propagate.
func SafeHandleMessage(tbl *Table, msg string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("handle_message panicked: %v", r)
		}
	}()
	return tbl.HandleMessage(msg), nil
}
