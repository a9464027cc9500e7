package expr

import (
	lua "github.com/yuin/gopher-lua"
)

// unsafeGlobals load code, reach the file system or write to stdout.
var unsafeGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"require",
	"module",
	"print",
	"collectgarbage",
}

// newSandboxedState creates a Lua state with only the safe libraries.
func newSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:        true,
		CallStackSize:       120,
		MinimizeStackMemory: true,
	})

	// io, os, debug and package are never opened.
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range unsafeGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}
