package summarize

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/dshills/contextview/internal/engine/patch"
)

// DefaultEntryPoint is the global function a summarizer script must define.
const DefaultEntryPoint = "summarize"

// DefaultScriptTimeout bounds a single script run.
const DefaultScriptTimeout = 2 * time.Second

// LuaSummarizer runs a Lua script to choose excluded regions.
//
// The script defines a global function that receives the document text and
// returns a list of {start, end} pairs: zero-based, half-open byte offsets.
// Overlapping pairs are merged and pairs outside the text are clipped.
//
//	function summarize(text)
//	  local out, init = {}, 1
//	  while true do
//	    local s, e = string.find(text, "#[^\n]*\n", init)
//	    if s == nil then break end
//	    table.insert(out, {s - 1, e})
//	    init = e + 1
//	  end
//	  return out
//	end
//
// Each run gets a fresh Lua state with only the base, table, string and math
// libraries, so a LuaSummarizer is safe for concurrent use.
type LuaSummarizer struct {
	name    string
	proto   *lua.FunctionProto
	entry   string
	timeout time.Duration
}

// LuaOption configures a LuaSummarizer.
type LuaOption func(*LuaSummarizer)

// WithEntryPoint sets the name of the global function to call.
func WithEntryPoint(name string) LuaOption {
	return func(s *LuaSummarizer) {
		s.entry = name
	}
}

// WithTimeout bounds each script run. Zero disables the bound.
func WithTimeout(d time.Duration) LuaOption {
	return func(s *LuaSummarizer) {
		s.timeout = d
	}
}

// NewLuaSummarizer compiles script. The name is used in error messages.
func NewLuaSummarizer(name, script string, opts ...LuaOption) (*LuaSummarizer, error) {
	chunk, err := parse.Parse(strings.NewReader(script), name)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrScript, name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("%w: compiling %s: %v", ErrScript, name, err)
	}

	s := &LuaSummarizer{
		name:    name,
		proto:   proto,
		entry:   DefaultEntryPoint,
		timeout: DefaultScriptTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// LoadLuaSummarizer reads and compiles a script file.
func LoadLuaSummarizer(path string, opts ...LuaOption) (*LuaSummarizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading summarizer script: %w", err)
	}
	return NewLuaSummarizer(path, string(data), opts...)
}

// Name returns the script name.
func (s *LuaSummarizer) Name() string {
	return s.name
}

// Summarize implements Summarizer.
func (s *LuaSummarizer) Summarize(ctx context.Context, text string) (p patch.Patch, err error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	L := newSandboxState()
	defer L.Close()
	L.SetContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: lua panic: %v", ErrScript, s.name, r)
		}
	}()

	L.Push(L.NewFunctionFromProto(s.proto))
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return patch.Patch{}, fmt.Errorf("%w: %s: %v", ErrScript, s.name, err)
	}

	fn := L.GetGlobal(s.entry)
	if fn.Type() != lua.LTFunction {
		return patch.Patch{}, fmt.Errorf("%w: %s: %q is not a function (got %s)", ErrScript, s.name, s.entry, fn.Type())
	}
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LString(text)); err != nil {
		return patch.Patch{}, fmt.Errorf("%w: %s: %v", ErrScript, s.name, err)
	}
	ret := L.Get(-1)
	L.Pop(1)

	ranges, err := rangesFromLua(ret)
	if err != nil {
		return patch.Patch{}, fmt.Errorf("%w: %s: %v", ErrScript, s.name, err)
	}
	return Normalize(ranges, len(text))
}

// newSandboxState creates a Lua state with only side-effect free libraries.
func newSandboxState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// io, os, debug and package are never opened.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// rangesFromLua converts a list of {start, end} tables.
func rangesFromLua(v lua.LValue) ([]patch.Range, error) {
	if v == lua.LNil {
		return nil, nil
	}
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("expected table of ranges, got %s", v.Type())
	}

	ranges := make([]patch.Range, 0, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		pair, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("range %d is not a table", i)
		}
		start, err := luaOffset(pair.RawGetInt(1))
		if err != nil {
			return nil, fmt.Errorf("range %d start: %v", i, err)
		}
		end, err := luaOffset(pair.RawGetInt(2))
		if err != nil {
			return nil, fmt.Errorf("range %d end: %v", i, err)
		}
		ranges = append(ranges, patch.NewRange(start, end))
	}
	return ranges, nil
}

func luaOffset(v lua.LValue) (int, error) {
	n, ok := v.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("expected number, got %s", v.Type())
	}
	f := float64(n)
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("offset %v is not an integer", f)
	}
	return int(f), nil
}
