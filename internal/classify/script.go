package classify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/bracketcolor/internal/logging"
)

// ScriptFunc is the global function a classifier script must define.
const ScriptFunc = "is_ignorable"

// DefaultCallTimeout bounds a single script call.
const DefaultCallTimeout = 50 * time.Millisecond

// Classifier maps a style id to whether brackets with that style are ignored.
type Classifier interface {
	IsIgnorable(style int) bool
}

// ErrNoScriptFunc is returned when a script does not define is_ignorable.
var ErrNoScriptFunc = errors.New("classifier script does not define " + ScriptFunc)

// Script is a classifier implemented in Lua:
//
//	function is_ignorable(style)
//	  if style == 12 then return true end  -- regex literals
//	  return default_ignorable(style)
//	end
//
// default_ignorable consults the fallback classifier. Answers are cached per
// style id, so the script must be a pure function of its argument. A call
// that errors or times out is answered by the fallback.
//
// Script is not safe for concurrent use.
type Script struct {
	L        *lua.LState
	fallback Classifier
	timeout  time.Duration
	cache    map[int]bool
	logger   *logging.Logger
}

// ScriptOption configures a Script.
type ScriptOption func(*Script)

// WithCallTimeout sets the per-call timeout.
func WithCallTimeout(d time.Duration) ScriptOption {
	return func(s *Script) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger used to report script failures.
func WithLogger(l *logging.Logger) ScriptOption {
	return func(s *Script) {
		if l != nil {
			s.logger = l
		}
	}
}

// ReadScript returns the source of the classifier script at path.
func ReadScript(path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading classifier script %s: %w", path, err)
	}
	return string(src), nil
}

// NewScript compiles and runs source in a sandboxed Lua state.
func NewScript(source string, fallback Classifier, opts ...ScriptOption) (*Script, error) {
	if fallback == nil {
		fallback = DefaultStyleSet()
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)

	s := &Script{
		L:        L,
		fallback: fallback,
		timeout:  DefaultCallTimeout,
		cache:    make(map[int]bool),
		logger:   logging.NullLogger,
	}
	for _, opt := range opts {
		opt(s)
	}

	L.SetGlobal("default_ignorable", L.NewFunction(func(L *lua.LState) int {
		style := L.CheckInt(1)
		L.Push(lua.LBool(s.fallback.IsIgnorable(style)))
		return 1
	}))

	if err := s.run(func() error { return L.DoString(source) }); err != nil {
		L.Close()
		return nil, err
	}

	if fn := L.GetGlobal(ScriptFunc); fn.Type() != lua.LTFunction {
		L.Close()
		return nil, ErrNoScriptFunc
	}

	return s, nil
}

// openSafeLibraries opens base, table, string and math, then removes the
// base functions that load code from disk or strings.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	L.SetTop(0)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// run executes fn under the call timeout with panic recovery.
func (s *Script) run(fn func() error) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// IsIgnorable implements Classifier.
func (s *Script) IsIgnorable(style int) bool {
	if v, ok := s.cache[style]; ok {
		return v
	}

	v, err := s.call(style)
	if err != nil {
		s.logger.Warn("classifier script failed for style %d: %v", style, err)
		v = s.fallback.IsIgnorable(style)
	}
	s.cache[style] = v
	return v
}

func (s *Script) call(style int) (bool, error) {
	var result lua.LValue
	err := s.run(func() error {
		if err := s.L.CallByParam(lua.P{
			Fn:      s.L.GetGlobal(ScriptFunc),
			NRet:    1,
			Protect: true,
		}, lua.LNumber(style)); err != nil {
			return err
		}
		result = s.L.Get(-1)
		s.L.Pop(1)
		return nil
	})
	if err != nil {
		return false, err
	}
	return lua.LVAsBool(result), nil
}

// Reset drops cached answers.
func (s *Script) Reset() {
	clear(s.cache)
}

// Close releases the Lua state.
func (s *Script) Close() {
	s.L.Close()
}
