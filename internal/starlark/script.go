package starlark

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/eachof/pkg/core"
	"github.com/leapstack-labs/eachof/pkg/eachof"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
)

// EntryPoint is the function a script must define.
const EntryPoint = "each"

// ErrNoEntryPoint is returned when a script does not define each().
var ErrNoEntryPoint = errors.New("script does not define a callable each(view, key)")

// Script is a compiled Starlark script whose each() function is called
// once per collection entry.
type Script struct {
	file    string
	each    starlark.Callable
	pool    *ThreadPool
	logger  *slog.Logger
	globals starlark.StringDict
}

// Option configures a Script.
type Option func(*scriptOptions)

type scriptOptions struct {
	logger *slog.Logger
	env    string
	vars   map[string]any
	pool   int
}

// WithLogger sets the logger used for print() and log().
func WithLogger(logger *slog.Logger) Option {
	return func(o *scriptOptions) { o.logger = logger }
}

// WithEnv sets the "env" global.
func WithEnv(env string) Option {
	return func(o *scriptOptions) { o.env = env }
}

// WithVars exposes vars as the "vars" global dict.
func WithVars(vars map[string]any) Option {
	return func(o *scriptOptions) { o.vars = vars }
}

// WithPoolSize bounds the number of idle threads kept for reuse.
func WithPoolSize(n int) Option {
	return func(o *scriptOptions) { o.pool = n }
}

// LoadFile reads and compiles the script at path.
func LoadFile(path string, opts ...Option) (*Script, error) {
	src, err := os.ReadFile(path) //nolint:gosec // G304: script path is user-provided by design
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return Load(path, src, opts...)
}

// Load compiles src, executes its top level and resolves each().
// Globals are frozen afterwards.
func Load(file string, src []byte, opts ...Option) (*Script, error) {
	o := scriptOptions{env: "dev"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	predeclared, err := Predeclared(o.env, o.vars, o.logger)
	if err != nil {
		return nil, err
	}

	s := &Script{
		file:   file,
		pool:   NewThreadPool(o.pool, o.logger),
		logger: o.logger,
	}

	thread := s.pool.Get(file)
	defer s.pool.Put(thread)

	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, file, src, predeclared)
	if err != nil {
		return nil, &ScriptError{File: file, Err: err}
	}
	globals.Freeze()

	fn, ok := globals[EntryPoint].(starlark.Callable)
	if !ok {
		return nil, &ScriptError{File: file, Err: ErrNoEntryPoint}
	}

	s.each = fn
	s.globals = globals
	return s, nil
}

// File returns the script's file name.
func (s *Script) File() string { return s.file }

// Call runs each(view, key) for one item.
func (s *Script) Call(item *core.Item, key string) (starlark.Value, error) {
	view, err := ItemToStarlark(item)
	if err != nil {
		return nil, &ScriptError{File: s.file, Key: key, Err: err}
	}

	thread := s.pool.Get(s.file + ":" + key)
	defer s.pool.Put(thread)

	result, err := starlark.Call(thread, s.each, starlark.Tuple{view, starlark.String(key)}, nil)
	if err != nil {
		return nil, &ScriptError{File: s.file, Key: key, Err: err}
	}
	return result, nil
}

// Predeclared returns the globals every script sees: env, vars, log and
// struct.
func Predeclared(env string, vars map[string]any, logger *slog.Logger) (starlark.StringDict, error) {
	varsDict, err := GoToStarlark(vars)
	if err != nil {
		return nil, fmt.Errorf("vars: %w", err)
	}
	if varsDict == starlark.None {
		varsDict = starlark.NewDict(0)
	}

	return starlark.StringDict{
		"env":    starlark.String(env),
		"vars":   varsDict,
		"log":    logBuiltin(logger),
		"struct": starlark.NewBuiltin("struct", starlarkstruct.Make),
		"html":   htmlModule,
	}, nil
}

// logBuiltin implements log(msg, level="info").
func logBuiltin(logger *slog.Logger) *starlark.Builtin {
	return starlark.NewBuiltin("log", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var msg, level string
		level = "info"
		if err := starlark.UnpackArgs(b.Name(), args, kwargs, "msg", &msg, "level?", &level); err != nil {
			return nil, err
		}

		switch level {
		case "debug":
			logger.Debug(msg, "thread", thread.Name)
		case "info":
			logger.Info(msg, "thread", thread.Name)
		case "warn":
			logger.Warn(msg, "thread", thread.Name)
		case "error":
			logger.Error(msg, "thread", thread.Name)
		default:
			return nil, fmt.Errorf("%s: unknown level %q", b.Name(), level)
		}
		return starlark.None, nil
	})
}

// ScriptError is a failure while loading a script or running each().
type ScriptError struct {
	File string
	Key  string
	Err  error
}

func (e *ScriptError) Error() string {
	msg := e.Err.Error()
	var evalErr *starlark.EvalError
	if errors.As(e.Err, &evalErr) {
		msg = evalErr.Backtrace()
	}
	if e.Key != "" {
		return fmt.Sprintf("%s: each(%q): %s", e.File, e.Key, msg)
	}
	return fmt.Sprintf("%s: %s", e.File, msg)
}

func (e *ScriptError) Unwrap() error { return e.Err }

// Result is the outcome of each() for one entry.
type Result struct {
	Key     string
	Value   any
	Skipped bool
}

// Iterator returns an eachof iterator that calls each() and hands every
// result to collect. collect may be nil.
func (s *Script) Iterator(collect func(Result)) eachof.Iterator[*core.Item] {
	return func(item *core.Item, key string, next eachof.Next) {
		value, err := s.Call(item, key)
		if err != nil {
			next(err)
			return
		}

		res := Result{Key: key}
		if b, ok := value.(starlark.Bool); ok && !bool(b) {
			res.Skipped = true
			s.logger.Debug("skipped", "key", key)
		} else {
			res.Value, err = ToGo(value)
			if err != nil {
				next(&ScriptError{File: s.file, Key: key, Err: err})
				return
			}
		}

		if collect != nil {
			collect(res)
		}
		next(nil)
	}
}
