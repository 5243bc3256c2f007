package funck

import (
	"fmt"
	"path/filepath"
	"plugin"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/boson-project/funck/pkg/funck/abi"
)

// loadedArtifact is a single installed artifact: the opened plugin handle
// (kept only so it is not garbage collected — Go's plugin package has no
// explicit close), the function value it constructed, and the declared
// name under which it is addressable.
//
// loadedArtifact values are never removed from Loader.byName while a
// caller might still be using them: Call takes the Loader's read lock for
// the duration of the foreign invocation (see Loader.Call), and eviction
// (install/drop) takes the write lock, so the two can never overlap.
type loadedArtifact struct {
	handle   *plugin.Plugin
	function abi.Funcktion
	declared string
}

// Loader owns the set of currently installed artifacts. It is safe for
// concurrent use: all access goes through l.mu, a reader/writer lock that
// also serves as the liveness proof for loaded code.
type Loader struct {
	mu sync.RWMutex

	// byName maps a function's declared name to its loaded artifact.
	// At most one entry per name.
	byName map[string]*loadedArtifact

	// byLibrary maps a library-identity key (the artifact file's stem) to
	// the declared name currently installed under that identity, so that
	// re-installing "the same" artifact file evicts its prior install
	// regardless of whether the declared name changed.
	byLibrary map[string]string
}

// NewLoader returns an empty Loader.
func NewLoader() *Loader {
	return &Loader{
		byName:    make(map[string]*loadedArtifact),
		byLibrary: make(map[string]string),
	}
}

// libraryKey derives the library-identity key for an artifact path: its
// file name stem, stable across the directory it happens to live in.
func libraryKey(artifactPath string) string {
	base := filepath.Base(artifactPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Install opens artifactPath as a Go plugin, resolves its FunckCreate
// constructor, and takes ownership of the returned Funcktion. If an
// artifact with the same library-identity key was previously installed,
// its prior entry is evicted first (releasing the old function value,
// then — implicitly, as Go plugins cannot be closed — the old handle).
// Returns the function's declared name.
func (l *Loader) Install(artifactPath string) (string, error) {
	handle, err := plugin.Open(artifactPath)
	if err != nil {
		return "", ErrFailedToLoadLibrary{Path: artifactPath, Err: err}
	}

	sym, err := handle.Lookup(abi.FunckCreateSymbol)
	if err != nil {
		return "", ErrMissingSymbol{Path: artifactPath, Symbol: abi.FunckCreateSymbol}
	}

	// A plugin function symbol has the unnamed type func() abi.Funcktion;
	// a plugin variable of type abi.CreateFunc is looked up as a pointer.
	create, ok := sym.(func() abi.Funcktion)
	if !ok {
		if createPtr, okPtr := sym.(*abi.CreateFunc); okPtr {
			create = *createPtr
		} else {
			return "", ErrMissingSymbol{Path: artifactPath, Symbol: abi.FunckCreateSymbol}
		}
	}

	fn := create()
	if fn == nil {
		return "", ErrFailedToLoadLibrary{Path: artifactPath, Err: errNilConstructor}
	}
	declared := fn.Name()
	if declared == "" {
		return "", ErrFailedToLoadLibrary{Path: artifactPath, Err: errEmptyName}
	}

	key := libraryKey(artifactPath)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.evictLibraryLocked(key)
	// Also evict any *different* library-identity currently holding this
	// declared name — the new mapping wins.
	if prevKey, ok := l.declaredOwnerLocked(declared); ok && prevKey != key {
		l.evictLibraryLocked(prevKey)
	}

	l.byLibrary[key] = declared
	l.byName[declared] = &loadedArtifact{handle: handle, function: fn, declared: declared}

	logrus.WithFields(logrus.Fields{
		"function": declared,
		"artifact": artifactPath,
	}).Info("installed artifact")

	return declared, nil
}

// declaredOwnerLocked returns the library key currently holding declared,
// if any. Callers must hold l.mu.
func (l *Loader) declaredOwnerLocked(declared string) (string, bool) {
	for key, name := range l.byLibrary {
		if name == declared {
			return key, true
		}
	}
	return "", false
}

// evictLibraryLocked removes whatever is installed under library key, if
// anything. Callers must hold l.mu for writing.
func (l *Loader) evictLibraryLocked(key string) {
	name, ok := l.byLibrary[key]
	if !ok {
		return
	}
	delete(l.byLibrary, key)
	delete(l.byName, name)
}

// Has reports whether name is currently installed.
func (l *Loader) Has(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.byName[name]
	return ok
}

// Call invokes the installed function declared as name. The Loader holds
// its read lock for the duration of the foreign call, which is what
// guarantees that an install racing a call either completes entirely
// before the call observes it, or is blocked until the call returns — the
// call never observes a half-installed state, and the library handle it
// used stays alive throughout.
func (l *Loader) Call(name string, req abi.Request) (resp abi.Response, err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	art, ok := l.byName[name]
	if !ok {
		return abi.Response{}, ErrUnknownFunction{Name: name}
	}
	return callGuarded(art.function, req)
}

// callGuarded invokes fn.Call, converting any panic raised inside the
// foreign function into a CallError rather than letting it unwind across
// the plugin boundary, per the ABI's forbid-unwinding rule.
func callGuarded(fn abi.Funcktion, req abi.Request) (resp abi.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrCall{Name: fn.Name(), Err: panicError{r}}
		}
	}()
	resp, err = fn.Call(req)
	if err != nil {
		err = ErrCall{Name: fn.Name(), Err: err}
	}
	return
}

// DropAll releases all installed artifacts. Go's plugin package offers no
// explicit unload, so this releases the Loader's own references to the
// function values and handles; no function value's owning handle
// reference is dropped before the function value itself.
func (l *Loader) DropAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for name := range l.byName {
		delete(l.byName, name)
	}
	for key := range l.byLibrary {
		delete(l.byLibrary, key)
	}
}

type panicError struct{ v any }

func (p panicError) Error() string { return fmt.Sprintf("panic: %v", p.v) }

var (
	errNilConstructor = errorString("FunckCreate returned a nil Funcktion")
	errEmptyName      = errorString("Funcktion returned an empty declared name")
)

type errorString string

func (e errorString) Error() string { return string(e) }
