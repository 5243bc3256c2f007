package funck

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/boson-project/funck/pkg/funck/abi"
)

// Manager is the top-level object owning the Loader, the StatusTracker,
// and the Compile Worker / Install Loop pair, and is the only type client
// code outside this package needs to hold.
type Manager struct {
	cfg     Config
	loader  *Loader
	tracker *StatusTracker
	worker  *CompileWorker

	mu      sync.Mutex
	started bool
}

// New creates a Manager rooted at cfg's directories, creating them if
// necessary, and performs a startup scan: every artifact already present
// in ArtifactDir is re-installed into a fresh Loader and its status seeded
// to Ready, so a restarted server recovers the set of callable functions
// without recompiling anything.
func New(cfg Config) (*Manager, error) {
	cfg = cfg.withDefaults()

	if err := os.MkdirAll(cfg.ArtifactDir, 0o755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.TmpDir, 0o755); err != nil {
		return nil, err
	}

	loader := NewLoader()
	tracker := NewStatusTracker()

	entries, err := os.ReadDir(cfg.ArtifactDir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != pluginExt {
			continue
		}
		path := filepath.Join(cfg.ArtifactDir, e.Name())
		name, err := loader.Install(path)
		if err != nil {
			logrus.WithError(err).WithField("artifact", path).
				Warn("skipping artifact found at startup")
			continue
		}
		tracker.Seed(name, StatusEntry{Phase: Ready})
	}

	return &Manager{
		cfg:     cfg,
		loader:  loader,
		tracker: tracker,
		worker:  NewCompileWorker(tracker, cfg.CompileTimeout),
	}, nil
}

// Start launches the Compile Worker and Install Loop. Calling Start twice
// returns ErrManagerAlreadyStarted.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return ErrManagerAlreadyStarted
	}
	m.started = true

	results := m.worker.Start()
	go installLoop(results, m.loader, m.tracker, m.cfg.ArtifactDir)
	return nil
}

// NewDeployment allocates a fresh, empty ScopedDir under the Manager's
// TmpDir for a new deployment and records it as Accepted. If name is
// empty, a unique one is generated. Callers populate the returned
// directory with a function's Go source and then pass it to Add.
func (m *Manager) NewDeployment(name string) (ScopedDir, error) {
	if name == "" {
		name = uuid.NewString()
	}
	name = sanitizeJobName(name)

	dir, err := NewScopedDir(filepath.Join(m.cfg.TmpDir, name), name)
	if err != nil {
		return ScopedDir{}, err
	}
	m.tracker.Add(name)
	return dir, nil
}

// Add enqueues dir for compilation. The Manager must have been Started;
// otherwise this returns ErrWorkerNotStarted and dir is released.
func (m *Manager) Add(dir ScopedDir) error {
	if err := m.worker.Enqueue(CompileJob{Dir: dir}); err != nil {
		dir.Release()
		return err
	}
	return nil
}

// Has reports whether name is currently installed and callable.
func (m *Manager) Has(name string) bool {
	return m.loader.Has(name)
}

// Call invokes the installed function declared as name.
func (m *Manager) Call(name string, req abi.Request) (abi.Response, error) {
	return m.loader.Call(name, req)
}

// Stat returns a point-in-time snapshot of every tracked function's
// status, keyed by name.
func (m *Manager) Stat() map[string]StatusEntry {
	return m.tracker.Snapshot()
}

// sanitizeJobName keeps a client-supplied deployment name safe to use as a
// single path component: path separators are rejected rather than
// silently stripped, since either would let a malicious name escape
// TmpDir.
func sanitizeJobName(name string) string {
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return uuid.NewString()
	}
	return name
}
