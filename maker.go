package photocal

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/alnah/go-photocal/internal/hints"
)

// State is a stage of one Make call.
type State int

const (
	StateInit State = iota
	StateStaging
	StateCompiling
	StateExporting
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateStaging:
		return "staging"
	case StateCompiling:
		return "compiling"
	case StateExporting:
		return "exporting"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// StateObserver is notified of every state a Make call enters, in order.
// It runs on the request goroutine and must not block.
type StateObserver func(ctx context.Context, s State)

// Maker runs the upload-to-PDF pipeline for one request at a time per
// call; a single Maker serves concurrent requests.
type Maker struct {
	compiler    Compiler
	exporter    Exporter
	stager      *Stager
	logger      *zap.Logger
	observer    StateObserver
	stagingBase string
	assetDir    string
	policy      ExportPolicy
	workers     int
	sem         *semaphore.Weighted

	newStagingDir func(base string) (*StagingDir, error)
}

// Option configures a Maker.
type Option func(*Maker)

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Maker) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithObserver registers a state observer.
func WithObserver(o StateObserver) Option {
	return func(m *Maker) { m.observer = o }
}

// WithStagingBase sets the parent of per-request staging directories.
// Empty uses the system temp directory.
func WithStagingBase(dir string) Option {
	return func(m *Maker) { m.stagingBase = dir }
}

// WithAssetDir sets the search root consulted after the staging directory.
func WithAssetDir(dir string) Option {
	return func(m *Maker) { m.assetDir = dir }
}

// WithExportPolicy selects how export failures surface. Default ExportLenient.
func WithExportPolicy(p ExportPolicy) Option {
	return func(m *Maker) { m.policy = p }
}

// WithWorkers bounds concurrent compile+export runs.
// 0 uses ResolvePoolSize's automatic sizing.
func WithWorkers(n int) Option {
	return func(m *Maker) { m.workers = n }
}

// NewMaker wires a Maker around a compiler and an exporter.
func NewMaker(compiler Compiler, exporter Exporter, opts ...Option) *Maker {
	m := &Maker{
		compiler:      compiler,
		exporter:      exporter,
		logger:        zap.NewNop(),
		newStagingDir: NewStagingDir,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.stager = NewStager(m.logger)
	m.sem = semaphore.NewWeighted(int64(ResolvePoolSize(m.workers)))
	return m
}

// Make stages the fields of mr, compiles the calendar, and exports it.
//
// The staging directory is released before Make returns on every path,
// including errors, cancellation and panics. Errors wrap one of
// ErrStagingDir, ErrFieldWrite, ErrUploadTooLarge, ErrCanceled, ErrCompile,
// or (under ExportStrict) ErrExport.
func (m *Maker) Make(ctx context.Context, mr *multipart.Reader) (result *Result, err error) {
	m.enter(ctx, StateInit)
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("internal error: %v", r)
		}
		if err != nil {
			m.enter(ctx, StateError)
		}
	}()

	dir, err := m.newStagingDir(m.stagingBase)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := dir.Release(); rerr != nil {
			m.logger.Warn("removing staging directory failed", zap.String("dir", dir.Path()), zap.Error(rerr))
		}
	}()

	m.enter(ctx, StateStaging)
	inputs, stats, err := m.stager.Stage(ctx, mr, dir)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("staged upload",
		zap.Strings("inputs", inputs.Keys()),
		zap.Int("accepted", stats.Accepted),
		zap.Int("skipped", stats.Skipped()))

	if err := m.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCanceled, err)
	}
	defer m.sem.Release(1)

	m.enter(ctx, StateCompiling)
	doc, err := m.compiler.Compile(ctx, CompileRequest{
		Inputs:      inputs,
		SearchPaths: []string{dir.Path(), m.assetDir},
	})
	if err != nil {
		return nil, m.compileFailure(ctx, err)
	}

	m.enter(ctx, StateExporting)
	res := &Result{Inputs: inputs, Stats: stats}
	pdf, err := m.exporter.Export(ctx, doc)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrCanceled, ctxErr)
		}
		if m.policy == ExportStrict {
			return nil, fmt.Errorf("%w: %v", ErrExport, err)
		}
		m.logger.Warn("export failed, returning empty document",
			zap.Error(err), zap.String("hint", exportHint(err)))
		res.PDF = []byte{}
		res.Degraded = true
	} else {
		res.PDF = pdf
	}

	m.enter(ctx, StateDone)
	return res, nil
}

// compileFailure normalizes compiler errors: cancellation stays
// ErrCanceled, anything not already an ErrCompile is wrapped as one.
func (m *Maker) compileFailure(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ErrCanceled, ctxErr)
	}
	if errors.Is(err, ErrCompile) {
		return err
	}
	return &CompileError{Stage: StageTemplate, Detail: err.Error()}
}

func (m *Maker) enter(ctx context.Context, s State) {
	if m.observer != nil {
		m.observer(ctx, s)
	}
}

func exportHint(err error) string {
	switch {
	case errors.Is(err, ErrBrowserConnect):
		return hints.Plain(hints.ForBrowserConnect())
	case errors.Is(err, ErrPageLoad), errors.Is(err, context.DeadlineExceeded):
		return hints.Plain(hints.ForTimeout())
	default:
		return ""
	}
}
