package photocal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/alnah/go-photocal/internal/fileutil"
)

// copyBufferSize is the read-ahead used to detect empty fields.
const copyBufferSize = 32 << 10

// partPrefix marks a field still being received. Field names with a
// leading dot are rejected, so a part file never collides with a staged one.
const partPrefix = ".part-"

// Stager drains multipart fields into a staging directory.
type Stager struct {
	logger *zap.Logger

	// openFile creates the part file a field streams into. Replaced in tests.
	openFile func(path string) (io.WriteCloser, error)
}

// NewStager creates a Stager. A nil logger disables logging.
func NewStager(logger *zap.Logger) *Stager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stager{
		logger:   logger,
		openFile: createFieldFile,
	}
}

func createFieldFile(path string) (io.WriteCloser, error) {
	// #nosec G304 -- path is dir.Path() joined with a validated single element
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
}

// Stage reads every field of mr in arrival order and writes each accepted
// field to a file named after the field inside dir. A field only replaces
// an earlier one of the same name once it was received in full.
//
// Fields are skipped, not failed, when they declare an empty filename,
// carry no bytes, have a name unusable as a file name, or break off mid-read.
// A failed disk write aborts with ErrFieldWrite. A multipart stream that
// breaks between fields ends staging early with what was already written,
// except when the body limit was hit (ErrUploadTooLarge) or ctx was
// canceled (ErrCanceled).
func (s *Stager) Stage(ctx context.Context, mr *multipart.Reader, dir *StagingDir) (InputMap, StageStats, error) {
	inputs := make(InputMap)
	var stats StageStats

	for {
		if err := ctx.Err(); err != nil {
			return inputs, stats, fmt.Errorf("%w: %v", ErrCanceled, err)
		}

		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return inputs, stats, nil
		}
		if err != nil {
			if abortErr := abortCause(ctx, err); abortErr != nil {
				return inputs, stats, abortErr
			}
			s.logger.Warn("multipart stream ended early, continuing with staged fields",
				zap.Int("accepted", stats.Accepted), zap.Error(err))
			return inputs, stats, nil
		}

		err = s.stageField(ctx, part, dir, inputs, &stats)
		_ = part.Close()
		if err != nil {
			return inputs, stats, err
		}
	}
}

// stageField handles a single part. Returns a non-nil error only when
// staging must stop.
func (s *Stager) stageField(ctx context.Context, part *multipart.Part, dir *StagingDir, inputs InputMap, stats *StageStats) error {
	name := part.FormName()
	log := s.logger.With(zap.String("field", name))

	if declaresEmptyFilename(part) {
		stats.SkippedNoFile++
		log.Debug("skipping field with empty filename")
		return nil
	}

	if err := fileutil.ValidateFileName(name); err != nil {
		stats.SkippedInvalidName++
		log.Warn("skipping field with unusable name", zap.Error(err))
		return nil
	}

	br := bufio.NewReaderSize(part, copyBufferSize)
	if _, err := br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			stats.SkippedEmpty++
			log.Debug("skipping empty field")
			return nil
		}
		return s.readFailure(ctx, log, err, stats)
	}

	path := filepath.Join(dir.Path(), name)
	partPath := filepath.Join(dir.Path(), partPrefix+name)
	dst, err := s.openFile(partPath)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrFieldWrite, name, err)
	}

	src := &readErrRecorder{r: br}
	n, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()

	if src.err != nil || copyErr != nil || closeErr != nil {
		_ = os.Remove(partPath)
	}
	if src.err != nil {
		return s.readFailure(ctx, log, src.err, stats)
	}
	if copyErr != nil {
		return fmt.Errorf("%w: %q: %v", ErrFieldWrite, name, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("%w: %q: %v", ErrFieldWrite, name, closeErr)
	}
	if err := os.Rename(partPath, path); err != nil {
		_ = os.Remove(partPath)
		return fmt.Errorf("%w: %q: %v", ErrFieldWrite, name, err)
	}

	if _, dup := inputs[name]; dup {
		log.Debug("field replaces an earlier one of the same name")
	}
	inputs[name] = name
	stats.Accepted++
	log.Debug("staged field", zap.Int64("bytes", n))
	return nil
}

// readFailure decides whether a transport error on one field aborts staging.
func (s *Stager) readFailure(ctx context.Context, log *zap.Logger, err error, stats *StageStats) error {
	if abortErr := abortCause(ctx, err); abortErr != nil {
		return abortErr
	}
	stats.ReadFailures++
	log.Warn("skipping field after read failure", zap.Error(err))
	return nil
}

// abortCause maps errors that must stop staging to their sentinel.
func abortCause(ctx context.Context, err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: limit is %d bytes", ErrUploadTooLarge, tooLarge.Limit)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ErrCanceled, ctxErr)
	}
	return nil
}

// declaresEmptyFilename reports whether the part's Content-Disposition
// carries a filename parameter with an empty value. A missing filename
// parameter is not the same thing and returns false.
func declaresEmptyFilename(part *multipart.Part) bool {
	cd := part.Header.Get("Content-Disposition")
	if cd == "" {
		return false
	}
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return false
	}
	filename, ok := params["filename"]
	return ok && filename == ""
}

// readErrRecorder remembers the first non-EOF read error so io.Copy
// failures can be attributed to the source or the destination.
type readErrRecorder struct {
	r   io.Reader
	err error
}

func (rr *readErrRecorder) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && rr.err == nil {
		rr.err = err
	}
	return n, err
}
