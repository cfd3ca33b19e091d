package editor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tagbatch/mp3"
	"tagbatch/utils"
)

const defaultConcurrency = 4

type Option func(*Session)

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

func WithCodec(codec mp3.TagCodec) Option {
	return func(s *Session) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// WithConcurrency bounds the number of files read or written at once.
func WithConcurrency(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithPreserveModTime keeps each file's modification time across Save.
func WithPreserveModTime(preserve bool) Option {
	return func(s *Session) {
		s.preserveModTime = preserve
	}
}

// WithArtworkLimits sets the byte limit for artwork files and the longest
// edge artwork is scaled down to (0 keeps the original size).
func WithArtworkLimits(maxBytes, maxDim int) Option {
	return func(s *Session) {
		s.maxArtworkBytes = maxBytes
		s.maxArtworkDim = maxDim
	}
}

// Session owns the working set of loaded records. Its methods serialise on
// one lock; file reads and writes inside a call fan out over distinct paths.
type Session struct {
	mu sync.Mutex

	codec           mp3.TagCodec
	log             logrus.FieldLogger
	concurrency     int
	preserveModTime bool
	maxArtworkBytes int
	maxArtworkDim   int

	records []*Record
	index   map[string]*Record
}

func NewSession(opts ...Option) *Session {
	s := &Session{
		log:             logrus.StandardLogger(),
		concurrency:     defaultConcurrency,
		maxArtworkBytes: mp3.DefaultMaxArtworkBytes,
		index:           make(map[string]*Record),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.codec == nil {
		s.codec = mp3.NewTagCodec(mp3.WithLogger(s.log))
	}
	return s
}

// canonicalPath makes path absolute and resolves symlinks when it can.
func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

// LoadFiles reads every path not already in the working set. Duplicates are
// skipped, unreadable files are reported and left out. Records are added in
// input order.
func (s *Session) LoadFiles(ctx context.Context, paths []string) LoadResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res LoadResult
	var pending []string
	seen := make(map[string]bool)
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			res.Failures = append(res.Failures, &FileError{Path: p, Op: "load", Err: fmt.Errorf("%w: empty path", ErrInvalidArgument)})
			continue
		}
		canon, err := canonicalPath(p)
		if err != nil {
			res.Failures = append(res.Failures, &FileError{Path: p, Op: "load", Err: err})
			continue
		}
		if s.index[canon] != nil || seen[canon] {
			s.log.WithField("file", canon).Debug("Skipping already loaded file")
			res.Skipped++
			continue
		}
		seen[canon] = true
		pending = append(pending, canon)
	}

	records := make([]*Record, len(pending))
	errs := make([]error, len(pending))

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, path := range pending {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			records[i], errs[i] = s.readRecord(path)
			return nil
		})
	}
	_ = g.Wait()

	for i, path := range pending {
		if errs[i] != nil {
			s.log.WithField("file", path).WithError(errs[i]).Warn("Failed to load file")
			res.Failures = append(res.Failures, &FileError{Path: path, Op: "load", Err: errs[i]})
			continue
		}
		s.records = append(s.records, records[i])
		s.index[path] = records[i]
		res.Loaded++
	}

	s.log.WithFields(logrus.Fields{
		"loaded":  res.Loaded,
		"skipped": res.Skipped,
		"failed":  len(res.Failures),
	}).Info("Loaded files")
	return res
}

// LoadFolder loads every file in dir with the given extension.
func (s *Session) LoadFolder(ctx context.Context, dir, ext string, recursive bool) LoadResult {
	files, err := utils.FindAudioFiles(dir, ext, recursive)
	if err != nil {
		return LoadResult{Failures: []*FileError{{Path: dir, Op: "scan", Err: err}}}
	}
	return s.LoadFiles(ctx, files)
}

func (s *Session) readRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tag, err := s.codec.Read(data)
	if err != nil {
		return nil, err
	}
	s.log.WithField("file", path).Debug("Read tags")
	return newRecord(path, int64(len(data)), tag), nil
}

// Records returns the working set in load order.
func (s *Session) Records() []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Lookup finds the record loaded from path, or nil.
func (s *Session) Lookup(path string) *Record {
	canon, err := canonicalPath(path)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index[canon]
}

// SelectAll returns every record in load order.
func (s *Session) SelectAll() []*Record {
	return s.Records()
}

// Select returns the records for paths, in the order given.
func (s *Session) Select(paths ...string) ([]*Record, error) {
	sel := make([]*Record, 0, len(paths))
	for _, p := range paths {
		rec := s.Lookup(p)
		if rec == nil {
			return nil, fmt.Errorf("%w: %s is not loaded", ErrInvalidArgument, p)
		}
		sel = append(sel, rec)
	}
	return sel, nil
}

// SelectIndices returns the records at the given positions of Records.
func (s *Session) SelectIndices(indices ...int) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel := make([]*Record, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(s.records) {
			return nil, fmt.Errorf("%w: index %d out of range", ErrInvalidArgument, i)
		}
		sel = append(sel, s.records[i])
	}
	return sel, nil
}

func (s *Session) checkSelection(sel []*Record) error {
	for _, rec := range sel {
		if rec == nil {
			return fmt.Errorf("%w: nil record", ErrInvalidArgument)
		}
		if s.index[rec.path] != rec {
			return fmt.Errorf("%w: %s is not in this session", ErrInvalidArgument, rec.path)
		}
	}
	return nil
}

// Remove drops records from the working set without touching their files.
func (s *Session) Remove(sel []*Record) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[*Record]bool, len(sel))
	for _, rec := range sel {
		if rec != nil && s.index[rec.path] == rec {
			drop[rec] = true
		}
	}
	if len(drop) == 0 {
		return 0
	}

	kept := s.records[:0]
	for _, rec := range s.records {
		if drop[rec] {
			delete(s.index, rec.path)
			rec.setState(StateRemoved)
			continue
		}
		kept = append(kept, rec)
	}
	clear(s.records[len(kept):])
	s.records = kept
	return len(drop)
}

// Project computes the common value projection of sel.
func (s *Session) Project(sel []*Record) Projection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Project(sel)
}

// Apply writes edits onto sel under the keep-or-clear rule of Apply.
func (s *Session) Apply(sel []*Record, edits Edits) (ApplyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSelection(sel); err != nil {
		return ApplyResult{}, err
	}
	res := Apply(sel, edits)
	s.log.WithFields(logrus.Fields{
		"records": res.Records,
		"fields":  res.Fields,
	}).Debug("Applied edits")
	return res, nil
}

// AutoNumberTracks sets track to the 1-based position in sel and
// track-total to len(sel). Disc fields are untouched.
func (s *Session) AutoNumberTracks(sel []*Record) (ApplyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSelection(sel); err != nil {
		return ApplyResult{}, err
	}

	var res ApplyResult
	total := strconv.Itoa(len(sel))
	for i, rec := range sel {
		n := 0
		if rec.set(mp3.FieldTrack, strconv.Itoa(i+1)) {
			n++
		}
		if rec.set(mp3.FieldTrackTotal, total) {
			n++
		}
		if n > 0 {
			res.Records++
			res.Fields += n
		}
	}
	return res, nil
}

// Save writes every record in sel back to its own file. Each file is
// replaced atomically; a failure is reported and the rest carry on.
func (s *Session) Save(ctx context.Context, sel []*Record) BatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := BatchResult{Attempted: len(sel)}

	var targets []*Record
	queued := make(map[*Record]bool)
	for _, rec := range sel {
		if err := s.checkSelection([]*Record{rec}); err != nil {
			path := ""
			if rec != nil {
				path = rec.path
			}
			res.Failures = append(res.Failures, &FileError{Path: path, Op: "save", Err: err})
			continue
		}
		if queued[rec] {
			res.Attempted--
			continue
		}
		queued[rec] = true
		targets = append(targets, rec)
	}

	errs := make([]error, len(targets))
	skipped := make([][]*mp3.FieldError, len(targets))

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, rec := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			skipped[i], errs[i] = s.writeTags(rec.path, rec, s.preserveModTime)
			return nil
		})
	}
	_ = g.Wait()

	for i, rec := range targets {
		for _, fe := range skipped[i] {
			res.Warnings = append(res.Warnings, &FileError{Path: rec.path, Op: "save", Err: fe})
		}
		if errs[i] != nil {
			s.log.WithField("file", rec.path).WithError(errs[i]).Error("Failed to save file")
			res.Failures = append(res.Failures, &FileError{Path: rec.path, Op: "save", Err: errs[i]})
			continue
		}
		rec.setState(StateClean)
		res.Succeeded++
	}

	s.log.WithField("result", res.String()).Info("Saved files")
	return res
}

// SaveAs writes rec's tags to newPath. When newPath differs from the
// record's file, the file is copied first and only the copy is modified.
// The record itself keeps its path and state.
func (s *Session) SaveAs(rec *Record, newPath string) BatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := BatchResult{Attempted: 1}
	if strings.TrimSpace(newPath) == "" {
		res.Failures = append(res.Failures, &FileError{Op: "save as", Err: fmt.Errorf("%w: empty path", ErrInvalidArgument)})
		return res
	}
	if err := s.checkSelection([]*Record{rec}); err != nil {
		res.Failures = append(res.Failures, &FileError{Path: newPath, Op: "save as", Err: err})
		return res
	}

	dst, err := canonicalPath(newPath)
	if err != nil {
		res.Failures = append(res.Failures, &FileError{Path: newPath, Op: "save as", Err: err})
		return res
	}

	if dst != rec.path {
		if err := utils.CopyFile(rec.path, dst); err != nil {
			res.Failures = append(res.Failures, &FileError{Path: dst, Op: "copy", Err: err})
			return res
		}
	}

	skipped, err := s.writeTags(dst, rec, false)
	for _, fe := range skipped {
		res.Warnings = append(res.Warnings, &FileError{Path: dst, Op: "save as", Err: fe})
	}
	if err != nil {
		res.Failures = append(res.Failures, &FileError{Path: dst, Op: "save as", Err: err})
		return res
	}
	if dst == rec.path {
		rec.setState(StateClean)
	}
	res.Succeeded = 1
	return res
}

// writeTags rewrites the tag of the file at path from rec.
func (s *Session) writeTags(path string, rec *Record, preserveModTime bool) ([]*mp3.FieldError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}
	wr, err := s.codec.Write(data, rec.values, rec.artwork)
	if err != nil {
		return nil, err
	}
	if err := utils.WriteFileAtomic(path, wr.Data, preserveModTime); err != nil {
		return wr.Skipped, fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}
	s.log.WithField("file", path).Debug("Wrote tags")
	return wr.Skipped, nil
}

// Rename moves rec's file to newBaseName plus its current extension in the
// same directory. An empty name or the current name is a no-op.
func (s *Session) Rename(rec *Record, newBaseName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSelection([]*Record{rec}); err != nil {
		return err
	}

	ext := filepath.Ext(rec.path)
	current := strings.TrimSuffix(filepath.Base(rec.path), ext)
	if newBaseName == "" || newBaseName == current {
		return nil
	}
	if strings.ContainsAny(newBaseName, `/\`) || newBaseName == "." || newBaseName == ".." {
		return fmt.Errorf("%w: %q is not a file name", ErrInvalidArgument, newBaseName)
	}

	target := filepath.Join(filepath.Dir(rec.path), newBaseName+ext)
	if _, err := os.Lstat(target); err == nil {
		return &FileError{Path: target, Op: "rename", Err: ErrNameConflict}
	} else if !os.IsNotExist(err) {
		return &FileError{Path: target, Op: "rename", Err: fmt.Errorf("%w: %v", ErrRenameInUse, err)}
	}

	if err := os.Rename(rec.path, target); err != nil {
		return &FileError{Path: rec.path, Op: "rename", Err: fmt.Errorf("%w: %v", ErrRenameInUse, err)}
	}

	s.log.WithFields(logrus.Fields{"from": rec.path, "to": target}).Info("Renamed file")
	delete(s.index, rec.path)
	rec.path = target
	s.index[target] = rec
	return nil
}

// ArtworkFromFile reads an image for use in Edits. It is validated against
// the session's byte limit, converted to PNG and scaled down when a maximum
// edge is configured.
func (s *Session) ArtworkFromFile(path string) (*mp3.Artwork, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artwork: %w", err)
	}
	if err := mp3.ValidateArtwork(data, s.maxArtworkBytes); err != nil {
		return nil, err
	}
	return mp3.NormalizeArtwork(data, s.maxArtworkDim)
}
