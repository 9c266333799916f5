// Package corpus turns files on disk into signed documents and compares them
// pairwise.
package corpus

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/src-d/enry/v2"
)

// StdinName is the source name given to text read from standard input.
const StdinName = "-"

var (
	// ErrNoInputs is returned when Collect finds nothing to sketch.
	ErrNoInputs = errors.New("corpus: no input documents")

	// ErrTooLarge is returned for a document above Options.MaxBytes.
	ErrTooLarge = errors.New("corpus: document too large")

	// ErrBinary is returned for a document that does not look like text.
	ErrBinary = errors.New("corpus: binary document")
)

// Input is one document to be sketched.
type Input struct {
	Source string
	Text   string
}

// Options controls how Collect expands and filters paths.
type Options struct {
	// MaxBytes rejects documents larger than this. Zero means no limit.
	MaxBytes int64

	// SkipVendor drops vendored paths (vendor/, node_modules/, ...) found while walking directories.
	SkipVendor bool

	// SkipDotFiles drops dotfiles and dot-directories found while walking directories.
	SkipDotFiles bool

	// Logger receives debug records for skipped files. Nil discards them.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}

	return slog.New(slog.DiscardHandler)
}

// Collect expands paths into documents. Files named explicitly are always
// read and fail the call when binary or oversized; files found by walking a
// directory are filtered and silently skipped instead.
func Collect(paths []string, opts Options) ([]Input, error) {
	var inputs []Input

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}

		if !info.IsDir() {
			in, readErr := readFile(root, info.Size(), opts.MaxBytes)
			if readErr != nil {
				return nil, readErr
			}

			inputs = append(inputs, in)

			continue
		}

		walked, err := walkDir(root, opts)
		if err != nil {
			return nil, err
		}

		inputs = append(inputs, walked...)
	}

	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}

	return inputs, nil
}

func walkDir(root string, opts Options) ([]Input, error) {
	var inputs []Input

	logger := opts.logger()

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if path != root && skipped(root, path, entry.IsDir(), opts) {
			logger.Debug("skipping filtered path", "path", path)

			if entry.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if !entry.Type().IsRegular() {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		in, err := readFile(path, info.Size(), opts.MaxBytes)

		switch {
		case errors.Is(err, ErrBinary), errors.Is(err, ErrTooLarge):
			logger.Debug("skipping file", "path", path, "reason", err)

			return nil
		case err != nil:
			return err
		}

		inputs = append(inputs, in)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	return inputs, nil
}

func skipped(root, path string, isDir bool, opts Options) bool {
	if opts.SkipDotFiles && enry.IsDotFile(path) {
		return true
	}

	if !opts.SkipVendor {
		return false
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}

	rel = filepath.ToSlash(rel)
	if isDir {
		// Vendor patterns match directory prefixes such as "vendor/".
		rel += "/"
	}

	return enry.IsVendor(rel)
}

func readFile(path string, size, maxBytes int64) (Input, error) {
	if maxBytes > 0 && size > maxBytes {
		return Input{}, fmt.Errorf("%w: %s is %s, limit %s", ErrTooLarge, path,
			humanize.IBytes(uint64(size)), humanize.IBytes(uint64(maxBytes)))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Input{}, fmt.Errorf("read %s: %w", path, err)
	}

	if enry.IsBinary(data) {
		return Input{}, fmt.Errorf("%w: %s", ErrBinary, path)
	}

	return Input{Source: path, Text: string(data)}, nil
}

// ReadInput reads a whole document from r, enforcing maxBytes when positive.
func ReadInput(source string, r io.Reader, maxBytes int64) (Input, error) {
	reader := r
	if maxBytes > 0 {
		reader = io.LimitReader(r, maxBytes+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return Input{}, fmt.Errorf("read %s: %w", source, err)
	}

	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return Input{}, fmt.Errorf("%w: %s exceeds %s", ErrTooLarge, source, humanize.IBytes(uint64(maxBytes)))
	}

	if enry.IsBinary(data) {
		return Input{}, fmt.Errorf("%w: %s", ErrBinary, source)
	}

	return Input{Source: source, Text: string(data)}, nil
}
