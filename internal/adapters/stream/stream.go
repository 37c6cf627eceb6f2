// Package stream reads labeled instances from files and generators.
//
// Files are line oriented: CSV (or TSV) and JSON lines, optionally gzip
// compressed. A Decoder turns one line into an instance so that the same
// parsing serves both whole-file reads here and follow mode in the tailer
// adapter.
package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

var (
	// ErrMalformed marks a line that could not be decoded. Readers stay
	// usable after returning it; callers may skip the line and continue.
	ErrMalformed = errors.New("malformed instance")
	// ErrLayout means the column options do not fit the stream. Unlike
	// ErrMalformed it is permanent: every later line fails the same way.
	ErrLayout = errors.New("stream layout does not match options")
	// ErrUnknownFormat is returned when no decoder matches a file.
	ErrUnknownFormat = errors.New("unknown stream format")
)

// MaxLineBytes caps a single line; longer lines are reported malformed.
const MaxLineBytes = 1 << 20

// Format names accepted in Options.Format.
const (
	FormatCSV   = "csv"
	FormatTSV   = "tsv"
	FormatJSONL = "jsonl"
)

// Decoder parses one line. It returns (nil, nil) for lines that carry no
// instance, such as headers, blanks and comments.
type Decoder interface {
	Decode(line []byte) (*ports.Instance, error)
}

// Options control decoding.
type Options struct {
	// Format forces a decoder; empty picks one from the file extension.
	Format string

	// CSV only. Columns are 1-based; LabelColumn 0 means the last column
	// and WeightColumn 0 means every instance has weight 1.
	LabelColumn  int
	LabelName    string // header name of the label column, overrides LabelColumn
	WeightColumn int
	Delimiter    rune // default ',' (tab for .tsv)
	Header       HeaderMode
}

// NewDecoder returns the decoder for format, or for the extension of path
// when format is empty. A trailing .gz is ignored.
func NewDecoder(path string, opts Options) (Decoder, error) {
	format := opts.Format
	if format == "" {
		ext := strings.ToLower(filepath.Ext(strings.TrimSuffix(path, ".gz")))
		format = strings.TrimPrefix(ext, ".")
	}
	switch format {
	case FormatCSV, "txt":
		return NewCSVDecoder(opts), nil
	case FormatTSV:
		if opts.Delimiter == 0 {
			opts.Delimiter = '\t'
		}
		return NewCSVDecoder(opts), nil
	case FormatJSONL, "ndjson", "json":
		return NewJSONLDecoder(), nil
	default:
		return nil, fmt.Errorf("%w: %q (path %s)", ErrUnknownFormat, format, path)
	}
}

// Open returns a source reading path to the end. Files ending in .gz are
// decompressed on the fly.
func Open(path string, opts Options) (ports.Source, error) {
	dec, err := NewDecoder(path, opts)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	closers := []io.Closer{f}
	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip stream %s: %w", path, err)
		}
		r = gz
		closers = append([]io.Closer{gz}, closers...)
	}
	return NewReader(r, dec, closers...), nil
}

// Reader is a Source over any line-oriented reader.
type Reader struct {
	r       *bufio.Reader
	dec     Decoder
	closers []io.Closer
	line    int
	closed  bool
}

// NewReader wraps r. closers are closed, in order, by Close.
func NewReader(r io.Reader, dec Decoder, closers ...io.Closer) *Reader {
	return &Reader{
		r:       bufio.NewReaderSize(r, 256*1024),
		dec:     dec,
		closers: closers,
	}
}

// Next returns the next instance, io.EOF at the end, or an error wrapping
// ErrMalformed for a bad line. Reading may continue after ErrMalformed.
func (s *Reader) Next(ctx context.Context) (*ports.Instance, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, err := s.r.ReadBytes('\n')
		if len(line) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("read stream: %w", err)
		}
		s.line++
		line = TrimNewline(line)
		if len(line) > MaxLineBytes {
			return nil, fmt.Errorf("line %d: %w: %d bytes", s.line, ErrMalformed, len(line))
		}
		inst, derr := s.dec.Decode(line)
		if derr != nil {
			return nil, fmt.Errorf("line %d: %w", s.line, derr)
		}
		if inst != nil {
			return inst, nil
		}
		if err != nil {
			return nil, io.EOF
		}
	}
}

// Line returns the number of lines consumed so far.
func (s *Reader) Line() int { return s.line }

// Close closes the underlying readers. Safe to call twice.
func (s *Reader) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TrimNewline removes a trailing \n or \r\n.
func TrimNewline(line []byte) []byte {
	if len(line) > 0 && line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
	}
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return line
}
