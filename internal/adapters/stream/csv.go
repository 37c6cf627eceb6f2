package stream

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

// HeaderMode says whether the first CSV row names the columns.
type HeaderMode int

const (
	// HeaderAuto treats the first row as a header when none of its fields
	// is numeric.
	HeaderAuto HeaderMode = iota
	HeaderPresent
	HeaderAbsent
)

// CSVDecoder decodes delimited rows. Non-numeric feature values are mapped
// per column to indexes in first-seen order; "?" and empty fields are
// missing values (NaN). Class labels are always mapped the same way.
type CSVDecoder struct {
	opts     Options
	started  bool
	width    int
	label    int // 0-based, resolved on the first row
	weight   int // 0-based, -1 when absent
	header   []string
	labels   *Labels
	nominals map[int]*Labels
	layout   error // set when the first row could not be resolved
}

// NewCSVDecoder creates a decoder. See Options for column conventions.
func NewCSVDecoder(opts Options) *CSVDecoder {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	return &CSVDecoder{
		opts:     opts,
		labels:   NewLabels(),
		nominals: make(map[int]*Labels),
	}
}

// Labels returns the class label mapping.
func (d *CSVDecoder) Labels() *Labels { return d.labels }

// Header returns the column names, nil when the stream had no header.
func (d *CSVDecoder) Header() []string { return d.header }

func (d *CSVDecoder) Decode(line []byte) (*ports.Instance, error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 || trimmed[0] == '#' {
		return nil, nil
	}
	r := csv.NewReader(bytes.NewReader(line))
	r.Comma = d.opts.Delimiter
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	fields, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if d.layout != nil {
		return nil, d.layout
	}
	if !d.started {
		d.started = true
		header := d.isHeader(fields)
		if header {
			d.header = fields
		}
		if err := d.resolve(len(fields)); err != nil {
			d.layout = err
			return nil, err
		}
		if header {
			return nil, nil
		}
	}
	if len(fields) != d.width {
		return nil, fmt.Errorf("%w: %d fields, expected %d", ErrMalformed, len(fields), d.width)
	}

	inst := &ports.Instance{Weight: 1}
	nf := d.width - 1
	if d.weight >= 0 {
		nf--
	}
	inst.Features = make([]float64, 0, nf)
	for i, f := range fields {
		f = strings.TrimSpace(f)
		switch i {
		case d.label:
			if f == "" || f == "?" {
				return nil, fmt.Errorf("%w: missing label", ErrMalformed)
			}
			inst.Label = d.labels.Index(f)
		case d.weight:
			w, err := strconv.ParseFloat(f, 64)
			if err != nil || w < 0 || math.IsNaN(w) {
				return nil, fmt.Errorf("%w: weight %q", ErrMalformed, f)
			}
			inst.Weight = w
		default:
			inst.Features = append(inst.Features, d.feature(i, f))
		}
	}
	inst.NumClasses = d.labels.Len()
	return inst, nil
}

func (d *CSVDecoder) feature(col int, f string) float64 {
	if f == "" || f == "?" {
		return math.NaN()
	}
	if v, err := strconv.ParseFloat(f, 64); err == nil {
		return v
	}
	m, ok := d.nominals[col]
	if !ok {
		m = NewLabels()
		d.nominals[col] = m
	}
	return float64(m.Index(f))
}

func (d *CSVDecoder) isHeader(fields []string) bool {
	switch d.opts.Header {
	case HeaderPresent:
		return true
	case HeaderAbsent:
		return false
	}
	for _, f := range fields {
		if _, err := strconv.ParseFloat(strings.TrimSpace(f), 64); err == nil {
			return false
		}
	}
	return true
}

// resolve fixes the row width and the label and weight column indexes.
func (d *CSVDecoder) resolve(width int) error {
	d.width = width
	d.weight = -1
	minWidth := 2
	if d.opts.WeightColumn > 0 {
		minWidth = 3
	}
	if width < minWidth {
		return fmt.Errorf("%w: %d columns, need at least %d", ErrLayout, width, minWidth)
	}

	d.label = width - 1
	if d.opts.LabelColumn > 0 {
		d.label = d.opts.LabelColumn - 1
	}
	if d.opts.LabelName != "" {
		found := false
		for i, h := range d.header {
			if strings.TrimSpace(h) == d.opts.LabelName {
				d.label, found = i, true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: label column %q not in header", ErrLayout, d.opts.LabelName)
		}
	}
	if d.opts.WeightColumn > 0 {
		d.weight = d.opts.WeightColumn - 1
	}
	if d.label >= width || d.weight >= width || d.label == d.weight {
		return fmt.Errorf("%w: label column %d / weight column %d out of %d", ErrLayout, d.label+1, d.weight+1, width)
	}
	return nil
}
