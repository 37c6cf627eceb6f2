package stream

import (
	"bytes"
	"fmt"
	"math"

	"github.com/tidwall/gjson"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

// JSONLDecoder decodes one JSON object per line:
//
//	{"x": [5.1, 3.5, "red", null], "y": 1, "w": 0.5}
//
// y may be a non-negative integer class index or a string label; w is
// optional and defaults to 1. String features are mapped per position and
// null means missing.
type JSONLDecoder struct {
	labels     *Labels
	nominals   map[int]*Labels
	numClasses int
}

func NewJSONLDecoder() *JSONLDecoder {
	return &JSONLDecoder{labels: NewLabels(), nominals: make(map[int]*Labels)}
}

// Labels returns the mapping of string labels.
func (d *JSONLDecoder) Labels() *Labels { return d.labels }

func (d *JSONLDecoder) Decode(line []byte) (*ports.Instance, error) {
	if len(bytes.TrimSpace(line)) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(line) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}

	x := gjson.GetBytes(line, "x")
	if !x.IsArray() {
		return nil, fmt.Errorf("%w: \"x\" must be an array", ErrMalformed)
	}
	inst := &ports.Instance{Weight: 1}
	var ferr error
	x.ForEach(func(k, v gjson.Result) bool {
		i := len(inst.Features)
		switch v.Type {
		case gjson.Number:
			inst.Features = append(inst.Features, v.Float())
		case gjson.Null:
			inst.Features = append(inst.Features, math.NaN())
		case gjson.String:
			m, ok := d.nominals[i]
			if !ok {
				m = NewLabels()
				d.nominals[i] = m
			}
			inst.Features = append(inst.Features, float64(m.Index(v.String())))
		default:
			ferr = fmt.Errorf("%w: feature %d has type %s", ErrMalformed, i, v.Type)
			return false
		}
		return true
	})
	if ferr != nil {
		return nil, ferr
	}

	y := gjson.GetBytes(line, "y")
	switch y.Type {
	case gjson.Number:
		f := y.Float()
		if f < 0 || f != math.Trunc(f) {
			return nil, fmt.Errorf("%w: label %v is not a class index", ErrMalformed, f)
		}
		inst.Label = int(f)
	case gjson.String:
		inst.Label = d.labels.Index(y.String())
	default:
		return nil, fmt.Errorf("%w: missing label", ErrMalformed)
	}

	if w := gjson.GetBytes(line, "w"); w.Exists() {
		if w.Type != gjson.Number || w.Float() < 0 {
			return nil, fmt.Errorf("%w: weight %s", ErrMalformed, w.Raw)
		}
		inst.Weight = w.Float()
	}

	if inst.Label+1 > d.numClasses {
		d.numClasses = inst.Label + 1
	}
	if n := d.labels.Len(); n > d.numClasses {
		d.numClasses = n
	}
	inst.NumClasses = d.numClasses
	return inst, nil
}
