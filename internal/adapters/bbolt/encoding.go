// Binary encoding for learning-curve blobs.
//
// A curve is a version byte followed by a zstd frame holding fixed-size
// little-endian points:
//
//	version:    uint8 (1)
//	pointCount: uint32
//	per point:
//	  Instances:      uint64
//	  Accuracy:       float64 bits
//	  WindowAccuracy: float64 bits
//	  FrontSize:      uint32
package bbolt

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

const (
	curveVersion = 1
	// pointSize is the byte size of a single encoded CurvePoint.
	pointSize = 8 + 8 + 8 + 4
)

// Encoder and decoder are safe for concurrent EncodeAll/DecodeAll.
var (
	zenc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zdec, _ = zstd.NewReader(nil)
)

func encodeCurve(points []ports.CurvePoint) []byte {
	buf := make([]byte, 4+len(points)*pointSize)
	binary.LittleEndian.PutUint32(buf, uint32(len(points)))
	off := 4
	for _, p := range points {
		binary.LittleEndian.PutUint64(buf[off:], p.Instances)
		binary.LittleEndian.PutUint64(buf[off+8:], math.Float64bits(p.Accuracy))
		binary.LittleEndian.PutUint64(buf[off+16:], math.Float64bits(p.WindowAccuracy))
		binary.LittleEndian.PutUint32(buf[off+24:], uint32(p.FrontSize))
		off += pointSize
	}
	return zenc.EncodeAll(buf, []byte{curveVersion})
}

func decodeCurve(data []byte) ([]ports.CurvePoint, error) {
	if len(data) == 0 || data[0] != curveVersion {
		return nil, fmt.Errorf("unsupported curve encoding")
	}
	buf, err := zdec.DecodeAll(data[1:], nil)
	if err != nil {
		return nil, err
	}
	if len(buf) < 4 {
		return nil, fmt.Errorf("curve header truncated")
	}
	n := int(binary.LittleEndian.Uint32(buf))
	if len(buf) != 4+n*pointSize {
		return nil, fmt.Errorf("curve length %d does not match %d points", len(buf), n)
	}
	points := make([]ports.CurvePoint, n)
	off := 4
	for i := range points {
		points[i] = ports.CurvePoint{
			Instances:      binary.LittleEndian.Uint64(buf[off:]),
			Accuracy:       math.Float64frombits(binary.LittleEndian.Uint64(buf[off+8:])),
			WindowAccuracy: math.Float64frombits(binary.LittleEndian.Uint64(buf[off+16:])),
			FrontSize:      int(binary.LittleEndian.Uint32(buf[off+24:])),
		}
		off += pointSize
	}
	return points, nil
}
