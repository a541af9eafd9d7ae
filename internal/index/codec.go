package index

import (
	"strconv"
	"strings"

	"github.com/dchrnv/neurograph-core/internal/connection"
)

// #region vector-codec
// VectorCodec quantizes state vectors into lookup keys and converts between
// raw action vectors and the compressed targets stored on connections.
// Values are clamped to [-1, 1] before quantization, so the int8 range
// covers the whole action space.
type VectorCodec struct {
	// Quantum is the grid step for state keys. Two states within the same
	// grid cell produce the same key.
	Quantum float32
}

// DefaultCodec returns the codec the runtime boots with.
func DefaultCodec() VectorCodec {
	return VectorCodec{Quantum: 0.25}
}

// #endregion vector-codec

// #region state-key
// StateKey produces a deterministic key for a state vector by snapping every
// component to the quantization grid.
func (vc VectorCodec) StateKey(state []float32) string {
	q := vc.Quantum
	if q <= 0 {
		q = 0.25
	}
	var b strings.Builder
	b.Grow(len(state) * 4)
	for i, v := range state {
		if i > 0 {
			b.WriteByte(':')
		}
		cell := int64(v / q)
		b.WriteString(strconv.FormatInt(cell, 10))
	}
	return b.String()
}

// #endregion state-key

// #region target
// CompressTarget packs an action vector into a connection target.
// Components beyond TargetSize are dropped.
func (vc VectorCodec) CompressTarget(action []float32) connection.Target {
	var t connection.Target
	for i := 0; i < len(action) && i < connection.TargetSize; i++ {
		v := action[i]
		if v > 1 {
			v = 1
		}
		if v < -1 {
			v = -1
		}
		t[i] = int8(v * 127)
	}
	return t
}

// DecompressTarget unpacks a stored target back into an action vector.
func (vc VectorCodec) DecompressTarget(t connection.Target) []float32 {
	out := make([]float32, connection.TargetSize)
	for i, v := range t {
		out[i] = float32(v) / 127
	}
	return out
}

// #endregion target
