package policy

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Hand-rolled framing for proto/policy/v1/policy.proto. The messages are two
// packed repeated scalars, small enough that protowire is simpler to own
// than generated stubs.

// #region encode
// encodePolicyRequest marshals PolicyRequest{state_vector = 1}.
func encodePolicyRequest(state []float32) []byte {
	var packed []byte
	for _, v := range state {
		packed = protowire.AppendFixed32(packed, math.Float32bits(v))
	}
	var buf []byte
	buf = protowire.AppendTag(buf, 1, protowire.BytesType)
	buf = protowire.AppendBytes(buf, packed)
	return buf
}

// #endregion encode

// #region decode
// decodePolicyResponse unmarshals PolicyResponse{weights = 1}, accepting
// both packed and unpacked encodings.
func decodePolicyResponse(data []byte) ([]float64, error) {
	var weights []float64
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("policy response: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == 1 && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("policy response weights: %w", protowire.ParseError(n))
			}
			data = data[n:]
			for len(packed) > 0 {
				bits, n := protowire.ConsumeFixed64(packed)
				if n < 0 {
					return nil, fmt.Errorf("policy response weight: %w", protowire.ParseError(n))
				}
				packed = packed[n:]
				weights = append(weights, math.Float64frombits(bits))
			}
		case num == 1 && typ == protowire.Fixed64Type:
			bits, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return nil, fmt.Errorf("policy response weight: %w", protowire.ParseError(n))
			}
			data = data[n:]
			weights = append(weights, math.Float64frombits(bits))
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("policy response field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return weights, nil
}

// #endregion decode
