package policy

import (
	"context"
	"errors"
	"math"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protowire"
)

// #region fake-conn

// fakeConn implements grpc.ClientConnInterface and replays a canned response.
type fakeConn struct {
	method   string
	request  []byte
	response []byte
	err      error
}

func (f *fakeConn) Invoke(ctx context.Context, method string, args, reply interface{}, opts ...grpc.CallOption) error {
	f.method = method
	req, ok := args.(*rawMessage)
	if !ok {
		return errors.New("unexpected request type")
	}
	f.request = append([]byte(nil), req.data...)
	if f.err != nil {
		return f.err
	}
	resp, ok := reply.(*rawMessage)
	if !ok {
		return errors.New("unexpected reply type")
	}
	resp.data = append([]byte(nil), f.response...)
	return nil
}

func (f *fakeConn) NewStream(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, errors.New("streams unused")
}

// #endregion fake-conn

func packedDoubles(weights []float64) []byte {
	var packed []byte
	for _, w := range weights {
		packed = protowire.AppendFixed64(packed, math.Float64bits(w))
	}
	var buf []byte
	buf = protowire.AppendTag(buf, 1, protowire.BytesType)
	buf = protowire.AppendBytes(buf, packed)
	return buf
}

func TestGetPolicyRoundTrip(t *testing.T) {
	want := []float64{0.7, 0.2, 0.1}
	fake := &fakeConn{response: packedDoubles(want)}
	c := NewClientWithConn(fake)

	dist, err := c.GetPolicy(context.Background(), []float32{0.5, -0.25})
	if err != nil {
		t.Fatalf("GetPolicy: %v", err)
	}
	if len(dist.Weights) != 3 {
		t.Fatalf("weights = %v, want 3 entries", dist.Weights)
	}
	for i, w := range dist.Weights {
		if w != want[i] {
			t.Fatalf("weight[%d] = %v, want %v", i, w, want[i])
		}
	}
	if fake.method != "/neurograph.policy.v1.PolicyService/GetPolicy" {
		t.Fatalf("invoked method %q", fake.method)
	}
}

func TestGetPolicyRequestFraming(t *testing.T) {
	fake := &fakeConn{response: packedDoubles([]float64{1})}
	c := NewClientWithConn(fake)

	state := []float32{0.5, -0.25, 1.0}
	if _, err := c.GetPolicy(context.Background(), state); err != nil {
		t.Fatalf("GetPolicy: %v", err)
	}

	// The request is one packed repeated float field, number 1.
	data := fake.request
	num, typ, n := protowire.ConsumeTag(data)
	if n < 0 || num != 1 || typ != protowire.BytesType {
		t.Fatalf("request tag = field %d wire type %d", num, typ)
	}
	packed, n := protowire.ConsumeBytes(data[n:])
	if n < 0 {
		t.Fatal("request body not length-delimited")
	}
	var got []float32
	for len(packed) > 0 {
		bits, n := protowire.ConsumeFixed32(packed)
		if n < 0 {
			t.Fatal("request float not fixed32")
		}
		packed = packed[n:]
		got = append(got, math.Float32frombits(bits))
	}
	if len(got) != len(state) {
		t.Fatalf("decoded %d floats, want %d", len(got), len(state))
	}
	for i, v := range got {
		if v != state[i] {
			t.Fatalf("state[%d] = %v, want %v", i, v, state[i])
		}
	}
}

func TestGetPolicyRPCError(t *testing.T) {
	fake := &fakeConn{err: errors.New("unavailable")}
	c := NewClientWithConn(fake)

	if _, err := c.GetPolicy(context.Background(), []float32{0.1}); err == nil {
		t.Fatal("rpc error swallowed")
	}
}

func TestDecodeUnpackedDoubles(t *testing.T) {
	var buf []byte
	buf = protowire.AppendTag(buf, 1, protowire.Fixed64Type)
	buf = protowire.AppendFixed64(buf, math.Float64bits(0.25))
	buf = protowire.AppendTag(buf, 1, protowire.Fixed64Type)
	buf = protowire.AppendFixed64(buf, math.Float64bits(0.75))

	weights, err := decodePolicyResponse(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(weights) != 2 || weights[0] != 0.25 || weights[1] != 0.75 {
		t.Fatalf("weights = %v, want [0.25 0.75]", weights)
	}
}

func TestDecodeSkipsUnknownFields(t *testing.T) {
	var buf []byte
	buf = protowire.AppendTag(buf, 7, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 42)
	buf = append(buf, packedDoubles([]float64{0.5})...)

	weights, err := decodePolicyResponse(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(weights) != 1 || weights[0] != 0.5 {
		t.Fatalf("weights = %v, want [0.5]", weights)
	}
}

func TestDecodeEmptyResponse(t *testing.T) {
	weights, err := decodePolicyResponse(nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(weights) != 0 {
		t.Fatalf("weights = %v, want none", weights)
	}
}
