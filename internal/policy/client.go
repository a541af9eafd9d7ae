package policy

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/dchrnv/neurograph-core/internal/arbiter"
)

const methodGetPolicy = "/neurograph.policy.v1.PolicyService/GetPolicy"

// #region raw-codec
// rawMessage carries pre-framed protobuf bytes through grpc.
type rawMessage struct {
	data []byte
}

// rawCodec passes rawMessage bytes through untouched. Name reports "proto"
// so the frames stay wire-compatible with standard protobuf servers.
type rawCodec struct{}

func (rawCodec) Marshal(v interface{}) ([]byte, error) {
	m, ok := v.(*rawMessage)
	if !ok {
		return nil, fmt.Errorf("rawCodec: unexpected type %T", v)
	}
	return m.data, nil
}

func (rawCodec) Unmarshal(data []byte, v interface{}) error {
	m, ok := v.(*rawMessage)
	if !ok {
		return fmt.Errorf("rawCodec: unexpected type %T", v)
	}
	m.data = append([]byte(nil), data...)
	return nil
}

func (rawCodec) Name() string { return "proto" }

// #endregion raw-codec

// #region client
// Client implements arbiter.PolicyProvider over the PolicyService gRPC API.
type Client struct {
	cc   grpc.ClientConnInterface
	conn *grpc.ClientConn
}

// NewClient connects to the policy service.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{cc: conn, conn: conn}, nil
}

// NewClientWithConn creates a Client over an injected connection.
// Used for testing without a real gRPC transport.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion client

// #region get-policy
// GetPolicy asks the reasoning subsystem for an action distribution over the
// state. Timeouts are the caller's responsibility via ctx.
func (c *Client) GetPolicy(ctx context.Context, state []float32) (arbiter.ActionDistribution, error) {
	req := rawMessage{data: encodePolicyRequest(state)}
	var resp rawMessage
	if err := c.cc.Invoke(ctx, methodGetPolicy, &req, &resp, grpc.ForceCodec(rawCodec{})); err != nil {
		return arbiter.ActionDistribution{}, fmt.Errorf("get policy rpc: %w", err)
	}
	weights, err := decodePolicyResponse(resp.data)
	if err != nil {
		return arbiter.ActionDistribution{}, err
	}
	return arbiter.ActionDistribution{Weights: weights}, nil
}

// #endregion get-policy
