// Package codec is the gRPC client for the external answer service that backs
// the model fallback tier.
package codec

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/orchestrator"
)

// #region config
// Config selects the answer service and which fallbacks may use it.
type Config struct {
	Addr          string        `yaml:"addr"`
	Timeout       time.Duration `yaml:"timeout"`
	Clarification bool          `yaml:"clarification"`
	Grounding     bool          `yaml:"grounding"`
}

// DefaultConfig returns the stock client settings.
func DefaultConfig() Config {
	return Config{
		Addr:          "localhost:50051",
		Timeout:       3 * time.Second,
		Clarification: true,
		Grounding:     true,
	}
}
// #endregion config

// #region client-struct
// CodecClient wraps the gRPC connection to the answer service. It implements
// orchestrator.ClarificationFallback and orchestrator.GroundingFallback.
type CodecClient struct {
	conn   *grpc.ClientConn
	client AnswerServiceClient
	cfg    Config
	log    *zap.Logger

	mu   sync.RWMutex
	caps *Capabilities // nil until Probe succeeds
}
// #endregion client-struct

// #region constructor
// NewCodecClient connects to the answer service. The connection is lazy, so
// an unreachable address surfaces on the first call.
func NewCodecClient(cfg Config, logger *zap.Logger) (*CodecClient, error) {
	conn, err := grpc.NewClient(cfg.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", cfg.Addr, err)
	}
	c := NewCodecClientWithService(NewAnswerServiceClient(conn), cfg, logger)
	c.conn = conn
	return c, nil
}

// NewCodecClientWithService creates a CodecClient with an injected service
// implementation. Used for testing without a real gRPC connection.
func NewCodecClientWithService(svc AnswerServiceClient, cfg Config, logger *zap.Logger) *CodecClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CodecClient{client: svc, cfg: cfg, log: logger.Named("codec")}
}
// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *CodecClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
// #endregion close

// #region probe
// Probe asks the service what it supports and caches the answer. Until a
// probe succeeds only the configured switches gate the fallbacks.
func (c *CodecClient) Probe(ctx context.Context) (Capabilities, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.Capabilities(ctx, &structpb.Struct{})
	if err != nil {
		return Capabilities{}, fmt.Errorf("capabilities rpc: %w", err)
	}
	caps := decodeCapabilities(resp)

	c.mu.Lock()
	c.caps = &caps
	c.mu.Unlock()

	c.log.Info("answer service probed",
		zap.Bool("clarification", caps.Clarification), zap.Bool("grounding", caps.Grounding))
	return caps, nil
}

// ClarificationEnabled reports whether off-menu replies may go to the service.
func (c *CodecClient) ClarificationEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.Clarification && (c.caps == nil || c.caps.Clarification)
}

// GroundingEnabled reports whether free text may go to the service.
func (c *CodecClient) GroundingEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.Grounding && (c.caps == nil || c.caps.Grounding)
}
// #endregion probe

// #region clarification
// ResolveClarification asks the service to map a reply onto the active list.
func (c *CodecClient) ResolveClarification(ctx context.Context, req orchestrator.RouteRequest) (orchestrator.FallbackResult, error) {
	in, err := encodeRequest(req, true)
	if err != nil {
		return orchestrator.FallbackResult{}, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.ClarificationFallback(ctx, in)
	if err != nil {
		return orchestrator.FallbackResult{}, fmt.Errorf("clarification fallback rpc: %w", err)
	}
	res := decodeResult(resp)
	c.log.Debug("clarification fallback",
		zap.Bool("success", res.Success), zap.String("intent", string(res.Intent.Kind)),
		zap.Int("option_index", res.Intent.OptionIndex))
	return res, nil
}
// #endregion clarification

// #region grounding
// Ground asks the service to interpret free text against the visible context.
func (c *CodecClient) Ground(ctx context.Context, req orchestrator.RouteRequest) (orchestrator.FallbackResult, error) {
	in, err := encodeRequest(req, false)
	if err != nil {
		return orchestrator.FallbackResult{}, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.GroundingFallback(ctx, in)
	if err != nil {
		return orchestrator.FallbackResult{}, fmt.Errorf("grounding fallback rpc: %w", err)
	}
	res := decodeResult(resp)
	c.log.Debug("grounding fallback",
		zap.Bool("success", res.Success), zap.String("intent", string(res.Intent.Kind)))
	return res, nil
}
// #endregion grounding

func (c *CodecClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}
