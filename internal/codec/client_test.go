package codec

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/clarify"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/orchestrator"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/resolver"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/snapshot"
)

// #region mock
// fakeConn is a grpc.ClientConnInterface that answers from a method table.
type fakeConn struct {
	replies map[string]map[string]any
	err     error
	calls   []string
	last    *structpb.Struct
}

func (f *fakeConn) Invoke(_ context.Context, method string, args, reply any, _ ...grpc.CallOption) error {
	f.calls = append(f.calls, method)
	f.last = args.(*structpb.Struct)
	if f.err != nil {
		return f.err
	}
	resp, err := structpb.NewStruct(f.replies[method])
	if err != nil {
		return err
	}
	proto.Merge(reply.(proto.Message), resp)
	return nil
}

func (f *fakeConn) NewStream(context.Context, *grpc.StreamDesc, string, ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, errors.New("streams not supported")
}

func newFakeClient(f *fakeConn, cfg Config) *CodecClient {
	return NewCodecClientWithService(NewAnswerServiceClient(f), cfg, nil)
}

func routeRequest() orchestrator.RouteRequest {
	return orchestrator.RouteRequest{
		Input:            "the second notes one",
		SessionID:        "s1",
		CurrentWorkspace: "ws-1",
		Workspaces:       []resolver.CatalogEntry{{ID: "ws-1", Name: "Home"}},
		Panels:           []resolver.CatalogEntry{{ID: "p-1", Name: "Notes"}},
		Snapshot: snapshot.TurnSnapshot{
			OpenWidgets:            []snapshot.Widget{{ID: "w1", Label: "Recent", Kind: "list"}},
			ActiveSnapshotWidgetID: "w1",
		},
		Options: []clarify.Option{{ID: "a", Label: "Alpha Notes"}, {ID: "b", Label: "Beta Notes"}},
		NowMs:   1234,
	}
}

// #endregion mock

// #region constructor-tests
func TestNewCodecClientLazyConnect(t *testing.T) {
	client, err := NewCodecClient(Config{Addr: "localhost:0"}, nil)
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestCloseWithoutConn(t *testing.T) {
	c := newFakeClient(&fakeConn{}, DefaultConfig())
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

// #endregion constructor-tests

// #region enablement-tests
func TestEnablement(t *testing.T) {
	tests := []struct {
		name              string
		cfg               Config
		probe             map[string]any
		wantClarification bool
		wantGrounding     bool
	}{
		{"config only", Config{Clarification: true, Grounding: true}, nil, true, true},
		{"config off", Config{Clarification: false, Grounding: true}, nil, false, true},
		{"probe narrows", Config{Clarification: true, Grounding: true},
			map[string]any{"clarification": true, "grounding": false}, true, false},
		{"probe cannot widen", Config{Clarification: false, Grounding: false},
			map[string]any{"clarification": true, "grounding": true}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeConn{replies: map[string]map[string]any{MethodCapabilities: tt.probe}}
			c := newFakeClient(f, tt.cfg)
			if tt.probe != nil {
				if _, err := c.Probe(context.Background()); err != nil {
					t.Fatalf("Probe: %v", err)
				}
			}
			if got := c.ClarificationEnabled(); got != tt.wantClarification {
				t.Errorf("ClarificationEnabled: got %v, want %v", got, tt.wantClarification)
			}
			if got := c.GroundingEnabled(); got != tt.wantGrounding {
				t.Errorf("GroundingEnabled: got %v, want %v", got, tt.wantGrounding)
			}
		})
	}
}

func TestProbe_Error(t *testing.T) {
	c := newFakeClient(&fakeConn{err: errors.New("unavailable")}, DefaultConfig())
	if _, err := c.Probe(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !c.ClarificationEnabled() {
		t.Error("failed probe should leave config gating in place")
	}
}

// #endregion enablement-tests

// #region clarification-tests
func TestResolveClarification_SelectsOption(t *testing.T) {
	f := &fakeConn{replies: map[string]map[string]any{
		MethodClarificationFallback: {
			"success": true,
			"intent":  map[string]any{"kind": "select_option", "option_index": float64(1)},
		},
	}}
	c := newFakeClient(f, DefaultConfig())

	res, err := c.ResolveClarification(context.Background(), routeRequest())
	if err != nil {
		t.Fatalf("ResolveClarification: %v", err)
	}
	if !res.Success {
		t.Fatal("expected success")
	}
	if res.Intent.Kind != resolver.IntentSelectOption || res.Intent.OptionIndex != 1 {
		t.Errorf("got intent %+v, want select_option index 1", res.Intent)
	}
	if len(f.calls) != 1 || f.calls[0] != MethodClarificationFallback {
		t.Errorf("got calls %v", f.calls)
	}

	opts := f.last.GetFields()["options"].GetListValue().GetValues()
	if len(opts) != 2 {
		t.Fatalf("got %d options sent, want 2", len(opts))
	}
	if got := opts[1].GetStructValue().GetFields()["label"].GetStringValue(); got != "Beta Notes" {
		t.Errorf("got option label %q, want %q", got, "Beta Notes")
	}
	if got := f.last.GetFields()["now_ms"].GetNumberValue(); got != 1234 {
		t.Errorf("got now_ms %v, want 1234", got)
	}
}

func TestResolveClarification_MissingIndexNeverSelectsFirst(t *testing.T) {
	f := &fakeConn{replies: map[string]map[string]any{
		MethodClarificationFallback: {
			"success": true,
			"message": "Which notes did you mean?",
			"intent":  map[string]any{"kind": "select_option"},
		},
	}}
	c := newFakeClient(f, DefaultConfig())

	res, err := c.ResolveClarification(context.Background(), routeRequest())
	if err != nil {
		t.Fatalf("ResolveClarification: %v", err)
	}
	if res.Intent.OptionIndex != -1 {
		t.Errorf("got option index %d, want -1", res.Intent.OptionIndex)
	}
	if res.Message != "Which notes did you mean?" {
		t.Errorf("got message %q", res.Message)
	}
}

func TestResolveClarification_RPCError(t *testing.T) {
	c := newFakeClient(&fakeConn{err: errors.New("deadline")}, DefaultConfig())
	if _, err := c.ResolveClarification(context.Background(), routeRequest()); err == nil {
		t.Fatal("expected error")
	}
}

// #endregion clarification-tests

// #region grounding-tests
func TestGround_DecodesTarget(t *testing.T) {
	f := &fakeConn{replies: map[string]map[string]any{
		MethodGroundingFallback: {
			"success": true,
			"intent": map[string]any{
				"kind":   "open_panel",
				"target": map[string]any{"kind": "panel", "id": "p-1", "name": "Notes"},
			},
		},
	}}
	c := newFakeClient(f, DefaultConfig())

	res, err := c.Ground(context.Background(), routeRequest())
	if err != nil {
		t.Fatalf("Ground: %v", err)
	}
	if res.Intent.Kind != resolver.IntentOpenPanel {
		t.Errorf("got kind %q, want %q", res.Intent.Kind, resolver.IntentOpenPanel)
	}
	if res.Intent.Target.ID != "p-1" || res.Intent.Target.Name != "Notes" {
		t.Errorf("got target %+v", res.Intent.Target)
	}
	if _, ok := f.last.GetFields()["options"]; ok {
		t.Error("grounding requests must not carry options")
	}
	widgets := f.last.GetFields()["widgets"].GetListValue().GetValues()
	if len(widgets) != 1 {
		t.Fatalf("got %d widgets sent, want 1", len(widgets))
	}
	if got := f.last.GetFields()["active_widget_id"].GetStringValue(); got != "w1" {
		t.Errorf("got active widget %q, want w1", got)
	}
}

func TestGround_NoIntent(t *testing.T) {
	f := &fakeConn{replies: map[string]map[string]any{
		MethodGroundingFallback: {"success": true, "message": "Notes holds your drafts."},
	}}
	c := newFakeClient(f, DefaultConfig())

	res, err := c.Ground(context.Background(), routeRequest())
	if err != nil {
		t.Fatalf("Ground: %v", err)
	}
	if res.Intent.Kind != "" {
		t.Errorf("got kind %q, want empty", res.Intent.Kind)
	}
	if res.Message != "Notes holds your drafts." {
		t.Errorf("got message %q", res.Message)
	}
}

// #endregion grounding-tests

// #region grpc-roundtrip
type stubService interface {
	handle(method string, in *structpb.Struct) (*structpb.Struct, error)
}

type stubServer struct {
	replies map[string]map[string]any
}

func (s *stubServer) handle(method string, _ *structpb.Struct) (*structpb.Struct, error) {
	return structpb.NewStruct(s.replies[method])
}

func unaryMethod(name string) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, _ context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			return srv.(stubService).handle("/"+ServiceName+"/"+name, in)
		},
	}
}

func TestGRPCRoundTrip(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	srv.RegisterService(&grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*stubService)(nil),
		Methods: []grpc.MethodDesc{
			unaryMethod("Capabilities"),
			unaryMethod("ClarificationFallback"),
			unaryMethod("GroundingFallback"),
		},
	}, &stubServer{replies: map[string]map[string]any{
		MethodCapabilities: {"clarification": false, "grounding": true},
		MethodGroundingFallback: {
			"success": true,
			"intent":  map[string]any{"kind": "navigate_workspace", "target": map[string]any{"kind": "workspace", "id": "ws-2"}},
		},
	}})
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	c := NewCodecClientWithService(NewAnswerServiceClient(conn), Config{Timeout: 5 * time.Second, Clarification: true, Grounding: true}, nil)

	caps, err := c.Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if caps.Clarification || !caps.Grounding {
		t.Errorf("got caps %+v", caps)
	}
	if c.ClarificationEnabled() {
		t.Error("service without clarification support must disable it")
	}

	res, err := c.Ground(context.Background(), routeRequest())
	if err != nil {
		t.Fatalf("Ground: %v", err)
	}
	if res.Intent.Kind != resolver.IntentNavigateWorkspace || res.Intent.Target.ID != "ws-2" {
		t.Errorf("got intent %+v", res.Intent)
	}
}

// #endregion grpc-roundtrip
