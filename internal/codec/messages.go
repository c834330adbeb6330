package codec

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/orchestrator"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/resolver"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/trace"
)

// #region capabilities
// Capabilities is what the answer service reports it can do.
type Capabilities struct {
	Clarification bool
	Grounding     bool
}

func decodeCapabilities(s *structpb.Struct) Capabilities {
	f := s.GetFields()
	return Capabilities{
		Clarification: f["clarification"].GetBoolValue(),
		Grounding:     f["grounding"].GetBoolValue(),
	}
}
// #endregion capabilities

// #region encode
// encodeRequest flattens a route request into a Struct. Options are sent only
// for clarification calls.
func encodeRequest(req orchestrator.RouteRequest, withOptions bool) (*structpb.Struct, error) {
	m := map[string]any{
		"input":             req.Input,
		"session_id":        req.SessionID,
		"current_workspace": req.CurrentWorkspace,
		"now_ms":            float64(req.NowMs),
		"workspaces":        catalogList(req.Workspaces),
		"panels":            catalogList(req.Panels),
	}

	widgets := make([]any, len(req.Snapshot.OpenWidgets))
	for i, w := range req.Snapshot.OpenWidgets {
		widgets[i] = map[string]any{"id": w.ID, "label": w.Label, "kind": w.Kind}
	}
	m["widgets"] = widgets
	if req.Snapshot.ActiveSnapshotWidgetID != "" {
		m["active_widget_id"] = req.Snapshot.ActiveSnapshotWidgetID
	}

	if withOptions {
		opts := make([]any, len(req.Options))
		for i, o := range req.Options {
			opts[i] = map[string]any{"id": o.ID, "label": o.Label, "kind": o.Kind}
		}
		m["options"] = opts
	}

	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return s, nil
}

func catalogList(entries []resolver.CatalogEntry) []any {
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = map[string]any{"id": e.ID, "name": e.Name}
	}
	return out
}
// #endregion encode

// #region decode
// decodeResult reads a fallback reply. A missing option_index decodes to -1
// so it never selects the first option by accident.
func decodeResult(s *structpb.Struct) orchestrator.FallbackResult {
	f := s.GetFields()
	res := orchestrator.FallbackResult{
		Success: f["success"].GetBoolValue(),
		Message: f["message"].GetStringValue(),
	}

	in := f["intent"].GetStructValue().GetFields()
	if in == nil {
		return res
	}
	res.Intent = resolver.Intent{
		Kind:        resolver.IntentKind(in["kind"].GetStringValue()),
		Answer:      in["answer"].GetStringValue(),
		OptionIndex: -1,
	}
	if v, ok := in["option_index"]; ok {
		if _, isNum := v.GetKind().(*structpb.Value_NumberValue); isNum {
			res.Intent.OptionIndex = int(v.GetNumberValue())
		}
	}
	if tf := in["target"].GetStructValue().GetFields(); tf != nil {
		res.Intent.Target = trace.Target{
			Kind: tf["kind"].GetStringValue(),
			ID:   tf["id"].GetStringValue(),
			Name: tf["name"].GetStringValue(),
		}
	}
	return res
}
// #endregion decode
