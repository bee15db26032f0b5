package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/variantforge/internal/catalog"
	"github.com/roach88/variantforge/internal/document"
	"github.com/roach88/variantforge/internal/engine"
	"github.com/roach88/variantforge/internal/logger"
)

// Submitter queues generation requests. *engine.Runner implements it.
type Submitter interface {
	Submit(req engine.Request) bool
}

// Handler routes inbound messages independently of the transport.
type Handler struct {
	host    document.Host
	catalog *catalog.Catalog
	runner  Submitter
	log     *zap.Logger
}

// NewHandler creates a handler.
func NewHandler(host document.Host, cat *catalog.Catalog, runner Submitter, log *zap.Logger) *Handler {
	return &Handler{host: host, catalog: cat, runner: runner, log: logger.OrNop(log)}
}

// Handle processes one raw message and returns the immediate reply, or nil
// when the message has none. Completion of gen-dummy is signalled later
// through the engine's notifier.
func (h *Handler) Handle(ctx context.Context, data []byte) any {
	var msg Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		h.log.Warn("malformed message", zap.Error(err))
		return nil
	}
	h.log.Debug("message", zap.String(logger.FieldMessage, msg.Type))

	switch msg.Type {
	case TypeGetComponentSet:
		return h.componentSet(ctx)
	case TypeGenDummy:
		return h.genDummy(msg)
	case TypeNavigate:
		return h.navigate(ctx, msg.NodeID)
	default:
		h.log.Debug("unknown message type", zap.String(logger.FieldMessage, msg.Type))
		return nil
	}
}

func (h *Handler) componentSet(ctx context.Context) any {
	summaries, err := h.catalog.Discover(ctx, h.host)
	if err != nil {
		h.log.Error("discover components", zap.Error(err))
		return notify("Could not read the component list.")
	}
	return ComponentSetData{Type: TypeComponentSetData, Data: summaries}
}

func (h *Handler) genDummy(msg Inbound) any {
	if msg.NodeID == "" {
		return notify("gen-dummy requires a nodeId.")
	}
	if msg.TextDummy < 0 {
		return notify(fmt.Sprintf("textDummy must be >= 0, got %d.", msg.TextDummy))
	}
	if !h.runner.Submit(engine.Request{ComponentID: msg.NodeID, TextSamples: msg.TextDummy}) {
		return notify("The generator is shutting down.")
	}
	return nil
}

func (h *Handler) navigate(ctx context.Context, id document.NodeID) any {
	nav, ok := h.host.(document.Navigator)
	if !ok {
		h.log.Debug("host cannot navigate")
		return nil
	}
	if err := nav.Focus(ctx, id); err != nil {
		h.log.Warn("navigate", zap.String(logger.FieldComponent, string(id)), zap.Error(err))
		return notify(fmt.Sprintf("Node %s no longer exists.", id))
	}
	return nil
}
