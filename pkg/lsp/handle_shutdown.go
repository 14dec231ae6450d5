package lsp

import (
	"context"

	"github.com/creachadair/jrpc2"
)

func (h *Handler) handleShutdown(ctx context.Context, req *jrpc2.Request) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shutdown = true
	clear(h.files)
	return nil, nil
}

func (h *Handler) handleExit(ctx context.Context, req *jrpc2.Request) (any, error) {
	h.mu.Lock()
	clean := h.shutdown
	h.mu.Unlock()
	if !clean {
		h.logger.WarnContext(ctx, "exit without shutdown")
	}
	if h.srv != nil {
		// stopping waits for in-flight handlers, including this one
		go h.srv.Stop()
	}
	return nil, nil
}
