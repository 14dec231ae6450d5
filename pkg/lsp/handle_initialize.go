package lsp

import (
	"context"
	"path/filepath"

	"github.com/creachadair/jrpc2"
)

func (h *Handler) handleInitialize(ctx context.Context, req *jrpc2.Request) (any, error) {
	if !req.HasParams() {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "missing parameters")
	}

	var params InitializeParams
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}

	var root string
	if params.RootURI != "" {
		rootPath, err := fromURI(params.RootURI)
		if err != nil {
			return nil, err
		}
		root = filepath.Clean(rootPath)
	}
	if err := h.configure(ctx, root); err != nil {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "load config: %v", err)
	}

	return InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: TextDocumentSyncOptions{
				OpenClose: true,
				Change:    TDSKFull,
				Save:      &SaveOptions{IncludeText: true},
			},
			HoverProvider: true,
		},
		ServerInfo: &ServerInfo{
			Name:    DiagnosticSource,
			Version: h.version,
		},
	}, nil
}

func (h *Handler) handleInitialized(ctx context.Context, req *jrpc2.Request) (any, error) {
	h.logger.InfoContext(ctx, "client initialized", "root", h.rootPath)
	return nil, nil
}
