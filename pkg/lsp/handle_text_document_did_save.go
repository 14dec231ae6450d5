package lsp

import (
	"context"

	"github.com/creachadair/jrpc2"
)

func (h *Handler) handleTextDocumentDidSave(ctx context.Context, req *jrpc2.Request) (any, error) {
	if !req.HasParams() {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "missing parameters")
	}

	var params DidSaveTextDocumentParams
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}

	f, open := h.File(params.TextDocument.URI)
	switch {
	case params.Text != nil:
		version := 0
		if open {
			version = f.Version
		}
		return nil, h.updateFile(ctx, params.TextDocument.URI, "", *params.Text, version)
	case open:
		return nil, h.updateFile(ctx, f.URI, f.LanguageID, f.Text, f.Version)
	default:
		return nil, nil
	}
}
