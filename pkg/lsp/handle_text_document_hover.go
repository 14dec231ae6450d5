package lsp

import (
	"context"
	"fmt"

	"github.com/creachadair/jrpc2"
	"github.com/vito/tyck/pkg/hm"
	"github.com/vito/tyck/pkg/tyck"
)

func (h *Handler) handleTextDocumentHover(ctx context.Context, req *jrpc2.Request) (any, error) {
	if !req.HasParams() {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "missing parameters")
	}

	var params HoverParams
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}

	f, ok := h.File(params.TextDocument.URI)
	if !ok || f.Term == nil {
		return nil, nil
	}

	lines := splitLines(f.Text)
	line, col := fromPosition(lines, params.Position)
	term, t := typeAt(f.Term, f.Info, line, col)
	if term == nil {
		return nil, nil
	}

	h.logger.DebugContext(ctx, "hover", "uri", f.URI, "line", line, "column", col, "type", t)

	value := t.String()
	if sym, ok := term.(*tyck.Symbol); ok {
		value = sym.Name + ": " + value
	}
	rng := locRange(lines, term.GetSourceLocation())
	return &Hover{
		Contents: MarkupContent{
			Kind:  "markdown",
			Value: fmt.Sprintf("```typescript\n%s\n```", value),
		},
		Range: &rng,
	}, nil
}

// typeAt finds the innermost typed term under the 1-based position. Binding
// forms are skipped since their span covers the scope they introduce.
func typeAt(root tyck.Term, info *tyck.Info, line, col int) (tyck.Term, hm.Type) {
	var found tyck.Term
	var foundType hm.Type
	root.Walk(func(term tyck.Term) bool {
		switch term.(type) {
		case *tyck.Let, *tyck.FunDecl, *tyck.Sequence:
			return true
		}
		if !term.GetSourceLocation().Contains(line, col) {
			return true
		}
		if t := info.TypeOf(term); t != nil {
			found, foundType = term, t
		}
		return true
	})
	return found, foundType
}
