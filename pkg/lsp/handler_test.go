package lsp

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vito/tyck/pkg/tyck"
)

type testServer struct {
	handler     *Handler
	client      *jrpc2.Client
	diagnostics chan PublishDiagnosticsParams
}

func startServer(t *testing.T, config *tyck.Config) *testServer {
	t.Helper()

	ts := &testServer{diagnostics: make(chan PublishDiagnosticsParams, 16)}
	ts.handler = NewHandler(context.Background(), config, "test")
	loc := server.NewLocal(ts.handler, &server.LocalOptions{
		Server: &jrpc2.ServerOptions{AllowPush: true},
		Client: &jrpc2.ClientOptions{
			OnNotify: func(req *jrpc2.Request) {
				if req.Method() != "textDocument/publishDiagnostics" {
					return
				}
				var params PublishDiagnosticsParams
				if err := req.UnmarshalParams(&params); err != nil {
					t.Errorf("bad diagnostics: %v", err)
					return
				}
				ts.diagnostics <- params
			},
		},
	})
	ts.handler.SetServer(loc.Server)
	ts.client = loc.Client
	t.Cleanup(func() { loc.Close() })
	return ts
}

func (ts *testServer) initialize(t *testing.T, root string) InitializeResult {
	t.Helper()
	var result InitializeResult
	err := ts.client.CallResult(context.Background(), "initialize", InitializeParams{RootURI: toURI(root)}, &result)
	require.NoError(t, err)
	require.NoError(t, ts.client.Notify(context.Background(), "initialized", struct{}{}))
	return result
}

func (ts *testServer) notify(t *testing.T, method string, params any) PublishDiagnosticsParams {
	t.Helper()
	require.NoError(t, ts.client.Notify(context.Background(), method, params))
	select {
	case diags := <-ts.diagnostics:
		return diags
	case <-time.After(5 * time.Second):
		t.Fatalf("no diagnostics published after %s", method)
		return PublishDiagnosticsParams{}
	}
}

func open(uri DocumentURI, version int, text string) DidOpenTextDocumentParams {
	return DidOpenTextDocumentParams{TextDocument: TextDocumentItem{
		URI:        uri,
		LanguageID: "typescript",
		Version:    version,
		Text:       text,
	}}
}

func TestInitialize(t *testing.T) {
	ts := startServer(t, &tyck.Config{})
	result := ts.initialize(t, t.TempDir())

	assert.True(t, result.Capabilities.HoverProvider)
	assert.Equal(t, TDSKFull, result.Capabilities.TextDocumentSync.Change)
	assert.True(t, result.Capabilities.TextDocumentSync.OpenClose)
	require.NotNil(t, result.ServerInfo)
	assert.Equal(t, "tyck", result.ServerInfo.Name)
	assert.Equal(t, "test", result.ServerInfo.Version)
}

func TestDiagnosticsFollowEdits(t *testing.T) {
	ts := startServer(t, &tyck.Config{})
	root := t.TempDir()
	ts.initialize(t, root)
	uri := toURI(filepath.Join(root, "main.ts"))

	diags := ts.notify(t, "textDocument/didOpen", open(uri, 1, "const a = 1\na + true"))
	assert.Equal(t, uri, diags.URI)
	assert.Equal(t, 1, diags.Version)
	require.Len(t, diags.Diagnostics, 1)
	diag := diags.Diagnostics[0]
	assert.Equal(t, "not_a_number", diag.Code)
	assert.Equal(t, "tyck", diag.Source)
	assert.Equal(t, SeverityError, diag.Severity)
	assert.Equal(t, "number expected, got boolean", diag.Message)
	assert.Equal(t, Range{
		Start: Position{Line: 1, Character: 4},
		End:   Position{Line: 1, Character: 8},
	}, diag.Range)

	diags = ts.notify(t, "textDocument/didChange", DidChangeTextDocumentParams{
		TextDocument:   VersionedTextDocumentIdentifier{URI: uri, Version: 2},
		ContentChanges: []TextDocumentContentChangeEvent{{Text: "const a = 1\na + 2"}},
	})
	assert.Equal(t, 2, diags.Version)
	assert.Empty(t, diags.Diagnostics)

	f, ok := ts.handler.File(uri)
	require.True(t, ok)
	assert.Equal(t, "number", f.Type.String())
	assert.Equal(t, "typescript", f.LanguageID)

	text := "const a = 1\na.b"
	diags = ts.notify(t, "textDocument/didSave", DidSaveTextDocumentParams{
		TextDocument: TextDocumentIdentifier{URI: uri},
		Text:         &text,
	})
	require.Len(t, diags.Diagnostics, 1)
	assert.Equal(t, "not_an_object", diags.Diagnostics[0].Code)

	diags = ts.notify(t, "textDocument/didClose", DidCloseTextDocumentParams{
		TextDocument: TextDocumentIdentifier{URI: uri},
	})
	assert.Empty(t, diags.Diagnostics)
	_, ok = ts.handler.File(uri)
	assert.False(t, ok)
}

func TestParseErrorDiagnostics(t *testing.T) {
	ts := startServer(t, &tyck.Config{})
	root := t.TempDir()
	ts.initialize(t, root)
	uri := toURI(filepath.Join(root, "broken.ts"))

	diags := ts.notify(t, "textDocument/didOpen", open(uri, 1, "const = 1"))
	require.Len(t, diags.Diagnostics, 1)
	assert.Equal(t, "parse_error", diags.Diagnostics[0].Code)
	assert.Equal(t, Position{Line: 0, Character: 6}, diags.Diagnostics[0].Range.Start)
}

func TestProjectConfigGlobals(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, tyck.ConfigFileName), []byte(`
[globals]
log = "(x: number) => boolean"
`), 0o644))

	ts := startServer(t, nil)
	ts.initialize(t, root)
	uri := toURI(filepath.Join(root, "uses_global.ts"))

	diags := ts.notify(t, "textDocument/didOpen", open(uri, 1, "log(1) ? 1 : 2"))
	assert.Empty(t, diags.Diagnostics)

	diags = ts.notify(t, "textDocument/didOpen", open(toURI(filepath.Join(root, "other.ts")), 1, "log(true)"))
	require.Len(t, diags.Diagnostics, 1)
	assert.Equal(t, "argument_type_mismatch", diags.Diagnostics[0].Code)
}

func TestHover(t *testing.T) {
	ts := startServer(t, &tyck.Config{})
	root := t.TempDir()
	ts.initialize(t, root)
	uri := toURI(filepath.Join(root, "hover.ts"))

	ts.notify(t, "textDocument/didOpen", open(uri, 1, "const x = { foo: 1 }\nx.foo + 2"))

	hover := func(line, char int) *Hover {
		var result *Hover
		err := ts.client.CallResult(context.Background(), "textDocument/hover", HoverParams{
			TextDocument: TextDocumentIdentifier{URI: uri},
			Position:     Position{Line: line, Character: char},
		}, &result)
		require.NoError(t, err)
		return result
	}

	result := hover(1, 0)
	require.NotNil(t, result)
	assert.Equal(t, "markdown", result.Contents.Kind)
	assert.Equal(t, "```typescript\nx: { foo: number }\n```", result.Contents.Value)
	require.NotNil(t, result.Range)
	assert.Equal(t, Range{Start: Position{Line: 1}, End: Position{Line: 1, Character: 1}}, *result.Range)

	result = hover(1, 3)
	require.NotNil(t, result)
	assert.Equal(t, "```typescript\nnumber\n```", result.Contents.Value)

	// just past `x`, on the dot, belongs to the select
	result = hover(1, 1)
	require.NotNil(t, result)
	assert.Equal(t, "```typescript\nnumber\n```", result.Contents.Value)
	assert.Equal(t, Range{Start: Position{Line: 1}, End: Position{Line: 1, Character: 5}}, *result.Range)

	// the operator belongs to the addition, not its left operand
	result = hover(1, 6)
	require.NotNil(t, result)
	assert.Equal(t, "```typescript\nnumber\n```", result.Contents.Value)
	assert.Equal(t, Range{Start: Position{Line: 1}, End: Position{Line: 1, Character: 9}}, *result.Range)

	result = hover(0, 13)
	require.NotNil(t, result)
	assert.Equal(t, "```typescript\n{ foo: number }\n```", result.Contents.Value)

	result = hover(0, 17)
	require.NotNil(t, result)
	assert.Equal(t, "```typescript\nnumber\n```", result.Contents.Value)

	assert.Nil(t, hover(5, 0))
}

func TestShutdown(t *testing.T) {
	ts := startServer(t, &tyck.Config{})
	root := t.TempDir()
	ts.initialize(t, root)
	uri := toURI(filepath.Join(root, "a.ts"))
	ts.notify(t, "textDocument/didOpen", open(uri, 1, "1"))

	_, err := ts.client.Call(context.Background(), "shutdown", nil)
	require.NoError(t, err)
	_, ok := ts.handler.File(uri)
	assert.False(t, ok)
}

func TestErrorToDiagnostics(t *testing.T) {
	assert.Equal(t, []Diagnostic{}, errorToDiagnostics(nil, nil))

	t.Run("located parse error", func(t *testing.T) {
		err := &tyck.ParseError{
			Message: "bad",
			Location: &tyck.SourceLocation{
				Line:   5,
				Column: 10,
				Length: 8,
			},
		}
		diags := errorToDiagnostics(err, nil)
		require.Len(t, diags, 1)
		assert.Equal(t, "bad", diags[0].Message)
		assert.Equal(t, "parse_error", diags[0].Code)
		assert.Equal(t, Position{Line: 4, Character: 9}, diags[0].Range.Start)
		assert.Equal(t, Position{Line: 4, Character: 17}, diags[0].Range.End)
	})

	t.Run("end position", func(t *testing.T) {
		err := &tyck.ParseError{
			Message: "bad",
			Location: &tyck.SourceLocation{
				Line:   3,
				Column: 5,
				Length: 10,
				End:    &tyck.SourcePosition{Line: 4, Column: 2},
			},
		}
		diags := errorToDiagnostics(err, nil)
		assert.Equal(t, Range{
			Start: Position{Line: 2, Character: 4},
			End:   Position{Line: 3, Character: 1},
		}, diags[0].Range)
	})

	t.Run("unlocated error", func(t *testing.T) {
		diags := errorToDiagnostics(tyck.ErrTooDeep, nil)
		require.Len(t, diags, 1)
		assert.Empty(t, diags[0].Code)
		assert.Equal(t, Range{End: Position{Character: 1}}, diags[0].Range)
	})
}

func TestPositionsCountUTF16(t *testing.T) {
	lines := []string{"😀ab", "plain"}
	assert.Equal(t, Position{Line: 0, Character: 2}, toPosition(lines, 1, 2))
	assert.Equal(t, Position{Line: 0, Character: 3}, toPosition(lines, 1, 3))
	assert.Equal(t, Position{Line: 1, Character: 2}, toPosition(lines, 2, 3))

	line, col := fromPosition(lines, Position{Line: 0, Character: 3})
	assert.Equal(t, 1, line)
	assert.Equal(t, 3, col)

	line, col = fromPosition(lines, Position{Line: 0, Character: 2})
	assert.Equal(t, 1, line)
	assert.Equal(t, 2, col)
}

func TestURIs(t *testing.T) {
	uri := toURI("/tmp/some dir/main.ts")
	assert.Equal(t, DocumentURI("file:///tmp/some%20dir/main.ts"), uri)
	path, err := fromURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/some dir/main.ts", path)

	_, err = fromURI("https://example.com/main.ts")
	require.Error(t, err)
}
