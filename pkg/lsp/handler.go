package lsp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"sync"
	"unicode"

	"github.com/creachadair/jrpc2"
	"github.com/vito/tyck/pkg/hm"
	"github.com/vito/tyck/pkg/ioctx"
	"github.com/vito/tyck/pkg/tyck"
)

// DiagnosticSource labels every diagnostic the server publishes.
const DiagnosticSource = "tyck"

// Handler serves the language server methods. It implements jrpc2.Assigner.
type Handler struct {
	logger  *slog.Logger
	version string

	srv *jrpc2.Server

	mu       sync.Mutex
	files    map[DocumentURI]*File
	rootPath string
	config   *tyck.Config
	env      *hm.Env
	shutdown bool
}

// File is a checked snapshot of an open document. Snapshots are replaced,
// never modified, so handlers may read them without holding the lock.
type File struct {
	URI         DocumentURI
	LanguageID  string
	Version     int
	Text        string
	Term        tyck.Term
	Type        hm.Type
	Info        *tyck.Info
	Diagnostics []Diagnostic
}

var _ jrpc2.Assigner = (*Handler)(nil)

// NewHandler creates a handler. A nil config is replaced by the project
// config found from the workspace root during initialize.
func NewHandler(ctx context.Context, config *tyck.Config, version string) *Handler {
	return &Handler{
		logger:  ioctx.LoggerFromContext(ctx),
		version: version,
		files:   make(map[DocumentURI]*File),
		config:  config,
	}
}

// SetServer stores the server used to push notifications to the client.
func (h *Handler) SetServer(srv *jrpc2.Server) {
	h.srv = srv
}

func (h *Handler) Assign(ctx context.Context, method string) jrpc2.Handler {
	switch method {
	case "initialize":
		return h.handleInitialize
	case "initialized":
		return h.handleInitialized
	case "shutdown":
		return h.handleShutdown
	case "exit":
		return h.handleExit
	case "textDocument/didOpen":
		return h.handleTextDocumentDidOpen
	case "textDocument/didChange":
		return h.handleTextDocumentDidChange
	case "textDocument/didSave":
		return h.handleTextDocumentDidSave
	case "textDocument/didClose":
		return h.handleTextDocumentDidClose
	case "textDocument/hover":
		return h.handleTextDocumentHover
	}
	h.logger.DebugContext(ctx, "unsupported method", "method", method)
	return nil
}

// File returns the latest snapshot of an open document.
func (h *Handler) File(uri DocumentURI) (*File, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.files[uri]
	return f, ok
}

func unmarshalParams(req *jrpc2.Request, v any) error {
	return req.UnmarshalParams(v)
}

func isWindowsDrivePath(path string) bool {
	if len(path) < 4 {
		return false
	}
	return unicode.IsLetter(rune(path[0])) && path[1] == ':'
}

func isWindowsDriveURI(uri string) bool {
	if len(uri) < 4 {
		return false
	}
	return uri[0] == '/' && unicode.IsLetter(rune(uri[1])) && uri[2] == ':'
}

func fromURI(uri DocumentURI) (string, error) {
	u, err := url.ParseRequestURI(string(uri))
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("only file URIs are supported, got %v", u.Scheme)
	}
	if isWindowsDriveURI(u.Path) {
		u.Path = u.Path[1:]
	}
	return u.Path, nil
}

func toURI(path string) DocumentURI {
	if isWindowsDrivePath(path) {
		path = "/" + path
	}
	return DocumentURI((&url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(path),
	}).String())
}

// configure loads the project config for root unless one was given up front.
func (h *Handler) configure(ctx context.Context, root string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.rootPath = root
	if h.config == nil && root != "" {
		path, config, err := tyck.FindConfig(root)
		if err != nil {
			return err
		}
		if config != nil {
			h.logger.InfoContext(ctx, "using project config", "path", path)
			h.config = config
		}
	}

	env, err := h.config.Env()
	if err != nil {
		return err
	}
	h.env = env
	return nil
}

func (h *Handler) updateFile(ctx context.Context, uri DocumentURI, languageID, text string, version int) error {
	h.mu.Lock()
	prev, open := h.files[uri]
	if open && version != 0 && version < prev.Version {
		h.mu.Unlock()
		h.logger.DebugContext(ctx, "ignoring stale update", "uri", uri, "version", version, "current", prev.Version)
		return nil
	}
	if open && languageID == "" {
		languageID = prev.LanguageID
	}
	env, config := h.env, h.config
	h.mu.Unlock()

	filename, err := fromURI(uri)
	if err != nil {
		filename = string(uri)
	}

	res := tyck.CheckSource(config.Context(ctx), filename, []byte(text), tyck.Options{
		Env:         env,
		RecordTypes: true,
	})

	f := &File{
		URI:         uri,
		LanguageID:  languageID,
		Version:     version,
		Text:        text,
		Term:        res.Term,
		Type:        res.Type,
		Info:        res.Info,
		Diagnostics: errorToDiagnostics(res.Err, splitLines(text)),
	}

	h.mu.Lock()
	h.files[uri] = f
	h.mu.Unlock()

	h.logger.InfoContext(ctx, "file checked", "path", filename, "version", version, "diagnostics", len(f.Diagnostics))
	h.publishDiagnostics(ctx, uri, version, f.Diagnostics)
	return nil
}

func (h *Handler) closeFile(ctx context.Context, uri DocumentURI) {
	h.mu.Lock()
	delete(h.files, uri)
	h.mu.Unlock()

	h.publishDiagnostics(ctx, uri, 0, nil)
}

func (h *Handler) publishDiagnostics(ctx context.Context, uri DocumentURI, version int, diagnostics []Diagnostic) {
	if h.srv == nil {
		return
	}
	if diagnostics == nil {
		diagnostics = []Diagnostic{}
	}

	err := h.srv.Notify(ctx, "textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         uri,
		Version:     version,
		Diagnostics: diagnostics,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to publish diagnostics", "error", err)
	}
}

// errorToDiagnostics converts a check result error into diagnostics. Errors
// without a location are reported at the start of the document.
func errorToDiagnostics(err error, lines []string) []Diagnostic {
	if err == nil {
		return []Diagnostic{}
	}

	diag := Diagnostic{
		Range:    Range{End: Position{Character: 1}},
		Severity: SeverityError,
		Source:   DiagnosticSource,
		Message:  tyck.Plain(err),
	}

	var loc *tyck.SourceLocation
	var sourceErr *tyck.SourceError
	var located tyck.SourceLocatable
	if errors.As(err, &sourceErr) {
		diag.Message = tyck.Plain(sourceErr.Inner)
		loc = sourceErr.Location
	} else if errors.As(err, &located) {
		loc = located.GetSourceLocation()
	}
	if loc != nil {
		diag.Range = locRange(lines, loc)
	}

	var parseErr *tyck.ParseError
	if kind, ok := tyck.KindOf(err); ok {
		diag.Code = kind.Code()
	} else if errors.As(err, &parseErr) {
		diag.Code = "parse_error"
	}

	return []Diagnostic{diag}
}
