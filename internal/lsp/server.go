// Package lsp serves naggy diagnostics and clangd inactive regions to
// editors over stdio JSON-RPC, one session per open document.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"naggy/internal/compileargs"
	"naggy/internal/driver"
	"naggy/internal/overlay"
	"naggy/internal/session"
	"naggy/internal/trace"
	"naggy/internal/version"
)

var (
	ErrExit = errors.New("lsp exit")
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

const (
	methodPublishDiagnostics = "textDocument/publishDiagnostics"
	methodInactiveRegions    = "textDocument/inactiveRegions"
	diagnosticSource         = "naggy"
)

type ServerOptions struct {
	// Config resolves the compile configuration of a document. The default
	// reads the naggy.toml governing the file.
	Config         driver.ConfigFunc
	MaxDiagnostics int
	Logger         *slog.Logger
	Tracer         trace.Tracer
}

type document struct {
	uri     string
	path    string
	version int
	text    string
	sess    *session.Session
	published bool
}

// Server handles one editor connection.
type Server struct {
	in  *bufio.Reader
	out *bufio.Writer
	log *slog.Logger

	config         driver.ConfigFunc
	tracer         trace.Tracer
	maxDiagnostics int

	// buffers lets every session see the unsaved text of other documents.
	buffers *overlay.Overlay
	docs    map[string]*document

	workspaceRoot     string
	initialized       bool
	shutdownRequested bool
}

func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	config := opts.Config
	if config == nil {
		config = configForFile
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	return &Server{
		in:             bufio.NewReader(in),
		out:            bufio.NewWriter(out),
		log:            logger,
		config:         config,
		tracer:         tracer,
		maxDiagnostics: opts.MaxDiagnostics,
		buffers:        overlay.New(nil),
		docs:           make(map[string]*document),
	}
}

// Run serves requests until "exit", end of input or ctx is cancelled.
// Every session is closed on return.
func (s *Server) Run(ctx context.Context) error {
	defer s.closeAll()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.log.Warn("failed to parse message", "err", err)
			continue
		}
		if msg.Method == "" {
			continue
		}
		s.log.Debug("received", "method", msg.Method)
		if err := s.handleMessage(ctx, &msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(ctx context.Context, msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "exit":
		if s.shutdownRequested {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	}
	if !s.initialized {
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeServerNotInitialized, "server not initialized")
		}
		return nil
	}
	if s.shutdownRequested {
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeInvalidRequest, "server is shutting down")
		}
		return nil
	}

	switch msg.Method {
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(ctx, msg)
	case "textDocument/didChange":
		return s.handleDidChange(ctx, msg)
	case "textDocument/didSave":
		return s.handleDidSave(ctx, msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	if s.initialized {
		return s.sendError(msg.ID, codeInvalidRequest, "server already initialized")
	}
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	root := uriToPath(params.RootURI)
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = uriToPath(params.WorkspaceFolders[0].URI)
	}
	s.workspaceRoot = root
	s.initialized = true
	s.log.Info("initialize", "root", root)

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save: saveOptions{
					IncludeText: true,
				},
			},
			InactiveRegionsProvider: true,
		},
		ServerInfo: serverInfo{Name: "naggy", Version: version.Version},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.shutdownRequested = true
	for _, doc := range s.docs {
		if doc.published {
			s.clear(doc)
		}
	}
	s.closeAll()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleDidOpen(ctx context.Context, msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return fmt.Errorf("didOpen params: %w", err)
	}
	uri := params.TextDocument.URI
	path := uriToPath(uri)
	if path == "" {
		s.log.Debug("ignoring document", "uri", uri)
		return nil
	}
	doc, ok := s.docs[uri]
	if !ok {
		doc = &document{uri: uri, path: path}
		s.docs[uri] = doc
	}
	doc.version = params.TextDocument.Version
	doc.text = params.TextDocument.Text
	s.buffers.Set(path, []byte(doc.text))
	return s.analyze(ctx, doc)
}

func (s *Server) handleDidChange(ctx context.Context, msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return fmt.Errorf("didChange params: %w", err)
	}
	doc, ok := s.docs[params.TextDocument.URI]
	if !ok {
		s.log.Warn("change for unopened document", "uri", params.TextDocument.URI)
		return nil
	}
	doc.text = applyChanges(doc.text, params.ContentChanges)
	doc.version = params.TextDocument.Version
	s.buffers.Set(doc.path, []byte(doc.text))
	return s.analyze(ctx, doc)
}

func (s *Server) handleDidSave(ctx context.Context, msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return fmt.Errorf("didSave params: %w", err)
	}
	doc, ok := s.docs[params.TextDocument.URI]
	if !ok {
		return nil
	}
	if params.Text != nil {
		doc.text = *params.Text
		s.buffers.Set(doc.path, []byte(doc.text))
	}
	return s.analyze(ctx, doc)
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return fmt.Errorf("didClose params: %w", err)
	}
	doc, ok := s.docs[params.TextDocument.URI]
	if !ok {
		return nil
	}
	delete(s.docs, doc.uri)
	s.buffers.Remove(doc.path)
	if doc.sess != nil {
		_ = doc.sess.Close()
	}
	if doc.published {
		s.clear(doc)
	}
	return nil
}

// analyze reparses doc and publishes the result.
func (s *Server) analyze(ctx context.Context, doc *document) error {
	if doc.sess == nil {
		sess, err := s.openSession(doc.path)
		if err != nil {
			s.log.Error("open session", "path", doc.path, "err", err)
			return s.publish(doc, []lspDiagnostic{failure(err)}, nil)
		}
		doc.sess = sess
	}

	if err := doc.sess.ProcessText(ctx, doc.text); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Error("process", "path", doc.path, "err", err)
		return s.publish(doc, []lspDiagnostic{failure(err)}, nil)
	}
	diags, err := doc.sess.Diagnostics(ctx)
	if err != nil {
		return s.publish(doc, []lspDiagnostic{failure(err)}, nil)
	}
	pre, err := doc.sess.Preprocessor(ctx)
	if err != nil {
		return s.publish(doc, []lspDiagnostic{failure(err)}, nil)
	}
	ranges, err := pre.SkippedBlockLineNumbers()
	if err != nil {
		return s.publish(doc, []lspDiagnostic{failure(err)}, nil)
	}

	list := make([]lspDiagnostic, 0, len(diags))
	for _, d := range diags {
		if !samePath(d.FilePath, doc.path) {
			continue
		}
		list = append(list, toLSPDiagnostic(doc.text, d))
	}
	s.log.Debug("analyzed", "path", doc.path, "version", doc.version, "diagnostics", len(list), "inactive", len(ranges))
	return s.publish(doc, list, regionsForRanges(doc.text, ranges))
}

func (s *Server) openSession(path string) (*session.Session, error) {
	cfg, err := s.config(path)
	if err != nil {
		return nil, fmt.Errorf("configure %s: %w", path, err)
	}
	return session.New(path, compileargs.Build(cfg),
		session.WithOverlays(s.buffers),
		session.WithMaxDiagnostics(s.maxDiagnostics),
		session.WithTracer(s.tracer),
	)
}

func (s *Server) closeAll() {
	for _, doc := range s.docs {
		if doc.sess != nil {
			_ = doc.sess.Close()
			doc.sess = nil
		}
	}
}

func (s *Server) publish(doc *document, list []lspDiagnostic, regions []lspRange) error {
	doc.published = true
	v := doc.version
	if err := s.sendNotification(methodPublishDiagnostics, publishDiagnosticsParams{
		URI:         doc.uri,
		Version:     &v,
		Diagnostics: nonNil(list),
	}); err != nil {
		return err
	}
	return s.sendNotification(methodInactiveRegions, inactiveRegionsParams{
		TextDocument: textDocumentIdentifier{URI: doc.uri},
		Regions:      nonNil(regions),
	})
}

func (s *Server) clear(doc *document) {
	doc.published = false
	if err := s.sendNotification(methodPublishDiagnostics, publishDiagnosticsParams{URI: doc.uri, Diagnostics: []lspDiagnostic{}}); err != nil {
		s.log.Warn("failed to clear diagnostics", "uri", doc.uri, "err", err)
		return
	}
	if err := s.sendNotification(methodInactiveRegions, inactiveRegionsParams{TextDocument: textDocumentIdentifier{URI: doc.uri}, Regions: []lspRange{}}); err != nil {
		s.log.Warn("failed to clear inactive regions", "uri", doc.uri, "err", err)
	}
}

func toLSPDiagnostic(text string, d session.Diagnostic) lspDiagnostic {
	severity := 2
	if d.Severity == session.Error {
		severity = 1
	}
	return lspDiagnostic{
		Range:    rangeForDiagnostic(text, d.StartLine, d.StartColumn),
		Severity: severity,
		Code:     d.Code,
		Source:   diagnosticSource,
		Message:  d.Message,
	}
}

func failure(err error) lspDiagnostic {
	return lspDiagnostic{Severity: 1, Source: diagnosticSource, Message: err.Error()}
}

func samePath(a, b string) bool {
	ka, okA := overlay.Key(a)
	kb, okB := overlay.Key(b)
	return okA && okB && ka == kb
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendNotification(method string, params any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}
