// Package dashboard serves the built-in web frontend for single-page invoice
// analysis.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tyemirov/docrun/internal/analysis"
)

const (
	// DefaultListenAddress is the address served when none is configured.
	DefaultListenAddress = ":8080"
	// DefaultMaxUploadBytes caps uploaded document size.
	DefaultMaxUploadBytes = 32 << 20

	shutdownTimeoutDuration            = 10 * time.Second
	rootRoutePathConstant              = "/"
	analyzeRoutePathConstant           = "/analyze"
	healthRoutePathConstant            = "/healthz"
	documentFormFieldConstant          = "document"
	pageFormFieldConstant              = "page"
	dpiFormFieldConstant               = "dpi"
	healthStatusValueConstant          = "ok"
	analyzerMissingMessageConstant     = "dashboard analyzer not configured"
	documentMissingMessageConstant     = "document upload is required"
	invalidPageMessageConstant         = "page must be a positive integer"
	invalidDPIMessageConstant          = "dpi must be an integer"
	uploadDirectoryPatternConstant     = "docrun-dashboard-*"
	uploadedDocumentFileNameConstant   = "upload.pdf"
	serverStartedLogMessageConstant    = "dashboard listening"
	serverStoppedLogMessageConstant    = "dashboard stopped"
	analyzeFailedLogMessageConstant    = "analysis request failed"
	listenAddressLogFieldConstant      = "address"
	errorResponseFieldNameConstant     = "error"
	statusResponseFieldNameConstant    = "status"
	uploadFormPageHTMLConstant         = `<!DOCTYPE html>
<html>
<head><title>docrun</title></head>
<body>
<h1>Invoice analysis</h1>
<form action="/analyze" method="post" enctype="multipart/form-data">
  <label>Document <input type="file" name="document" accept="application/pdf"></label>
  <label>Page <input type="number" name="page" value="1" min="1"></label>
  <label>DPI <input type="number" name="dpi" value="150" min="72" max="600"></label>
  <button type="submit">Analyze</button>
</form>
</body>
</html>`
)

// ErrAnalyzerNotConfigured indicates the server was built without an analyzer.
var ErrAnalyzerNotConfigured = errors.New(analyzerMissingMessageConstant)

// DocumentAnalyzer runs the page analysis flow behind the analyze endpoint.
type DocumentAnalyzer interface {
	AnalyzePage(executionContext context.Context, documentPath string, pageNumber int, renderDPI int, workDirectory string) (analysis.PageReport, error)
}

// Options configure the dashboard server.
type Options struct {
	ListenAddress  string
	MaxUploadBytes int64
}

func (options Options) sanitize() Options {
	if len(strings.TrimSpace(options.ListenAddress)) == 0 {
		options.ListenAddress = DefaultListenAddress
	}
	if options.MaxUploadBytes <= 0 {
		options.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return options
}

// Server hosts the dashboard HTTP application.
type Server struct {
	analyzer DocumentAnalyzer
	logger   *zap.Logger
	options  Options
	engine   *gin.Engine
}

// NewServer constructs the dashboard server and registers its routes.
func NewServer(analyzer DocumentAnalyzer, logger *zap.Logger, options Options) (*Server, error) {
	if analyzer == nil {
		return nil, ErrAnalyzerNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	server := &Server{
		analyzer: analyzer,
		logger:   logger,
		options:  options.sanitize(),
		engine:   engine,
	}
	engine.MaxMultipartMemory = server.options.MaxUploadBytes

	engine.GET(rootRoutePathConstant, server.handleUploadForm)
	engine.POST(analyzeRoutePathConstant, server.handleAnalyze)
	engine.GET(healthRoutePathConstant, server.handleHealth)

	return server, nil
}

// Handler exposes the routed HTTP handler.
func (server *Server) Handler() http.Handler {
	return server.engine
}

// Run serves the dashboard until the context is cancelled, then shuts down
// gracefully.
func (server *Server) Run(executionContext context.Context) error {
	httpServer := &http.Server{
		Addr:    server.options.ListenAddress,
		Handler: server.engine,
	}

	listenFailures := make(chan error, 1)
	go func() {
		if serveError := httpServer.ListenAndServe(); serveError != nil && !errors.Is(serveError, http.ErrServerClosed) {
			listenFailures <- serveError
		}
	}()

	server.logger.Info(serverStartedLogMessageConstant, zap.String(listenAddressLogFieldConstant, server.options.ListenAddress))

	select {
	case listenError := <-listenFailures:
		return listenError
	case <-executionContext.Done():
	}

	shutdownContext, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeoutDuration)
	defer cancelShutdown()

	shutdownError := httpServer.Shutdown(shutdownContext)
	server.logger.Info(serverStoppedLogMessageConstant)
	return shutdownError
}

func (server *Server) handleUploadForm(requestContext *gin.Context) {
	requestContext.Header("Content-Type", "text/html; charset=utf-8")
	requestContext.String(http.StatusOK, uploadFormPageHTMLConstant)
}

func (server *Server) handleHealth(requestContext *gin.Context) {
	requestContext.JSON(http.StatusOK, gin.H{statusResponseFieldNameConstant: healthStatusValueConstant})
}

func (server *Server) handleAnalyze(requestContext *gin.Context) {
	requestContext.Request.Body = http.MaxBytesReader(requestContext.Writer, requestContext.Request.Body, server.options.MaxUploadBytes)

	uploadedFile, uploadError := requestContext.FormFile(documentFormFieldConstant)
	if uploadError != nil {
		requestContext.JSON(http.StatusBadRequest, gin.H{errorResponseFieldNameConstant: documentMissingMessageConstant})
		return
	}

	pageNumber, pageError := parsePositiveFormInt(requestContext, pageFormFieldConstant, 1)
	if pageError != nil {
		requestContext.JSON(http.StatusBadRequest, gin.H{errorResponseFieldNameConstant: invalidPageMessageConstant})
		return
	}

	renderDPI, dpiError := parsePositiveFormInt(requestContext, dpiFormFieldConstant, 0)
	if dpiError != nil {
		requestContext.JSON(http.StatusBadRequest, gin.H{errorResponseFieldNameConstant: invalidDPIMessageConstant})
		return
	}

	workDirectory, tempDirError := os.MkdirTemp("", uploadDirectoryPatternConstant)
	if tempDirError != nil {
		requestContext.JSON(http.StatusInternalServerError, gin.H{errorResponseFieldNameConstant: tempDirError.Error()})
		return
	}
	defer func() { _ = os.RemoveAll(workDirectory) }()

	documentPath := filepath.Join(workDirectory, uploadedDocumentFileNameConstant)
	if saveError := requestContext.SaveUploadedFile(uploadedFile, documentPath); saveError != nil {
		requestContext.JSON(http.StatusInternalServerError, gin.H{errorResponseFieldNameConstant: saveError.Error()})
		return
	}

	pageReport, analyzeError := server.analyzer.AnalyzePage(requestContext.Request.Context(), documentPath, pageNumber, renderDPI, workDirectory)
	if analyzeError != nil {
		server.logger.Warn(analyzeFailedLogMessageConstant, zap.Error(analyzeError))
		requestContext.JSON(http.StatusUnprocessableEntity, gin.H{errorResponseFieldNameConstant: analyzeError.Error()})
		return
	}

	requestContext.JSON(http.StatusOK, pageReport)
}

func parsePositiveFormInt(requestContext *gin.Context, fieldName string, defaultValue int) (int, error) {
	fieldValue := strings.TrimSpace(requestContext.PostForm(fieldName))
	if len(fieldValue) == 0 {
		return defaultValue, nil
	}
	parsedValue, parseError := strconv.Atoi(fieldValue)
	if parseError != nil {
		return 0, parseError
	}
	if parsedValue < 1 {
		return 0, strconv.ErrRange
	}
	return parsedValue, nil
}
