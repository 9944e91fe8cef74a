package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rawblock/ringwatch-engine/internal/ingest"
	"github.com/rawblock/ringwatch-engine/internal/metrics"
	"github.com/rawblock/ringwatch-engine/internal/service"
	"github.com/rawblock/ringwatch-engine/internal/store"
	"github.com/rawblock/ringwatch-engine/pkg/models"
)

const (
	headerAnalysisID = "X-Analysis-ID"
	uploadField      = "file"
	engineName       = "RingWatch Detection Engine"
	noDataMessage    = "No data available"
)

// RouterConfig carries the HTTP-level settings.
type RouterConfig struct {
	AllowedOrigins  []string
	MaxUploadBytes  int64
	LedgerLoadLimit int
	RateLimiter     *RateLimiter // nil disables rate limiting
}

type APIHandler struct {
	analyzer    *service.Analyzer
	ledger      service.LedgerSource
	wsHub       *Hub
	maxUpload   int64
	ledgerLimit int
}

type analyzeRequest struct {
	Transactions []models.Transaction `json:"transactions"`
}

type analysisResponse struct {
	Analysis models.AnalysisResult `json:"analysis"`
	Graph    models.GraphSnapshot  `json:"graph"`
}

// SetupRouter builds the gin engine. ledger, wsHub and reg may be nil.
func SetupRouter(cfg RouterConfig, analyzer *service.Analyzer, ledger service.LedgerSource, wsHub *Hub, reg *metrics.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(reg), corsMiddleware(cfg.AllowedOrigins))
	r.MaxMultipartMemory = cfg.MaxUploadBytes

	handler := &APIHandler{
		analyzer:    analyzer,
		ledger:      ledger,
		wsHub:       wsHub,
		maxUpload:   cfg.MaxUploadBytes,
		ledgerLimit: cfg.LedgerLoadLimit,
	}

	api := r.Group("/api/v1")
	{
		analysis := api.Group("")
		if cfg.RateLimiter != nil {
			analysis.Use(cfg.RateLimiter.Middleware())
		}
		analysis.POST("/upload", handler.handleUpload)
		analysis.POST("/analyze", handler.handleAnalyzeJSON)
		analysis.POST("/analyze/ledger", handler.handleAnalyzeLedger)

		api.GET("/result", handler.handleResult)
		api.GET("/download", handler.handleDownload)
		api.GET("/health", handler.handleHealth)
		if wsHub != nil {
			api.GET("/stream", wsHub.Subscribe)
		}
	}

	if reg != nil {
		r.GET("/metrics", gin.WrapH(reg.Handler()))
	}

	return r
}

// handleUpload analyzes a CSV ledger sent as multipart field "file".
func (h *APIHandler) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	fh, err := c.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":   "Upload too large",
				"details": "limit is " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing CSV upload", "details": "expected multipart field \"" + uploadField + "\""})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open upload", "details": err.Error()})
		return
	}
	defer f.Close()

	txs, err := ingest.ReadCSV(f)
	if err != nil {
		h.analyzer.Reject(service.SourceUpload, err)
		h.writeAnalysisError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"filename":     fh.Filename,
		"bytes":        fh.Size,
		"transactions": len(txs),
	}).Info("[API] CSV ledger received")

	h.runAnalysis(c, service.SourceUpload, txs)
}

// handleAnalyzeJSON analyzes {"transactions": [...]} from the request body.
func (h *APIHandler) handleAnalyzeJSON(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
			return
		}
		h.analyzer.Reject(service.SourceJSON, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body", "details": err.Error()})
		return
	}

	h.runAnalysis(c, service.SourceJSON, req.Transactions)
}

// handleAnalyzeLedger analyzes the PostgreSQL ledger table. ?limit=N caps
// the number of rows read.
func (h *APIHandler) handleAnalyzeLedger(c *gin.Context) {
	if h.ledger == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Ledger database not configured"})
		return
	}

	limit := h.ledgerLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit", "details": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	out, err := h.analyzer.RunLedger(c.Request.Context(), h.ledger, limit)
	if err != nil {
		h.writeAnalysisError(c, err)
		return
	}
	h.writeOutcome(c, out)
}

// handleResult returns the most recent analysis as plain JSON.
func (h *APIHandler) handleResult(c *gin.Context) {
	snap, ok := h.analyzer.Results().Get()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": noDataMessage})
		return
	}
	c.Header(headerAnalysisID, snap.AnalysisID)
	c.JSON(http.StatusOK, snap.Result)
}

// handleDownload serves the most recent analysis as a JSON attachment.
func (h *APIHandler) handleDownload(c *gin.Context) {
	data, err := h.analyzer.Export()
	if errors.Is(err, store.ErrNoData) {
		c.JSON(http.StatusNotFound, gin.H{"error": noDataMessage})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export result", "details": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+store.ExportFilename+`"`)
	c.Data(http.StatusOK, "application/json", data)
}

// handleHealth returns engine status and thresholds for service discovery
func (h *APIHandler) handleHealth(c *gin.Context) {
	cfg := h.analyzer.DetectorConfig()
	_, hasResult := h.analyzer.Results().Get()

	streamClients := 0
	if h.wsHub != nil {
		streamClients = h.wsHub.ClientCount()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "operational",
		"engine":        engineName,
		"dbConnected":   h.ledger != nil,
		"streamClients": streamClients,
		"hasResult":     hasResult,
		"detection": gin.H{
			"ringLengths":     []int{cfg.RingMinLength, cfg.RingMaxLength},
			"fanInThreshold":  cfg.FanInThreshold,
			"fanOutThreshold": cfg.FanOutThreshold,
			"maxCycleLength":  cfg.MaxCycleLength,
			"maxCycles":       cfg.MaxCycles,
		},
	})
}

func (h *APIHandler) runAnalysis(c *gin.Context, source string, txs []models.Transaction) {
	out, err := h.analyzer.Run(c.Request.Context(), source, txs)
	if err != nil {
		h.writeAnalysisError(c, err)
		return
	}
	h.writeOutcome(c, out)
}

func (h *APIHandler) writeOutcome(c *gin.Context, out service.Outcome) {
	c.Header(headerAnalysisID, out.AnalysisID)
	c.JSON(http.StatusOK, analysisResponse{Analysis: out.Result, Graph: out.Graph})
}

func (h *APIHandler) writeAnalysisError(c *gin.Context, err error) {
	_ = c.Error(err)
	if ingest.IsInputFormatError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ledger", "details": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis failed", "details": err.Error()})
}
