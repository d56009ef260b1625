package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"distpress/internal/config"
	"distpress/internal/freshness"
	"distpress/internal/pipeline"
	"distpress/internal/report"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type Server struct {
	cfg        *config.Config
	log        *logrus.Logger
	cache      *freshness.Cache
	router     *mux.Router
	httpServer *http.Server
	wsUpgrader websocket.Upgrader
	wsClients  map[*websocket.Conn]bool
	wsMutex    sync.RWMutex

	// Current operation state
	operationMutex sync.RWMutex
	isRunning      bool
	lastReport     *report.Report
	cancelRun      context.CancelFunc
}

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type ScanRequest struct {
	Directory string `json:"directory"`
}

type CompressRequest struct {
	Directory      string `json:"directory,omitempty"`
	Algorithm      string `json:"algorithm,omitempty"`
	DeleteOriginal *bool  `json:"delete_original,omitempty"`
}

type CandidateInfo struct {
	Path       string `json:"path"`
	RelPath    string `json:"rel_path"`
	Size       int64  `json:"size"`
	OutputPath string `json:"output_path"`
	UpToDate   bool   `json:"up_to_date"`
}

type DirectoryInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	IsDirectory  bool   `json:"is_directory"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewServer(cfg *config.Config, log *logrus.Logger, cache *freshness.Cache) *Server {
	s := &Server{
		cfg:       cfg,
		log:       log,
		cache:     cache,
		router:    mux.NewRouter(),
		wsClients: make(map[*websocket.Conn]bool),
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in development
			},
		},
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// API routes
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/scan", s.handleScan).Methods("POST")
	api.HandleFunc("/compress", s.handleCompress).Methods("POST")
	api.HandleFunc("/stop", s.handleStop).Methods("POST")
	api.HandleFunc("/directories", s.handleListDirectories).Methods("GET")
	api.HandleFunc("/report", s.handleGetReport).Methods("GET")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Static files
	s.router.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", http.FileServer(http.Dir("web/static/"))),
	)

	// Main page
	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
}

func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.log.Infof("Starting web server on http://localhost%s", addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, "web/templates/index.html")
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.operationMutex.RLock()
	running := s.isRunning
	rep := s.lastReport
	s.operationMutex.RUnlock()

	var reportData interface{}
	if rep != nil {
		reportData = map[string]interface{}{
			"summary": reportSummary(rep),
		}
	}

	s.writeJSON(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"running": running,
			"report":  reportData,
		},
	})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	directory := req.Directory
	if directory == "" {
		directory = s.cfg.OutputDirectory
	}

	// Check if directory exists
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		s.writeError(w, "Directory does not exist", http.StatusBadRequest)
		return
	}

	go s.runScanAsync(directory)

	s.writeJSON(w, APIResponse{
		Success: true,
		Message: "Scan started",
	})
}

func (s *Server) handleCompress(w http.ResponseWriter, r *http.Request) {
	var req CompressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Check if already running
	s.operationMutex.RLock()
	if s.isRunning {
		s.operationMutex.RUnlock()
		s.writeError(w, "Operation already in progress", http.StatusConflict)
		return
	}
	s.operationMutex.RUnlock()

	directory := req.Directory
	if directory == "" {
		directory = s.cfg.OutputDirectory
	}

	// Check if directory exists
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		s.writeError(w, "Directory does not exist", http.StatusBadRequest)
		return
	}

	go s.runCompressAsync(req)

	s.writeJSON(w, APIResponse{
		Success: true,
		Message: "Compression started",
	})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.operationMutex.Lock()
	cancel := s.cancelRun
	s.operationMutex.Unlock()

	if cancel != nil {
		cancel()
	}

	s.broadcastWSMessage("operation_stopped", map[string]interface{}{
		"message": "Operation stopped by user",
	})

	s.writeJSON(w, APIResponse{
		Success: true,
		Message: "Operation stopped",
	})
}

func (s *Server) handleListDirectories(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "."
	}

	// Security check - prevent directory traversal
	path = filepath.Clean(path)
	if strings.Contains(path, "..") {
		s.writeError(w, "Invalid path", http.StatusBadRequest)
		return
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		s.writeError(w, fmt.Sprintf("Failed to read directory: %v", err), http.StatusInternalServerError)
		return
	}

	var directories []DirectoryInfo
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}

		fullPath := filepath.Join(path, entry.Name())
		directories = append(directories, DirectoryInfo{
			Path:         fullPath,
			Name:         entry.Name(),
			IsDirectory:  entry.IsDir(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format(time.RFC3339),
		})
	}

	s.writeJSON(w, APIResponse{
		Success: true,
		Data:    directories,
	})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	s.operationMutex.RLock()
	rep := s.lastReport
	s.operationMutex.RUnlock()

	if rep == nil {
		s.writeJSON(w, APIResponse{
			Success: true,
			Data:    nil,
		})
		return
	}

	s.writeJSON(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"summary": reportSummary(rep),
			"files":   reportFiles(rep),
			"errors":  reportErrors(rep),
		},
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	s.wsMutex.Lock()
	s.wsClients[conn] = true
	s.wsMutex.Unlock()

	s.log.Debug("WebSocket client connected")

	// Remove client on disconnect
	defer func() {
		s.wsMutex.Lock()
		delete(s.wsClients, conn)
		s.wsMutex.Unlock()
		s.log.Debug("WebSocket client disconnected")
	}()

	// Keep connection alive
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
	}
}

func (s *Server) runScanAsync(directory string) {
	s.broadcastWSMessage("scan_started", map[string]interface{}{
		"directory": directory,
	})

	// Create temporary config for scanning
	cfg := *s.cfg
	cfg.OutputDirectory = directory

	pipe := pipeline.New(&cfg, s.log, s.cache, nil)
	candidates, err := pipe.Scan(context.Background())
	if err != nil {
		s.broadcastWSMessage("scan_error", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	infos := make([]CandidateInfo, 0, len(candidates))
	for _, c := range candidates {
		infos = append(infos, CandidateInfo{
			Path:       c.File.Path,
			RelPath:    c.File.RelPath,
			Size:       c.File.Size,
			OutputPath: c.OutputPath,
			UpToDate:   c.UpToDate,
		})
	}

	s.broadcastWSMessage("scan_completed", map[string]interface{}{
		"directory":  directory,
		"candidates": infos,
	})
}

func (s *Server) runCompressAsync(req CompressRequest) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.operationMutex.Lock()
	if s.isRunning {
		s.operationMutex.Unlock()
		return
	}
	s.isRunning = true
	s.cancelRun = cancel
	s.operationMutex.Unlock()

	// Create temporary config for this run
	cfg := *s.cfg
	if req.Directory != "" {
		cfg.OutputDirectory = req.Directory
	}
	if req.Algorithm != "" {
		cfg.Algorithm = req.Algorithm
		cfg.OutputExtension = ""
	}
	if req.DeleteOriginal != nil {
		cfg.DeleteOriginal = *req.DeleteOriginal
	}
	cfg.Verbose = false

	if err := cfg.Validate(); err != nil {
		s.operationMutex.Lock()
		s.isRunning = false
		s.cancelRun = nil
		s.operationMutex.Unlock()

		s.broadcastWSMessage("compress_error", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	s.broadcastWSMessage("compress_started", map[string]interface{}{
		"directory": cfg.OutputDirectory,
		"algorithm": cfg.Algorithm,
	})

	hook := func(res report.Result) {
		s.broadcastWSMessage("file_compressed", map[string]interface{}{
			"path":            res.RelPath,
			"output_path":     res.OutputPath,
			"original_size":   res.OriginalSize,
			"compressed_size": res.CompressedSize,
			"ratio":           res.Ratio(),
		})
	}

	pipe := pipeline.NewWithResultHook(&cfg, s.log, s.cache, nil, hook)
	rep, err := pipe.Run(ctx)

	s.operationMutex.Lock()
	s.isRunning = false
	s.cancelRun = nil
	if rep != nil {
		s.lastReport = rep
	}
	s.operationMutex.Unlock()

	if err != nil {
		s.broadcastWSMessage("compress_error", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	s.broadcastWSMessage("compress_completed", map[string]interface{}{
		"summary": reportSummary(rep),
	})
}

func reportSummary(rep *report.Report) map[string]interface{} {
	return map[string]interface{}{
		"compressed":       len(rep.Results),
		"failed":           len(rep.Errors),
		"skipped":          rep.Skipped,
		"total_original":   rep.TotalOriginal,
		"total_compressed": rep.TotalCompressed,
		"total_ratio":      rep.TotalRatio(),
		"duration":         rep.Duration.String(),
	}
}

func reportFiles(rep *report.Report) []map[string]interface{} {
	files := make([]map[string]interface{}, 0, len(rep.Results))
	for _, res := range rep.Results {
		files = append(files, map[string]interface{}{
			"path":            res.RelPath,
			"output_path":     res.OutputPath,
			"original_size":   res.OriginalSize,
			"compressed_size": res.CompressedSize,
			"ratio":           res.Ratio(),
		})
	}
	return files
}

func reportErrors(rep *report.Report) []map[string]interface{} {
	errs := make([]map[string]interface{}, 0, len(rep.Errors))
	for _, fe := range rep.Errors {
		errs = append(errs, map[string]interface{}{
			"path":      fe.Path,
			"operation": fe.Op,
			"error":     fe.Err.Error(),
		})
	}
	return errs
}

func (s *Server) broadcastWSMessage(messageType string, data interface{}) {
	message := WSMessage{
		Type: messageType,
		Data: data,
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		s.log.Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}

	s.wsMutex.RLock()
	defer s.wsMutex.RUnlock()

	for conn := range s.wsClients {
		err := conn.WriteMessage(websocket.TextMessage, msgBytes)
		if err != nil {
			s.log.Errorf("Failed to write WebSocket message: %v", err)
			// Remove failed connection
			go func(c *websocket.Conn) {
				s.wsMutex.Lock()
				delete(s.wsClients, c)
				s.wsMutex.Unlock()
				c.Close()
			}(conn)
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error:   message,
	})
}
