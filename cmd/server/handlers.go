package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/himanishpuri/AcousticSim/pkg/acousticsim"
	"github.com/himanishpuri/AcousticSim/pkg/models"
	"github.com/himanishpuri/AcousticSim/pkg/utils"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service acousticsim.Service
	config  *ServerConfig
	log     acousticsim.Logger
	queue   *analysisQueue
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Addr           string
	Backend        string
	DBPath         string
	UploadDir      string
	SampleRate     int
	AllowedOrigins []string
	MaxUploadBytes int64
}

// NewServer creates a new server instance
func NewServer(service acousticsim.Service, config *ServerConfig, log acousticsim.Logger, queue *analysisQueue) *Server {
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 100 << 20
	}
	return &Server{
		service: service,
		config:  config,
		log:     log,
		queue:   queue,
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "AcousticSim API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":    "GET /health",
			"metrics":   "GET /api/metrics",
			"similar":   "GET /api/similar?song_id={id}&from_ms={ms}",
			"upload":    "POST /api/songs",
			"analyze":   "POST /api/analyze",
			"jobStatus": "GET /api/jobs/{id}",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Only GET is allowed")
		return
	}

	st, err := s.service.Stats(r.Context())
	if err != nil {
		s.log.Errorf("Failed to collect stats: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		Backend:      s.config.Backend,
		DatabasePath: s.config.DBPath,
		SongCount:    st.Songs,
		SegmentCount: st.Segments,
		Incomplete:   st.Incomplete,
		Matches:      st.Matches,
		SampleRate:   s.config.SampleRate,
		QueuedJobs:   s.queue.Pending(),
	})
}

// handleSimilar handles GET /api/similar
func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Only GET is allowed")
		return
	}

	songID := r.URL.Query().Get("song_id")
	if songID == "" {
		s.respondError(w, http.StatusBadRequest, "song_id is required")
		return
	}
	fromMs := 0
	if v := r.URL.Query().Get("from_ms"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "from_ms must be a non-negative integer")
			return
		}
		fromMs = n
	}

	results, err := s.service.QuerySimilar(r.Context(), songID, fromMs)
	if err != nil {
		s.log.Errorf("QuerySimilar failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to query similar segments")
		return
	}
	if results == nil {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("Song %s has no stored segments", songID))
		return
	}

	resp := SimilarResponse{
		SongID:  songID,
		FromMs:  fromMs,
		Similar: make([]SimilarDTO, len(results)),
		Count:   len(results),
	}
	for i, res := range results {
		resp.Similar[i] = SimilarDTO(res)
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleUpload handles POST /api/songs with a multipart "audio" file. The
// file is kept in the upload directory and queued for analysis.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Only POST is allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.respondError(w, http.StatusBadRequest, "Failed to parse form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Missing 'audio' file field")
		return
	}
	defer file.Close()

	if err := utils.MakeDir(s.config.UploadDir); err != nil {
		s.log.Errorf("Failed to create upload dir: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	name := filepath.Base(header.Filename)
	ext := filepath.Ext(name)
	out, err := os.CreateTemp(s.config.UploadDir, strings.TrimSuffix(name, ext)+"-*"+ext)
	if err != nil {
		s.log.Errorf("Failed to create upload file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(out.Name())
		s.log.Errorf("Failed to write upload: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		s.respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	song := models.Song{ID: utils.SongIDFromPath(out.Name()), Path: out.Name()}
	s.enqueue(w, []models.Song{song}, false)
}

// handleAnalyze handles POST /api/analyze
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Only POST is allowed")
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	files, err := utils.CollectAudioFiles(req.Paths)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(files) == 0 {
		s.respondError(w, http.StatusBadRequest, "No audio files found")
		return
	}

	songs := make([]models.Song, len(files))
	for i, f := range files {
		songs[i] = models.Song{ID: utils.SongIDFromPath(f), Path: f}
	}
	s.enqueue(w, songs, req.Force)
}

func (s *Server) enqueue(w http.ResponseWriter, songs []models.Song, force bool) {
	jobID, err := s.queue.Submit(songs, force)
	if errors.Is(err, ErrQueueFull) {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	refs := make([]SongRef, len(songs))
	for i, song := range songs {
		refs[i] = SongRef{ID: song.ID, Path: song.Path}
	}
	s.respondJSON(w, http.StatusAccepted, AnalyzeResponse{
		Message: fmt.Sprintf("Queued %d song(s) for analysis", len(songs)),
		JobID:   jobID,
		Songs:   refs,
	})
}

// handleJob handles GET /api/jobs/{id}
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Only GET is allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "Job ID required")
		return
	}
	st, ok := s.queue.Status(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Job not found")
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}
