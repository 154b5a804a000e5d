package main

import (
	"fmt"
	"time"
)

// MaxAnalyzePaths bounds the number of paths one POST /api/analyze may name.
const MaxAnalyzePaths = 1000

// AnalyzeRequest is the request body for POST /api/analyze
type AnalyzeRequest struct {
	// Paths are audio files or directories readable by the server.
	Paths []string `json:"paths"`
	// Force re-extracts songs that already have stored segments.
	Force bool `json:"force,omitempty"`
}

// Validate checks if the request is valid
func (r *AnalyzeRequest) Validate() error {
	if len(r.Paths) == 0 {
		return fmt.Errorf("paths cannot be empty")
	}
	if len(r.Paths) > MaxAnalyzePaths {
		return fmt.Errorf("too many paths: %d (maximum: %d)", len(r.Paths), MaxAnalyzePaths)
	}
	for _, p := range r.Paths {
		if p == "" {
			return fmt.Errorf("paths cannot contain empty entries")
		}
	}
	return nil
}

// SongRef names a song queued for analysis.
type SongRef struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// AnalyzeResponse is returned when songs are queued
type AnalyzeResponse struct {
	Message string    `json:"message"`
	JobID   string    `json:"job_id"`
	Songs   []SongRef `json:"songs"`
}

// JobResponse reports the state of a queued analysis job
type JobResponse struct {
	JobID      string     `json:"job_id"`
	Status     string     `json:"status"`
	Songs      int        `json:"songs"`
	Error      string     `json:"error,omitempty"`
	QueuedAt   time.Time  `json:"queued_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// SimilarDTO is one entry of a similarity list
type SimilarDTO struct {
	SegmentID string  `json:"segment_id"`
	SongID    string  `json:"song_id"`
	FromMs    int     `json:"from_time"`
	ToMs      int     `json:"to_time"`
	Distance  float64 `json:"distance"`
}

// SimilarResponse is the response for GET /api/similar
type SimilarResponse struct {
	SongID  string       `json:"song_id"`
	FromMs  int          `json:"from_ms"`
	Similar []SimilarDTO `json:"similar"`
	Count   int          `json:"count"`
}

// MetricsResponse provides server health and corpus metrics
type MetricsResponse struct {
	Status       string `json:"status"`
	Backend      string `json:"backend"`
	DatabasePath string `json:"database_path,omitempty"`
	SongCount    int    `json:"song_count"`
	SegmentCount int    `json:"segment_count"`
	Incomplete   int    `json:"incomplete_count"`
	Matches      int    `json:"matches"`
	SampleRate   int    `json:"sample_rate"`
	QueuedJobs   int    `json:"queued_jobs"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
