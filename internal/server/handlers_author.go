package server

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/kinetic/internal/models"
)

// maxUploadBytes caps documents sent for extraction.
const maxUploadBytes = 10 << 20

// generateRequest drafts from an idea or from free text, not both.
type generateRequest struct {
	Idea   *models.ProgramIdea `json:"idea"`
	Prompt string              `json:"prompt"`
}

func (s *Server) handleIdeas(w http.ResponseWriter, r *http.Request) {
	if !s.authorReady(w) {
		return
	}
	done := s.observeAuthor("ideas")
	ideas, err := s.author.DiscoverIdeas(r.Context())
	done(err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ideas)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !s.authorReady(w) {
		return
	}
	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Idea == nil && strings.TrimSpace(req.Prompt) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "idea or prompt required"})
		return
	}

	profile, err := s.store.GetProfile(r.Context(), ns(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	if req.Idea != nil {
		done := s.observeAuthor("generate_idea")
		draft, err := s.author.GenerateFromIdea(r.Context(), *req.Idea, profile)
		done(err)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, draft)
		return
	}

	done := s.observeAuthor("generate_prompt")
	draft, err := s.author.GenerateFromPrompt(r.Context(), req.Prompt, profile)
	done(err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if !s.authorReady(w) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<10)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid upload: " + err.Error()})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file field required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading upload: " + err.Error()})
		return
	}
	if len(data) > maxUploadBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "document exceeds 10 MB"})
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	done := s.observeAuthor("extract")
	draft, err := s.author.ExtractFromDocument(r.Context(), mimeType, data)
	done(err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("program extracted", "file", header.Filename, "type", mimeType, "warnings", len(draft.Warnings))
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) authorReady(w http.ResponseWriter) bool {
	if s.author == nil || !s.author.Available() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "AI program authoring is not configured"})
		return false
	}
	return true
}

// observeAuthor starts timing an AI call; the returned func records the
// outcome.
func (s *Server) observeAuthor(op string) func(error) {
	start := time.Now()
	return func(err error) {
		if s.metrics == nil {
			return
		}
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		s.metrics.CounterAuthorCalls.WithLabelValues(op, outcome).Inc()
		s.metrics.HistAuthorDuration.Observe(time.Since(start).Seconds())
	}
}
