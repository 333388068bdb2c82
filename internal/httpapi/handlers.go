package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"voicenav/internal/domain"
)

const audioField = "audio_blob"

// statusFor maps an error kind to its HTTP status.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidInput, domain.KindEmptyTranscription:
		return http.StatusBadRequest
	case domain.KindNoGeocodeMatch:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	msg := err.Error()
	var de *domain.Error
	if errors.As(err, &de) {
		msg = de.PublicMessage()
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "kind", kind, "error", err)
	}
	writeError(w, status, msg)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, indexHTML)
}

func (s *Server) handleOrigin(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.nav.Origin())
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "audio file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No audio file received")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(audioField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "No audio file received")
		return
	}
	data, err := io.ReadAll(file)
	_ = file.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, "read audio failed")
		return
	}

	res, err := s.nav.Transcribe(r.Context(), domain.AudioBlob{Filename: header.Filename, Data: data})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	var req domain.GeocodeRequest
	if !s.decodeJSONBody(w, r, &req) {
		return
	}
	if req.Text == nil {
		writeError(w, http.StatusBadRequest, "Missing text")
		return
	}

	res, err := s.nav.Geocode(r.Context(), *req.Text)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDirections(w http.ResponseWriter, r *http.Request) {
	var req domain.DirectionsRequest
	if !s.decodeJSONBody(w, r, &req) {
		return
	}
	if req.End == nil || req.End.Lat == nil || req.End.Lon == nil {
		writeError(w, http.StatusBadRequest, "Missing end")
		return
	}
	if req.TerminalID != "" && !domain.ValidTerminalID(req.TerminalID) {
		writeError(w, http.StatusBadRequest, "invalid terminal_id")
		return
	}

	dest := domain.Coordinate{Lat: *req.End.Lat, Lon: *req.End.Lon}
	steps, err := s.nav.Directions(r.Context(), dest, req.TerminalID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if steps == nil {
		steps = []domain.StepView{}
	}
	writeJSON(w, http.StatusOK, domain.DirectionsResponse{Steps: steps})
}

// decodeJSONBody writes the 400 itself and reports whether decoding worked.
func (s *Server) decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		// empty body reads as an empty object
		if errors.Is(err, io.EOF) {
			return true
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}
