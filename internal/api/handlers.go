package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ventolog/ventolog/internal/ledger"
	"github.com/ventolog/ventolog/internal/record"
	"github.com/ventolog/ventolog/internal/schema"
)

// POST /generate-code
func (s *Server) handleGenerateCode(w http.ResponseWriter, r *http.Request) {
	code, err := s.ledger.IssueCode()
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"code": code})
}

// POST /login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Code string `json:"code"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	if payload.Code == "" {
		writeError(w, http.StatusBadRequest, "Code is required")
		return
	}

	err := s.ledger.AuthenticateCode(payload.Code)
	if errors.Is(err, ledger.ErrCodeNotFound) {
		writeError(w, http.StatusBadRequest, "Invalid code")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /generate-token
func (s *Server) handleGenerateToken(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Code string `json:"code"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	if payload.Code == "" {
		writeError(w, http.StatusBadRequest, "Code is required")
		return
	}

	token, err := s.ledger.IssueToken(payload.Code)
	if errors.Is(err, ledger.ErrCodeNotFound) {
		writeError(w, http.StatusBadRequest, "Invalid code")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// POST /logs accepts either a bearer token or a code in the body. A
// well-formed bearer header must carry a valid token and 401s when it
// does not; malformed headers fall through to code authentication.
// Validation runs before authentication, matching what clients already
// expect from the error ordering.
func (s *Server) handleSaveLog(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Log  json.RawMessage `json:"log"`
		Code string          `json:"code"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	if !isObject(payload.Log) {
		writeError(w, http.StatusBadRequest, "'log' (object) is required")
		return
	}
	if err := s.schema.ValidateLog(payload.Log); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	code := ""
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth != "" {
		if parts := strings.Fields(auth); len(parts) == 2 && parts[0] == "Bearer" {
			c, err := s.ledger.ResolveToken(parts[1])
			switch {
			case err == nil:
				code = c
			case errors.Is(err, ledger.ErrTokenInvalid):
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			default:
				s.serverError(w, r, err)
				return
			}
		}
	}
	if code == "" {
		if payload.Code == "" {
			writeError(w, http.StatusBadRequest, "Either 'code' in body or 'Authorization' header is required")
			return
		}
		exists, err := s.ledger.CodeExists(payload.Code)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		if !exists {
			writeError(w, http.StatusBadRequest, "Unknown code")
			return
		}
		code = payload.Code
	}

	var entry record.LogEntry
	if err := json.Unmarshal(payload.Log, &entry); err != nil {
		s.serverError(w, r, err)
		return
	}
	if err := s.ledger.AppendLog(code, entry); err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// GET /logs
func (s *Server) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.ledger.ListLogs(authedCode(r))
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

// POST /events
func (s *Server) handleSaveEvent(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Event json.RawMessage `json:"event"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	if !isObject(payload.Event) {
		writeError(w, http.StatusBadRequest, "'event' (object) is required")
		return
	}
	if err := s.schema.ValidateEvent(payload.Event); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	var body record.EventBody
	if err := json.Unmarshal(payload.Event, &body); err != nil {
		s.serverError(w, r, err)
		return
	}
	if _, err := s.ledger.AppendEvent(authedCode(r), body); err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// GET /events
func (s *Server) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.ledger.ListEvents(authedCode(r))
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// GET /code lets a logged-in device show the code for pairing another
// device.
func (s *Server) handleGetCode(w http.ResponseWriter, r *http.Request) {
	code := authedCode(r)
	if code == "" {
		writeError(w, http.StatusNotFound, "Code not found for this token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"code": code})
}

// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": Version})
}

// GET /test-protected
func (s *Server) handleTestProtected(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "authorized"})
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// validationMessage renders a schema failure for the response body.
// Field-attributed failures name the field; rule failures that span
// fields come back verbatim.
func validationMessage(err error) string {
	var verr *schema.ValidationError
	if !errors.As(err, &verr) {
		return err.Error()
	}
	if verr.Field == "" {
		return verr.Message
	}
	return fmt.Sprintf("Validation error in '%s': %s", verr.Field, verr.Message)
}
