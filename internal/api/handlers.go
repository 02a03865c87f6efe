package api

import (
	"encoding/json"
	"net/http"

	"github.com/hideoutdb/searchd/internal/errors"
)

// errorResponse is the wire shape of every non-2xx reply.
type errorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeStatusError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Status: status, Message: message})
}

// writeError maps service errors to HTTP statuses: client mistakes to 400,
// everything else to 500. The stable error code rides along when present.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var se *errors.ServiceError
	if errors.As(err, &se) {
		if se.Category == errors.CategoryValidation {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Status: status, Message: se.Message, Code: se.Code})
		return
	}

	writeStatusError(w, status, err.Error())
}

// tokenResponse carries a freshly issued bearer token.
type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// handleToken exchanges the presented token for one with a fresh expiry.
// Expired tokens are accepted here so clients can renew without a second
// credential; the signature still has to check out.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	raw, ok := bearerToken(r)
	if !ok {
		writeStatusError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	claims, err := s.parseToken(raw, true)
	if err != nil {
		s.logger.Debug("token exchange rejected", "error", err)
		writeStatusError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	signed, expires, err := s.issueToken(claims)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{Token: signed, ExpiresAt: expires.Unix()})
}

type healthResponse struct {
	OK      bool          `json:"ok"`
	Service serviceHealth `json:"service"`
}

type serviceHealth struct {
	Index    int `json:"index"`
	Upstream int `json:"upstream"`
}

// handleHealth reports the freshness controller's view of the index and the
// upstream catalog.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.status.Snapshot()
	writeJSON(w, http.StatusOK, healthResponse{
		OK: snap.OK,
		Service: serviceHealth{
			Index:    int(snap.Index),
			Upstream: int(snap.Upstream),
		},
	})
}
