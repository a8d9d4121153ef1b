package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rubiojr/minigrep/pkg/content"
	"github.com/rubiojr/minigrep/pkg/grep"
	"github.com/rubiojr/minigrep/pkg/version"
)

// requestError is a request that was rejected before reaching the engine.
type requestError struct {
	status  int
	error   string
	message string
}

func (e *requestError) Error() string {
	return e.error + ": " + e.message
}

// HandleSearch runs the plain case-sensitive search.
func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := s.decodeRequest(w, r, &req); err != nil {
		s.writeRequestError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, newSearchResponse(grep.Search(req.Query, req.Content)))
}

// HandleGrep runs a search in any mode.
func (s *Server) HandleGrep(w http.ResponseWriter, r *http.Request) {
	var req GrepRequest
	if err := s.decodeRequest(w, r, &req); err != nil {
		s.writeRequestError(w, err)
		return
	}

	res := grep.Run(req.Query, req.Content, req.options())
	s.writeJSON(w, http.StatusOK, newGrepResponse(res))
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
	}

	s.writeJSON(w, http.StatusOK, health)
}

// HandleWebsocket answers each text message, a GrepRequest, with a
// GrepResponse or an ErrorResponse on the same connection.
func (s *Server) HandleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		s.logger.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(s.Limits().MaxContentBytes)

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warnf("websocket read: %v", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			if err := conn.WriteJSON(ErrorResponse{Error: "Unsupported message", Message: "Only text messages are accepted"}); err != nil {
				return
			}
			continue
		}

		var req GrepRequest
		var reply any
		if err := json.Unmarshal(data, &req); err != nil {
			reply = ErrorResponse{Error: "Invalid JSON", Message: err.Error()}
		} else {
			reply = newGrepResponse(grep.Run(req.Query, req.Content, req.options()))
		}

		if err := conn.WriteJSON(reply); err != nil {
			s.logger.Warnf("websocket write: %v", err)
			return
		}
	}
}

// decodeRequest reads a possibly compressed JSON body into v, enforcing the
// configured size limit on the decoded bytes.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request, v any) error {
	limit := s.Limits().MaxContentBytes
	body := http.MaxBytesReader(w, r.Body, limit)

	decoded, err := content.Decode(body, r.Header.Get("Content-Encoding"))
	if err != nil {
		if errors.Is(err, content.ErrUnsupportedEncoding) {
			return &requestError{http.StatusUnsupportedMediaType, "Unsupported encoding", err.Error()}
		}
		return bodyError(err, limit)
	}
	defer decoded.Close()

	data, err := io.ReadAll(io.LimitReader(decoded, limit+1))
	if err != nil {
		return bodyError(err, limit)
	}
	if int64(len(data)) > limit {
		return tooLarge(limit)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return &requestError{http.StatusBadRequest, "Invalid JSON", err.Error()}
	}
	return nil
}

func bodyError(err error, limit int64) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return tooLarge(limit)
	}
	return &requestError{http.StatusBadRequest, "Invalid body", err.Error()}
}

func tooLarge(limit int64) error {
	return &requestError{http.StatusRequestEntityTooLarge, "Request too large", fmt.Sprintf("Request body exceeds %d bytes", limit)}
}

func (s *Server) writeRequestError(w http.ResponseWriter, err error) {
	var reqErr *requestError
	if !errors.As(err, &reqErr) {
		s.writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
		return
	}
	s.logger.Debugf("rejected request: %v", reqErr)
	s.writeError(w, reqErr.status, reqErr.error, reqErr.message)
}
