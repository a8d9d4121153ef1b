package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/rubiojr/minigrep/pkg/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const poem = "Rust:\nsafe, fast, productive.\nPick three.\nTrust me."

func setupTestAPIServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	server := NewServer(Limits{MaxContentBytes: 1 << 20, CORS: true})
	return server, server.Handler()
}

func postJSON(t *testing.T, h http.Handler, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestAPISearch(t *testing.T) {
	_, h := setupTestAPIServer(t)

	w := postJSON(t, h, "/api/search", `{"query": "road", "content": "Two roads diverged\nAnd sorry"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"matches": ["Two roads diverged"], "count": 1}`, w.Body.String())
}

func TestAPISearchIsCaseSensitive(t *testing.T) {
	_, h := setupTestAPIServer(t)

	w := postJSON(t, h, "/api/search", mustJSON(t, SearchRequest{Query: "duct", Content: strings.Replace(poem, "Trust me.", "Duct tape.", 1)}), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"matches": ["safe, fast, productive."], "count": 1}`, w.Body.String())
}

func TestAPISearchNoMatchesIsEmptyList(t *testing.T) {
	_, h := setupTestAPIServer(t)

	for _, body := range []string{
		`{"query": "zzz", "content": "abc"}`,
		`{"query": "abc", "content": ""}`,
		`{}`,
	} {
		w := postJSON(t, h, "/api/search", body, nil)
		require.Equal(t, http.StatusOK, w.Code, body)
		assert.JSONEq(t, `{"matches": [], "count": 0}`, w.Body.String(), body)
	}
}

func TestAPISearchEmptyQueryMatchesAll(t *testing.T) {
	_, h := setupTestAPIServer(t)

	w := postJSON(t, h, "/api/search", `{"query": "", "content": "a\nb"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"matches": ["a", "b"], "count": 2}`, w.Body.String())
}

func TestAPISearchMalformedJSON(t *testing.T) {
	_, h := setupTestAPIServer(t)

	for _, body := range []string{`{"query": `, `not json`, `{"query": 5}`, ``} {
		w := postJSON(t, h, "/api/search", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Invalid JSON", resp.Error)
	}
}

func TestAPISearchWrongMethod(t *testing.T) {
	_, h := setupTestAPIServer(t)

	req := httptest.NewRequest("GET", "/api/search", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestAPISearchTooLarge(t *testing.T) {
	server, h := setupTestAPIServer(t)
	server.SetLimits(Limits{MaxContentBytes: 64, CORS: true})

	body := mustJSON(t, SearchRequest{Query: "x", Content: strings.Repeat("x", 128)})
	w := postJSON(t, h, "/api/search", body, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestAPISearchCompressedBodies(t *testing.T) {
	_, h := setupTestAPIServer(t)
	body := `{"query": "road", "content": "Two roads diverged\nAnd sorry"}`

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zst := enc.EncodeAll([]byte(body), nil)
	enc.Close()

	for encoding, payload := range map[string][]byte{"gzip": gz.Bytes(), "zstd": zst} {
		t.Run(encoding, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/search", bytes.NewReader(payload))
			req.Header.Set("Content-Encoding", encoding)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"matches": ["Two roads diverged"], "count": 1}`, w.Body.String())
		})
	}
}

func TestAPICompressedBodyLimitAppliesAfterDecoding(t *testing.T) {
	server, h := setupTestAPIServer(t)
	server.SetLimits(Limits{MaxContentBytes: 256})

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte(mustJSON(t, SearchRequest{Query: "a", Content: strings.Repeat("a", 4096)})))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.Less(t, gz.Len(), 256)

	req := httptest.NewRequest("POST", "/api/search", bytes.NewReader(gz.Bytes()))
	req.Header.Set("Content-Encoding", "gzip")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestAPISearchUnsupportedEncoding(t *testing.T) {
	_, h := setupTestAPIServer(t)

	w := postJSON(t, h, "/api/search", `{}`, map[string]string{"Content-Encoding": "br"})
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestAPIGrep(t *testing.T) {
	_, h := setupTestAPIServer(t)

	tests := []struct {
		name string
		req  GrepRequest
		want string
	}{
		{
			name: "plain",
			req:  GrepRequest{Query: "rust"},
			want: `{"matches": [{"line": "Trust me."}], "count": 1}`,
		},
		{
			name: "ignore case",
			req:  GrepRequest{Query: "rUsT", IgnoreCase: true},
			want: `{"matches": [{"line": "Rust:"}, {"line": "Trust me."}], "count": 2}`,
		},
		{
			name: "line numbers",
			req:  GrepRequest{Query: "duct", LineNumbers: true},
			want: `{"matches": [{"line_number": 2, "line": "safe, fast, productive."}], "count": 1}`,
		},
		{
			name: "ignore case with line numbers",
			req:  GrepRequest{Query: "RUST", IgnoreCase: true, LineNumbers: true},
			want: `{"matches": [{"line_number": 1, "line": "Rust:"}, {"line_number": 4, "line": "Trust me."}], "count": 2}`,
		},
		{
			name: "count wins over line numbers",
			req:  GrepRequest{Query: "rust", IgnoreCase: true, LineNumbers: true, Count: true},
			want: `{"count": 2}`,
		},
		{
			name: "no matches",
			req:  GrepRequest{Query: "python"},
			want: `{"matches": [], "count": 0}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Content = poem
			w := postJSON(t, h, "/api/grep", mustJSON(t, tt.req), nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
		})
	}
}

func TestAPIHealth(t *testing.T) {
	_, h := setupTestAPIServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, version.APIVersion(), resp.Version)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestAPICors(t *testing.T) {
	server, h := setupTestAPIServer(t)

	req := httptest.NewRequest("OPTIONS", "/api/search", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	server.SetLimits(Limits{MaxContentBytes: 1 << 20, CORS: false})
	w = postJSON(t, h, "/api/search", `{}`, nil)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPIRequestID(t *testing.T) {
	_, h := setupTestAPIServer(t)

	w := postJSON(t, h, "/api/search", `{}`, nil)
	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	id := uuid.NewString()
	w = postJSON(t, h, "/api/search", `{}`, map[string]string{RequestIDHeader: id})
	assert.Equal(t, id, w.Header().Get(RequestIDHeader))

	w = postJSON(t, h, "/api/search", `{}`, map[string]string{RequestIDHeader: "not-a-uuid"})
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(RequestIDHeader))
}

func TestAPIConcurrentRequests(t *testing.T) {
	_, h := setupTestAPIServer(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := postJSON(t, h, "/api/search", `{"query": "road", "content": "Two roads diverged\nAnd sorry"}`, nil)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"matches": ["Two roads diverged"], "count": 1}`, w.Body.String())
		}()
	}
	wg.Wait()
}

func wsDial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	u, _ := url.Parse(ts.URL)
	u.Scheme = "ws"
	u.Path = "/api/ws"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestAPIWebsocket(t *testing.T) {
	_, h := setupTestAPIServer(t)
	ts := httptest.NewServer(h)
	defer ts.Close()

	conn := wsDial(t, ts)

	require.NoError(t, conn.WriteJSON(GrepRequest{Query: "rust", Content: poem, IgnoreCase: true, LineNumbers: true}))
	var resp GrepResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, GrepResponse{
		Matches: []GrepMatch{{LineNumber: 1, Line: "Rust:"}, {LineNumber: 4, Line: "Trust me."}},
		Count:   2,
	}, resp)

	require.NoError(t, conn.WriteJSON(GrepRequest{Query: "e", Content: poem, Count: true}))
	var counted GrepResponse
	require.NoError(t, conn.ReadJSON(&counted))
	assert.Equal(t, 3, counted.Count)
	assert.Nil(t, counted.Matches)
}

func TestAPIWebsocketMalformedMessage(t *testing.T) {
	_, h := setupTestAPIServer(t)
	ts := httptest.NewServer(h)
	defer ts.Close()

	conn := wsDial(t, ts)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{nope")))
	var errResp ErrorResponse
	require.NoError(t, conn.ReadJSON(&errResp))
	assert.Equal(t, "Invalid JSON", errResp.Error)

	// The connection stays usable after a bad message.
	require.NoError(t, conn.WriteJSON(GrepRequest{Query: "Pick", Content: poem}))
	var resp GrepResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, 1, resp.Count)
}

func TestAPIWebsocketRejectsForeignOriginWithoutCORS(t *testing.T) {
	server, h := setupTestAPIServer(t)
	server.SetLimits(Limits{MaxContentBytes: 1 << 20, CORS: false})
	ts := httptest.NewServer(h)
	defer ts.Close()

	u, _ := url.Parse(ts.URL)
	u.Scheme = "ws"
	u.Path = "/api/ws"

	header := http.Header{}
	header.Set("Origin", "http://elsewhere.example")
	_, resp, err := websocket.DefaultDialer.Dial(u.String(), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
