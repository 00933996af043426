package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley/agent"
	"github.com/parleyhq/parley/llm"
	"github.com/parleyhq/parley/session"
	"github.com/parleyhq/parley/tools"
)

// echoClient answers every chat with the last user message, so each request's
// response can be matched back to its own query.
type echoClient struct{}

func (echoClient) Chat(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (*session.Message, error) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return &session.Message{Role: "assistant", Content: "echo: " + messages[i].Content}, nil
		}
	}
	return &session.Message{Role: "assistant", Content: "echo:"}, nil
}

type erroringClient struct{}

func (erroringClient) Chat(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (*session.Message, error) {
	return nil, fmt.Errorf("provider unavailable")
}

// stallingClient blocks until the request context expires.
type stallingClient struct{}

func (stallingClient) Chat(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (*session.Message, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func newTestServer(client llm.Client, timeout time.Duration) (*Server, *session.MemoryStore) {
	store := session.NewMemoryStore()
	a := agent.New(client, nil, "test prompt", 4)
	return New(":0", a, store, timeout), store
}

func postInvoke(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/invoke", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(erroringClient{}, time.Second)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	// Health stays green even though the provider client always fails.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestInvokeSuccess(t *testing.T) {
	srv, _ := newTestServer(echoClient{}, time.Second)
	rec := postInvoke(t, srv.Handler(), `{"query": "hello"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var body invokeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "echo: hello", body.Response)
	assert.Empty(t, body.SessionID)
}

func TestInvokeEmptyQuery(t *testing.T) {
	srv, _ := newTestServer(echoClient{}, time.Second)
	for _, body := range []string{`{"query": ""}`, `{"query": "   "}`, `{}`} {
		rec := postInvoke(t, srv.Handler(), body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Error)
	}
}

func TestInvokeMalformedJSON(t *testing.T) {
	srv, _ := newTestServer(echoClient{}, time.Second)
	rec := postInvoke(t, srv.Handler(), `{"query": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvokeWrongMethod(t *testing.T) {
	srv, _ := newTestServer(echoClient{}, time.Second)
	req := httptest.NewRequest(http.MethodGet, "/invoke", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestInvokeDownstreamFailure(t *testing.T) {
	srv, _ := newTestServer(erroringClient{}, time.Second)
	rec := postInvoke(t, srv.Handler(), `{"query": "hello"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "agent invocation failed")
	assert.NotContains(t, resp.Error, "provider unavailable")
}

func TestInvokeTimeout(t *testing.T) {
	srv, _ := newTestServer(stallingClient{}, 50*time.Millisecond)
	rec := postInvoke(t, srv.Handler(), `{"query": "hello"}`)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestInvokeWithSessionAccumulatesHistory(t *testing.T) {
	srv, store := newTestServer(echoClient{}, time.Second)

	rec := postInvoke(t, srv.Handler(), `{"query": "first", "session_id": "abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body invokeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "abc", body.SessionID)

	rec = postInvoke(t, srv.Handler(), `{"query": "second", "session_id": "abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	sess, err := store.Get(context.Background(), "abc")
	require.NoError(t, err)
	// Two turns of user + assistant each.
	require.Len(t, sess.Messages, 4)
	assert.Equal(t, "first", sess.Messages[0].Content)
	assert.Equal(t, "second", sess.Messages[2].Content)
}

func TestInvokeWithoutSessionLeavesNoState(t *testing.T) {
	srv, store := newTestServer(echoClient{}, time.Second)
	rec := postInvoke(t, srv.Handler(), `{"query": "stateless"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// Nothing should have been persisted.
	_, err := store.Get(context.Background(), "")
	assert.Error(t, err)
}

func TestConcurrentInvokesDoNotCrossTalk(t *testing.T) {
	srv, _ := newTestServer(echoClient{}, 5*time.Second)
	handler := srv.Handler()

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			query := fmt.Sprintf("query-%d", i)
			payload, _ := json.Marshal(map[string]string{"query": query})
			req := httptest.NewRequest(http.MethodPost, "/invoke", bytes.NewReader(payload))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				errs <- fmt.Errorf("request %d: status %d", i, rec.Code)
				return
			}
			var body invokeResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				errs <- fmt.Errorf("request %d: %v", i, err)
				return
			}
			if body.Response != "echo: "+query {
				errs <- fmt.Errorf("request %d: got response %q", i, body.Response)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(echoClient{}, time.Second)
	req := httptest.NewRequest(http.MethodOptions, "/invoke", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
