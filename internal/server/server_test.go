package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/sightline/internal/core/clipper"
	"github.com/zeusync/sightline/internal/core/shadow"
	"github.com/zeusync/sightline/internal/core/visibility"
)

const halfShadowRequest = `{
  "bounds": {"min": [-1000, -1000], "max": [1000, 1000]},
  "walls": [{"a": [-100, 5], "b": [100, 5], "bottom": 0, "top": 6}],
  "viewer": {"id": "archer", "position": [15, 0, 9]},
  "target": {"id": "goblin", "footprint": [[10, 10], [20, 10], [20, 20], [10, 20]]},
  "percent_area": 0.5
}`

const courtyardYAML = `
bounds: {min: [-1000, -1000], max: [1000, 1000]}
walls:
  - {a: [-100, 5], b: [100, 5], bottom: 0, top: 6}
viewers:
  - {id: archer, position: [15, 0, 9]}
targets:
  - {id: goblin, footprint: [[10, 10], [20, 10], [20, 20], [10, 20]]}
checks:
  - {viewer: archer, target: goblin, percent_area: 0.5}
  - {viewer: archer, target: goblin, percent_area: 0.6}
`

func newTestServer(t *testing.T, config Config) (*Server, *httptest.Server) {
	t.Helper()
	clip := clipper.New(clipper.DefaultScale)
	strategy, err := visibility.NewStrategy(visibility.TwoDimensionalKind, clip, shadow.NewBuilder(shadow.DefaultMaxThrow, nil, nil), nil)
	require.NoError(t, err)
	s := NewServer(visibility.NewEngine(strategy, clip, nil), config, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, DefaultServerConfig())

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "ok", body.Status)
	require.Equal(t, "2d", body.Strategy)
}

func TestVisibility(t *testing.T) {
	s, ts := newTestServer(t, DefaultServerConfig())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/visibility", strings.NewReader(halfShadowRequest))
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "req-1", resp.Header.Get("X-Request-ID"))

	var res visibility.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	require.True(t, res.HasLOS)
	require.Equal(t, visibility.ReasonArea, res.Reason)
	require.InDelta(t, 0.5, *res.PercentVisible, 1e-9)
	require.EqualValues(t, 1, s.evaluated.Load())
}

func TestVisibilityRejects(t *testing.T) {
	config := DefaultServerConfig()
	config.MaxBodyBytes = 1 << 10
	_, ts := newTestServer(t, config)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"not json", "{", http.StatusBadRequest},
		{"unknown field", `{"viewer": {"position": [0, 0, 0]}, "light": 1}`, http.StatusBadRequest},
		{"missing footprint", `{"viewer": {"position": [0, 0, 0]}, "target": {}}`, http.StatusBadRequest},
		{"too large", `{"walls": [` + strings.Repeat(`{"a": [0, 0], "b": [1, 1]},`, 100) + `{"a": [0, 0], "b": [1, 1]}]}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/v1/visibility", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tt.status, resp.StatusCode)

			var body errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			require.NotEmpty(t, body.Error)
			require.NotEmpty(t, body.RequestID)
		})
	}

	for _, path := range []string{"/v1/visibility", "/v1/scenes/evaluate"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, path)

		var body errorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		require.Contains(t, body.Error, ErrMethodNotAllowed.Error())
	}

	resp, err := http.Post(ts.URL+"/healthz", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestEvaluateScene(t *testing.T) {
	_, ts := newTestServer(t, DefaultServerConfig())

	resp, err := http.Post(ts.URL+"/v1/scenes/evaluate", "application/yaml", strings.NewReader(courtyardYAML))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body evaluateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Fingerprint, 16)
	require.Len(t, body.Evaluations, 2)
	require.True(t, body.Evaluations[0].HasLOS)
	require.False(t, body.Evaluations[1].HasLOS)

	resp, err = http.Post(ts.URL+"/v1/scenes/evaluate", "application/json", bytes.NewReader([]byte(`{"viewers": []}`)))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestToken(t *testing.T) {
	config := DefaultServerConfig()
	config.Token = "supersecrettoken"
	_, ts := newTestServer(t, config)

	resp, err := http.Post(ts.URL+"/v1/visibility", "application/json", strings.NewReader(halfShadowRequest))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/visibility", strings.NewReader(halfShadowRequest))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer supersecrettoken")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Health stays open.
	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStream(t *testing.T) {
	config := DefaultServerConfig()
	config.Token = "supersecrettoken"
	_, ts := newTestServer(t, config)

	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/stream"

	_, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err, "connecting without a token must fail")

	_, _, err = websocket.DefaultDialer.Dial(u+"?token=invalid", nil)
	require.Error(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(u+"?token=supersecrettoken", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"id": "q1", "query": `+halfShadowRequest+`}`)))
	var resp StreamResponse
	require.NoError(t, conn.ReadJSON(&resp))
	require.Equal(t, "q1", resp.ID)
	require.Empty(t, resp.Error)
	require.NotNil(t, resp.Result)
	require.True(t, resp.Result.HasLOS)

	// A bad message is answered and the stream stays open.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"id": "q2", "query": {"target": {}}}`)))
	resp = StreamResponse{}
	require.NoError(t, conn.ReadJSON(&resp))
	require.Equal(t, "q2", resp.ID)
	require.NotEmpty(t, resp.Error)
	require.Nil(t, resp.Result)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	resp = StreamResponse{}
	require.NoError(t, conn.ReadJSON(&resp))
	require.NotEmpty(t, resp.Error)
}

func TestStartStop(t *testing.T) {
	config := DefaultServerConfig()
	config.ListenAddr = "127.0.0.1:0"
	s, _ := newTestServer(t, config)

	require.ErrorIs(t, s.Stop(context.Background()), ErrServerNotRunning)
	require.NoError(t, s.Start(context.Background()))
	require.ErrorIs(t, s.Start(context.Background()), ErrServerAlreadyRunning)

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+"/v1/stream", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"query": `+halfShadowRequest+`}`)))
	var reply StreamResponse
	require.NoError(t, conn.ReadJSON(&reply))
	require.NotNil(t, reply.Result)

	require.NoError(t, s.Stop(context.Background()))
	_, _, err = conn.ReadMessage()
	require.Error(t, err, "open streams are closed on stop")

	require.ErrorIs(t, s.Start(context.Background()), ErrServerClosed)
}

func TestAddrWhileStarting(t *testing.T) {
	config := DefaultServerConfig()
	config.ListenAddr = "127.0.0.1:0"
	s, _ := newTestServer(t, config)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = s.Addr()
		}
	}()
	require.NoError(t, s.Start(context.Background()))
	wg.Wait()

	require.NotEqual(t, "127.0.0.1:0", s.Addr())
	require.NoError(t, s.Stop(context.Background()))
}
