package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(urls ...string) Config {
	cfg := DefaultConfig()
	cfg.Endpoints = nil
	for i, u := range urls {
		cfg.Endpoints = append(cfg.Endpoints, Endpoint{
			Name:      fmt.Sprintf("ep%d", i+1),
			Transport: TransportDirect,
			URL:       u,
		})
	}
	return cfg
}

// streamHandler writes each chunk and flushes it so the client sees separate reads.
func streamHandler(t *testing.T, hits *atomic.Int32, chunks ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		for _, c := range chunks {
			_, _ = io.WriteString(w, c)
			flusher.Flush()
		}
	}
}

func statusHandler(hits *atomic.Int32, code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(code)
		_, _ = w.Write([]byte("upstream unhappy"))
	}
}

type captureObserver struct {
	events  []AttemptEvent
	unknown []string
}

func (o *captureObserver) OnAttemptComplete(e AttemptEvent) { o.events = append(o.events, e) }

func (o *captureObserver) OnUnknownFrame(_ string, line string) { o.unknown = append(o.unknown, line) }

func TestClient_Send_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("X-Requested-With"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"conversation_id": "prev-1", "query": "分析我的技能"}, body)

		streamHandler(t, nil, "data: Hel", "lo Wor", "ld\n[DONE]\nEND_abc123\n")(w, r)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	res := client.Send(context.Background(), Request{ConversationID: "prev-1", Query: "分析我的技能"})

	require.True(t, res.Success, res.ErrorMessage())
	assert.Equal(t, "Hello World", res.Content)
	assert.Equal(t, "abc123", res.ConversationID)
	assert.Equal(t, "ep1", res.Endpoint)
	assert.Empty(t, res.ErrorMessage())
}

func TestClient_Send_FallsThroughToThirdCandidate(t *testing.T) {
	var second, third, fourth atomic.Int32

	failing := httptest.NewServer(statusHandler(&second, http.StatusBadGateway))
	defer failing.Close()
	good := httptest.NewServer(streamHandler(t, &third, "data: ok\nEND_c3\n"))
	defer good.Close()
	extra := httptest.NewServer(streamHandler(t, &fourth, "data: never\n"))
	defer extra.Close()

	obs := &captureObserver{}
	client := NewClient(testConfig("http://127.0.0.1:1/chat", failing.URL, good.URL, extra.URL), WithObserver(obs))

	var attempts []string
	res := client.Send(context.Background(), Request{
		Query:     "q",
		OnAttempt: func(ep Endpoint, n int) { attempts = append(attempts, fmt.Sprintf("%s#%d", ep.Name, n)) },
	})

	require.True(t, res.Success, res.ErrorMessage())
	assert.Equal(t, "ok", res.Content)
	assert.Equal(t, "c3", res.ConversationID)
	assert.Equal(t, "ep3", res.Endpoint)
	assert.Equal(t, int32(1), second.Load())
	assert.Equal(t, int32(1), third.Load())
	assert.Equal(t, int32(0), fourth.Load())
	assert.Equal(t, []string{"ep1#1", "ep2#2", "ep3#3"}, attempts)

	require.Len(t, obs.events, 3)
	assert.False(t, obs.events[0].Success)
	assert.Equal(t, "UNAVAILABLE", obs.events[0].ErrorCode)
	assert.Equal(t, "HTTP_502", obs.events[1].ErrorCode)
	assert.True(t, obs.events[2].Success)
	assert.True(t, obs.events[2].Completed)
}

func TestClient_Send_AllCandidatesFail(t *testing.T) {
	var hits atomic.Int32
	bad := httptest.NewServer(statusHandler(&hits, http.StatusInternalServerError))
	defer bad.Close()

	client := NewClient(testConfig("http://127.0.0.1:1/chat", bad.URL, bad.URL))
	res := client.Send(context.Background(), Request{Query: "q"})

	assert.False(t, res.Success)
	assert.Empty(t, res.Content)
	assert.Empty(t, res.ConversationID)
	assert.NotEmpty(t, res.ErrorMessage())
	assert.ErrorIs(t, res.Err, ErrAllEndpointsFailed)
	assert.Contains(t, res.ErrorMessage(), "ep3")

	var statusErr *StatusError
	require.ErrorAs(t, res.Err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_Send_NoEndpoints(t *testing.T) {
	client := NewClient(testConfig())
	res := client.Send(context.Background(), Request{Query: "q"})

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrNoEndpoints)
}

func TestClient_Send_TimeoutAdvances(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()
	fast := httptest.NewServer(streamHandler(t, nil, "data: fast\n"))
	defer fast.Close()

	cfg := testConfig(slow.URL, fast.URL)
	cfg.AttemptTimeoutMs = 50
	obs := &captureObserver{}
	client := NewClient(cfg, WithObserver(obs))

	res := client.Send(context.Background(), Request{Query: "q"})

	require.True(t, res.Success, res.ErrorMessage())
	assert.Equal(t, "fast", res.Content)
	assert.Equal(t, "ep2", res.Endpoint)
	require.Len(t, obs.events, 2)
	assert.Equal(t, "TIMEOUT", obs.events[0].ErrorCode)
	assert.ErrorIs(t, obs.events[0].Err, ErrTimeout)
}

func TestClient_Send_SlowLiveStreamOutlastsTimeout(t *testing.T) {
	var hits atomic.Int32
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		for range 6 {
			_, _ = io.WriteString(w, "data: x\n")
			w.(http.Flusher).Flush()
			time.Sleep(40 * time.Millisecond)
		}
		_, _ = io.WriteString(w, "END_slow\n")
	}))
	defer slow.Close()

	cfg := testConfig(slow.URL, slow.URL)
	cfg.AttemptTimeoutMs = 100
	res := NewClient(cfg).Send(context.Background(), Request{Query: "q"})

	require.True(t, res.Success, res.ErrorMessage())
	assert.Equal(t, "xxxxxx", res.Content)
	assert.Equal(t, "slow", res.ConversationID)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_Send_CallerCancelMidStream(t *testing.T) {
	var hits atomic.Int32
	stalled := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, "data: partial\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer stalled.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res := NewClient(testConfig(stalled.URL, stalled.URL)).Send(ctx, Request{
		Query:      "q",
		OnFragment: func(string) { cancel() },
	})

	assert.False(t, res.Success)
	assert.Empty(t, res.Content)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.NotErrorIs(t, res.Err, ErrTimeout)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_Send_ZeroTimeoutUsesDefault(t *testing.T) {
	srv := httptest.NewServer(streamHandler(t, nil, "data: fine\n"))
	defer srv.Close()

	client := NewClient(Config{
		Endpoints: []Endpoint{{Name: "only", Transport: TransportDirect, URL: srv.URL}},
		Markers:   DefaultMarkers(),
	})
	res := client.Send(context.Background(), Request{Query: "q"})

	require.True(t, res.Success, res.ErrorMessage())
	assert.Equal(t, "fine", res.Content)
}

// fakeDoer serves canned responses per URL without a network.
type fakeDoer struct {
	calls     []string
	responses map[string]func() (*http.Response, error)
}

func (d *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls = append(d.calls, req.URL.String())
	return d.responses[req.URL.String()]()
}

type failingBody struct {
	data io.Reader
	err  error
}

func (b *failingBody) Read(p []byte) (int, error) {
	n, err := b.data.Read(p)
	if errors.Is(err, io.EOF) {
		return n, b.err
	}
	return n, err
}

func (b *failingBody) Close() error { return nil }

func TestClient_Send_StreamErrorDiscardsPartialAndAdvances(t *testing.T) {
	reset := errors.New("connection reset by peer")
	var fragments []string
	doer := &fakeDoer{responses: map[string]func() (*http.Response, error){
		"http://a.test/chat": func() (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       &failingBody{data: strings.NewReader("data: lost\n"), err: reset},
			}, nil
		},
		"http://b.test/chat": func() (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader("data: kept\ndata: [DONE]\nEND_b")),
			}, nil
		},
	}}

	client := NewClient(testConfig("http://a.test/chat", "http://b.test/chat"), WithHTTPClient(doer))
	res := client.Send(context.Background(), Request{
		Query:      "q",
		OnFragment: func(f string) { fragments = append(fragments, f) },
	})

	require.True(t, res.Success, res.ErrorMessage())
	assert.Equal(t, "kept", res.Content)
	assert.Equal(t, "b", res.ConversationID)
	assert.Equal(t, []string{"http://a.test/chat", "http://b.test/chat"}, doer.calls)
	assert.Equal(t, []string{"lost", "kept"}, fragments)
}

func TestClient_Send_EmptyBodyFails(t *testing.T) {
	doer := &fakeDoer{responses: map[string]func() (*http.Response, error){
		"http://a.test/chat": func() (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
		},
	}}

	client := NewClient(testConfig("http://a.test/chat"), WithHTTPClient(doer))
	res := client.Send(context.Background(), Request{Query: "q"})

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrEmptyBody)
}

func TestClient_Send_CORSProxyHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		assert.Equal(t, "https://app.example", r.Header.Get("Origin"))
		_, _ = io.WriteString(w, "data: via relay\n")
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Origin = "https://app.example"
	cfg.Endpoints = []Endpoint{{Name: "relay", Transport: TransportCORSProxy, URL: srv.URL}}

	res := NewClient(cfg).Send(context.Background(), Request{Query: "q"})

	require.True(t, res.Success, res.ErrorMessage())
	assert.Equal(t, "via relay", res.Content)
}

func TestClient_Send_UnknownFramesObserved(t *testing.T) {
	srv := httptest.NewServer(streamHandler(t, nil, "event: ping\ndata: x\n"))
	defer srv.Close()

	obs := &captureObserver{}
	res := NewClient(testConfig(srv.URL), WithObserver(obs)).Send(context.Background(), Request{Query: "q"})

	require.True(t, res.Success)
	assert.Equal(t, []string{"event: ping"}, obs.unknown)
}

func TestClient_Send_CancelledContextStops(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(streamHandler(t, &hits, "data: x\n"))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewClient(testConfig(srv.URL, srv.URL)).Send(ctx, Request{Query: "q"})

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, int32(0), hits.Load())
}

func TestClient_Endpoints_ReturnsCopy(t *testing.T) {
	client := NewClient(testConfig("http://a.test", "http://b.test"))

	eps := client.Endpoints()
	eps[0].URL = "mutated"

	assert.Equal(t, "http://a.test", client.Endpoints()[0].URL)
}
