package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alexanderramin/skillcycle/internal/assessment"
	"github.com/alexanderramin/skillcycle/internal/chat"
	"github.com/alexanderramin/skillcycle/internal/repository"
	"github.com/alexanderramin/skillcycle/internal/service"
	"github.com/alexanderramin/skillcycle/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatServer is a fake upstream that records request bodies and streams a
// canned reply.
type chatServer struct {
	*httptest.Server
	hits   atomic.Int32
	bodies []string
}

func newChatServer(t *testing.T, reply string) *chatServer {
	t.Helper()
	s := &chatServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		body, _ := io.ReadAll(r.Body)
		s.bodies = append(s.bodies, string(body))
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(s.Close)
	return s
}

// testApp wires a full App backed by an in-memory DB and the given endpoint URLs.
func testApp(t *testing.T, urls ...string) *App {
	t.Helper()
	db := testutil.NewTestDB(t)

	cfg := chat.DefaultConfig()
	cfg.Endpoints = nil
	for i, u := range urls {
		cfg.Endpoints = append(cfg.Endpoints, chat.Endpoint{
			Name:      []string{"proxy", "direct", "cors-proxy"}[i%3],
			Transport: chat.TransportDirect,
			URL:       u,
		})
	}

	return &App{
		Chat: service.NewChatService(
			chat.NewClient(cfg),
			repository.NewSQLiteConversationRepo(db),
			repository.NewSQLiteAnswerRepo(db),
			testutil.NewTestUoW(db),
		),
		Config: cfg,
	}
}

// executeCmd runs a cobra command and captures stdout and stderr separately.
func executeCmd(t *testing.T, app *App, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd(app)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestAskCmd_StreamsAndStores(t *testing.T) {
	srv := newChatServer(t, "data: Hello\ndata:  World\n[DONE]\nEND_abc123\n")
	app := testApp(t, srv.URL)

	out, errOut, err := executeCmd(t, app, "ask", "我适合做什么？")

	require.NoError(t, err)
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "World")
	assert.Contains(t, errOut, "session abc123")

	history, err := app.Chat.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Hello World", history[0].Content)
	assert.Equal(t, "abc123", history[0].RemoteID)
}

func TestAskCmd_ContinuesSession(t *testing.T) {
	srv := newChatServer(t, "data: ok\nEND_sess-1\n")
	app := testApp(t, srv.URL)

	_, _, err := executeCmd(t, app, "ask", "first")
	require.NoError(t, err)
	_, _, err = executeCmd(t, app, "ask", "second")
	require.NoError(t, err)
	_, _, err = executeCmd(t, app, "ask", "--new", "third")
	require.NoError(t, err)

	require.Len(t, srv.bodies, 3)
	assert.Contains(t, srv.bodies[0], `"conversation_id":""`)
	assert.Contains(t, srv.bodies[1], `"conversation_id":"sess-1"`)
	assert.Contains(t, srv.bodies[2], `"conversation_id":""`)
}

func TestAskCmd_ConflictingFlags(t *testing.T) {
	app := testApp(t)

	_, _, err := executeCmd(t, app, "ask", "--new", "--conversation", "x", "q")

	assert.ErrorContains(t, err, "cannot be combined")
}

func TestAskCmd_AllEndpointsFailShowsHint(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer bad.Close()
	app := testApp(t, "http://127.0.0.1:1/chat", bad.URL)

	_, _, err := executeCmd(t, app, "ask", "q")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "all chat endpoints failed")
	assert.Contains(t, err.Error(), "skillcycle endpoints")

	history, hErr := app.Chat.History(context.Background(), 10)
	require.NoError(t, hErr)
	require.Len(t, history, 1)
	assert.False(t, history[0].Success)
}

func TestAssessCmd_AnswersFlag(t *testing.T) {
	srv := newChatServer(t, "data: 分析完成\nEND_a1\n")
	app := testApp(t, srv.URL)

	out, _, err := executeCmd(t, app, "assess", "--answers", "A,B,C,D,A,B,C,D,A,B")

	require.NoError(t, err)
	assert.Contains(t, out, "分析完成")
	require.Len(t, srv.bodies, 1)
	assert.Contains(t, srv.bodies[0], "技能测评数据")

	history, err := app.Chat.History(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	answers, err := app.Chat.Answers(context.Background(), history[0].ID)
	require.NoError(t, err)
	require.Len(t, answers, 10)
	assert.Equal(t, "A: 帮助别人解决问题", answers[0].SelectedOption)
	assert.Equal(t, "D: 做计划、整理信息或复盘总结", answers[3].SelectedOption)
}

func TestAssessCmd_ExportAndDryRun(t *testing.T) {
	srv := newChatServer(t, "data: unused\n")
	app := testApp(t, srv.URL)
	path := filepath.Join(t.TempDir(), "answers.json")

	out, _, err := executeCmd(t, app, "assess", "--answers", "ABCDABCDAB", "--export", path, "--dry-run")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "请分析以下技能测评结果"))
	assert.Equal(t, int32(0), srv.hits.Load())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	exported, err := assessment.ReadJSON(f)
	require.NoError(t, err)
	require.Len(t, exported, 10)
	assert.Equal(t, "B: 写下你的想法或创作点子", exported[1].SelectedOption)

	out, _, err = executeCmd(t, app, "assess", "--from", path, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "写下你的想法或创作点子")
}

func TestAssessCmd_NoAnswersNonInteractive(t *testing.T) {
	app := testApp(t)

	_, _, err := executeCmd(t, app, "assess")

	assert.ErrorContains(t, err, "no answers given")
}

func TestAssessCmd_BadAnswers(t *testing.T) {
	app := testApp(t)

	_, _, err := executeCmd(t, app, "assess", "--answers", "ABC")
	assert.ErrorContains(t, err, "expected 10 answers, got 3")

	_, _, err = executeCmd(t, app, "assess", "--answers", "ABCDEABCDA")
	assert.ErrorIs(t, err, assessment.ErrUnknownOption)
}

func TestHistoryCmds(t *testing.T) {
	srv := newChatServer(t, "data: stored answer\nEND_h1\n")
	app := testApp(t, srv.URL)
	ctx := context.Background()

	_, _, err := executeCmd(t, app, "ask", "what should I build?")
	require.NoError(t, err)
	history, err := app.Chat.History(ctx, 1)
	require.NoError(t, err)
	id := history[0].ID

	out, _, err := executeCmd(t, app, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id[:8])
	assert.Contains(t, out, "what should I build?")

	out, _, err = executeCmd(t, app, "history", "show", id[:8])
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "stored answer")
	assert.Contains(t, out, "h1")

	out, _, err = executeCmd(t, app, "history", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted")

	_, _, err = executeCmd(t, app, "history", "show", id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestEndpointsCmd(t *testing.T) {
	app := testApp(t, "http://a.test/chat", "http://b.test/chat")

	out, _, err := executeCmd(t, app, "endpoints")

	require.NoError(t, err)
	assert.Contains(t, out, "http://a.test/chat")
	assert.Less(t, strings.Index(out, "a.test"), strings.Index(out, "b.test"))
}

func TestRootCmd_VerboseFlagBound(t *testing.T) {
	app := testApp(t)

	_, _, err := executeCmd(t, app, "--verbose", "endpoints")

	require.NoError(t, err)
	assert.True(t, app.Flags.Verbose)
}
