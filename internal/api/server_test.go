package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mousemacros/internal/config"
	"mousemacros/internal/hotkey"
	"mousemacros/internal/input/inputtest"
	"mousemacros/internal/keys"
	"mousemacros/internal/macro"
	"mousemacros/internal/protocol"
)

type testEnv struct {
	backend *inputtest.Backend
	cfg     *config.Manager
	hub     *Hub
	hotkeys *hotkey.Manager
	gate    *macro.Gate
	http    *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := zerolog.Nop()
	backend := inputtest.New()
	cfg := config.NewManagerAt(filepath.Join(t.TempDir(), "config.json"), log)
	hub := NewHub(log)
	go hub.Run(ctx)

	hotkeys := hotkey.NewManager(hotkey.NewRegistry(), backend, hub, log, hotkey.Options{})
	gate := macro.NewGate(macro.NewSimulator(backend, log, macro.WithSleep(func(time.Duration) {})))
	srv := NewServer(cfg, hotkeys, gate, hub, log)

	ts := httptest.NewServer(srv.Handler(ctx))
	t.Cleanup(ts.Close)

	return &testEnv{backend: backend, cfg: cfg, hub: hub, hotkeys: hotkeys, gate: gate, http: ts}
}

func (e *testEnv) post(t *testing.T, path, body string) (int, protocol.ResultPayload) {
	t.Helper()
	resp, err := http.Post(e.http.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var res protocol.ResultPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return resp.StatusCode, res
}

func (e *testEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return e.hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) protocol.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg protocol.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.http.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBindKeyEndpoint(t *testing.T) {
	env := newTestEnv(t)

	status, res := env.post(t, "/api/bind_key", `{"name_key":"Control_A"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, res.OK)

	status, res = env.post(t, "/api/bind_key", `{"name_key":"Foo_A"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "invalid key name")

	status, _ = env.post(t, "/api/bind_key", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.post(t, "/api/bind_hold_key", `{"name_key":"LeftButton"}`)
	assert.Equal(t, http.StatusOK, status)

	st := env.hotkeys.Status()
	assert.Equal(t, 1, st.KeyboardBindings)
	assert.Equal(t, 1, st.MouseBindings)
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.http.URL + "/api/bind_key")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestActiveHandleAndEvents(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t)

	status, _ := env.post(t, "/api/bind_key", `{"name_key":"A"}`)
	require.Equal(t, http.StatusOK, status)

	status, res := env.post(t, "/api/active_handle", ``)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, res.OK)
	<-env.backend.Started()

	status, _ = env.post(t, "/api/active_handle", ``)
	assert.Equal(t, http.StatusConflict, status)

	env.backend.Press(keys.Keyboard(keys.KeyA))

	msg := readMessage(t, conn)
	require.Equal(t, protocol.TypeEvent, msg.Type)
	var ev struct {
		Event   string `json:"event"`
		Payload string `json:"payload"`
	}
	require.NoError(t, msg.Decode(&ev))
	assert.Equal(t, "pressA", ev.Event)
	assert.Equal(t, "", ev.Payload)
}

func TestMouseEndpoints(t *testing.T) {
	env := newTestEnv(t)

	status, res := env.post(t, "/api/mouse_move", `{"sensitivity":2,"times":3,"rate":1}`)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, res.OK)

	status, res = env.post(t, "/api/mouse_click", `{"times":2,"rate":1}`)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, res.OK)

	inj := env.backend.Injections()
	require.Len(t, inj, 3+4)
	assert.Equal(t, inputtest.Injection{Kind: "move", DY: 2}, inj[0])

	env.gate.SetScriptActive(false)
	status, res = env.post(t, "/api/mouse_move", `{"sensitivity":2,"times":3,"rate":1,"gated":true}`)
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, res.OK)
	assert.True(t, res.Skipped)
}

func TestMouseOpsRunWithDefaultConfig(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.cfg.Get()
	env.gate.SetScriptActive(cfg.General.ScriptActive)
	env.gate.SetClickActive(cfg.General.ClickActive)

	status, res := env.post(t, "/api/mouse_move", `{"sensitivity":1,"times":2,"rate":0}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, protocol.ResultPayload{OK: true}, res)

	status, res = env.post(t, "/api/mouse_click", `{"times":1,"rate":0}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, protocol.ResultPayload{OK: true}, res)

	assert.Equal(t, []inputtest.Injection{
		{Kind: "move", DY: 1},
		{Kind: "move", DY: 1},
		{Kind: "button", Button: keys.ButtonLeft, Pressed: true},
		{Kind: "button", Button: keys.ButtonLeft},
	}, env.backend.Injections())
}

func TestUngatedMouseOpsIgnoreToggles(t *testing.T) {
	env := newTestEnv(t)
	env.gate.SetScriptActive(false)
	env.gate.SetClickActive(false)

	_, res := env.post(t, "/api/mouse_move", `{"sensitivity":3,"times":1,"rate":0}`)
	assert.True(t, res.OK)
	_, res = env.post(t, "/api/mouse_click", `{"times":1,"rate":0}`)
	assert.True(t, res.OK)
	assert.Len(t, env.backend.Injections(), 3)

	_, res = env.post(t, "/api/mouse_click", `{"times":1,"rate":0,"gated":true}`)
	assert.Equal(t, protocol.ResultPayload{Skipped: true}, res)
	assert.Len(t, env.backend.Injections(), 3)
}

func TestMouseMoveUsesActivePreset(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.cfg.SetMain(5, 2, 1))

	status, res := env.post(t, "/api/mouse_move", ``)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, res.OK)

	inj := env.backend.Injections()
	require.Len(t, inj, 2)
	assert.Equal(t, 5, inj[1].DY)
}

func TestInvokeOverWebSocket(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t)

	args, err := json.Marshal(protocol.BindArgs{NameKey: "Foo_B"})
	require.NoError(t, err)
	msg, err := protocol.NewMessage(protocol.TypeInvoke, "req-1", protocol.InvokePayload{
		Command: protocol.CmdBindKey,
		Args:    args,
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(msg))

	reply := readMessage(t, conn)
	assert.Equal(t, protocol.TypeResult, reply.Type)
	assert.Equal(t, "req-1", reply.ID)

	var res protocol.ResultPayload
	require.NoError(t, reply.Decode(&res))
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "invalid key name")
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Update(func(c *config.Config) { c.General.APIToken = "secret" })

	resp, err := http.Get(env.http.URL + "/api/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest("GET", env.http.URL+"/api/status", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var st map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, false, st["active"])

	resp, err = http.Get(env.http.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestKeysAndConfig(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.http.URL + "/api/keys")
	require.NoError(t, err)
	var names []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&names))
	resp.Body.Close()
	assert.Contains(t, names, "Numpad7")
	assert.Contains(t, names, "MiddleButton")

	cfg := env.cfg.Get()
	cfg.General.ClickActive = false
	body, err := json.Marshal(cfg)
	require.NoError(t, err)

	resp, err = http.Post(env.http.URL+"/api/config", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, env.cfg.Get().General.ClickActive)
	assert.FileExists(t, env.cfg.Path())
}

func TestEmitAfterHubStopped(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	require.NoError(t, hub.Emit("pressA", ""))
	cancel()
	<-done
	assert.ErrorIs(t, hub.Emit("pressA", ""), ErrHubClosed)
}
