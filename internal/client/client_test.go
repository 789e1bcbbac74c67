package client_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mousemacros/internal/api"
	"mousemacros/internal/client"
	"mousemacros/internal/config"
	"mousemacros/internal/hotkey"
	"mousemacros/internal/input/inputtest"
	"mousemacros/internal/keys"
	"mousemacros/internal/macro"
	"mousemacros/internal/protocol"
)

func startService(t *testing.T, ctx context.Context) (string, *inputtest.Backend) {
	t.Helper()
	log := zerolog.Nop()
	backend := inputtest.New()
	cfg := config.NewManagerAt(filepath.Join(t.TempDir(), "config.json"), log)
	hub := api.NewHub(log)
	go hub.Run(ctx)

	hotkeys := hotkey.NewManager(hotkey.NewRegistry(), backend, hub, log, hotkey.Options{HoldInterval: time.Millisecond})
	gate := macro.NewGate(macro.NewSimulator(backend, log, macro.WithSleep(func(time.Duration) {})))
	srv := api.NewServer(cfg, hotkeys, gate, hub, log)

	ts := httptest.NewServer(srv.Handler(ctx))
	t.Cleanup(ts.Close)
	return strings.TrimPrefix(ts.URL, "http://"), backend
}

func TestInvokeAndEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addr, backend := startService(t, ctx)

	events := make(chan string, 16)
	c := client.New(addr, "", zerolog.Nop())
	c.RetryDelay = 10 * time.Millisecond
	c.OnEvent = func(event string, payload json.RawMessage) {
		select {
		case events <- event + " " + string(payload):
		default:
		}
	}
	defer c.Close()

	runDone := make(chan error, 1)
	go func() { runDone <- c.Run(ctx) }()

	res, err := c.Invoke(ctx, protocol.CmdBindHoldKey, protocol.BindArgs{NameKey: "A"})
	require.NoError(t, err)
	assert.True(t, res.OK)

	res, err = c.Invoke(ctx, protocol.CmdBindKey, protocol.BindArgs{NameKey: "Alt_Foo_A"})
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "invalid key name")

	res, err = c.Invoke(ctx, protocol.CmdActiveHandle, nil)
	require.NoError(t, err)
	assert.True(t, res.OK)
	<-backend.Started()

	res, err = c.Invoke(ctx, protocol.CmdMouseClick, protocol.ClickArgs{Times: 1, Rate: 0})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Len(t, backend.Injections(), 2)

	backend.Press(keys.Keyboard(keys.KeyA))
	select {
	case ev := <-events:
		assert.Equal(t, `holdA {"pressed":1}`, ev)
	case <-time.After(2 * time.Second):
		t.Fatal("no hold event received")
	}
	backend.Lift(keys.Keyboard(keys.KeyA))

	cancel()
	select {
	case err := <-runDone:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("client did not stop")
	}
}

func TestInvokeAfterClose(t *testing.T) {
	c := client.New("127.0.0.1:1", "", zerolog.Nop())
	c.Close()

	_, err := c.Invoke(context.Background(), protocol.CmdBindKey, protocol.BindArgs{NameKey: "A"})
	assert.ErrorIs(t, err, client.ErrClosed)
}
