package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertof/go-stylus-bridge/device"
	"github.com/robertof/go-stylus-bridge/httpapi"
	"github.com/robertof/go-stylus-bridge/session"
	"github.com/robertof/go-stylus-bridge/state"
)

type fakeController struct {
	store     *state.Store
	selectErr error
	selected  []device.ID
	deselects int
}

func (f *fakeController) Select(_ context.Context, id device.ID) error {
	if f.selectErr != nil {
		return f.selectErr
	}
	f.selected = append(f.selected, id)
	f.store.SetSelectedDevice(id.String())
	return nil
}

func (f *fakeController) Deselect(context.Context) error {
	f.deselects++
	f.store.SetSelectedDevice("")
	return nil
}

func (f *fakeController) SetCopyToClipboard(enabled bool) {
	f.store.SetCopyToClipboard(enabled)
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeController, *httpapi.Hub) {
	t.Helper()

	hub := httpapi.NewHub()
	store := state.NewStore(state.Immediate{}, hub)
	ctrl := &fakeController{store: store}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})

	srv := httpapi.NewServer(store, ctrl, httpapi.WithHub(hub), httpapi.WithMetrics(metrics))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		hub.Close()
		ts.Close()
	})

	return ts, ctrl, hub
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })

	return res
}

func TestGetState(t *testing.T) {
	ts, _, _ := newTestServer(t)

	res := do(t, http.MethodGet, ts.URL+"/state", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var snap state.Snapshot
	require.NoError(t, json.NewDecoder(res.Body).Decode(&snap))
	assert.Equal(t, state.InitialMessage, snap.Message)
	assert.False(t, snap.CopyToClipboard)
}

func TestSelectDevice(t *testing.T) {
	ts, ctrl, _ := newTestServer(t)

	res := do(t, http.MethodPut, ts.URL+"/state/selected-device", map[string]string{"device": "AA:BB:CC:DD:EE:01"})
	require.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Equal(t, []device.ID{"aa:bb:cc:dd:ee:01"}, ctrl.selected)

	res = do(t, http.MethodDelete, ts.URL+"/state/selected-device", nil)
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	res = do(t, http.MethodPut, ts.URL+"/state/selected-device", map[string]string{"device": ""})
	require.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Equal(t, 2, ctrl.deselects)
}

func TestSelectDevice_InvalidRequests(t *testing.T) {
	ts, ctrl, _ := newTestServer(t)

	res := do(t, http.MethodPut, ts.URL+"/state/selected-device", map[string]string{"device": "not-a-mac"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = do(t, http.MethodPut, ts.URL+"/state/selected-device", map[string]string{"unknown": "x"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	assert.Empty(t, ctrl.selected)
}

func TestSelectDevice_BindFailure(t *testing.T) {
	ts, ctrl, _ := newTestServer(t)
	ctrl.selectErr = &session.BindError{
		Op:     session.BindOpSubscribe,
		Device: "aa:bb:cc:dd:ee:01",
		Err:    errors.New("connection refused"),
	}

	res := do(t, http.MethodPut, ts.URL+"/state/selected-device", map[string]string{"device": "aa:bb:cc:dd:ee:01"})
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
}

func TestCopyToClipboard(t *testing.T) {
	ts, ctrl, _ := newTestServer(t)

	res := do(t, http.MethodPut, ts.URL+"/state/copy-to-clipboard", map[string]bool{"enabled": true})
	require.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.True(t, ctrl.store.CopyToClipboard())

	res = do(t, http.MethodPut, ts.URL+"/state/copy-to-clipboard", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestMetricsMounted(t *testing.T) {
	ts, _, _ := newTestServer(t)

	res := do(t, http.MethodGet, ts.URL+"/metrics", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestChangeStream(t *testing.T) {
	ts, ctrl, hub := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/state/changes"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	ctrl.store.SetMessage("Stylus scanned value 42")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev struct {
		Property string `json:"property"`
		Value    string `json:"value"`
	}
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, string(state.PropertyMessage), ev.Property)
	assert.Equal(t, "Stylus scanned value 42", ev.Value)
}
