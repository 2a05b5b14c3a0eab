package ipc_test

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/displayctl/internal/ipc"
	"codeberg.org/mutker/displayctl/internal/logger"
	"codeberg.org/mutker/displayctl/internal/refreshrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T) (*refreshrate.Engine, string) {
	t.Helper()

	logger.Init("error", false)

	engine, err := refreshrate.New([]refreshrate.InputMode{
		{ID: 0, Group: 0, VsyncPeriod: 33333333}, // 30fps
		{ID: 1, Group: 0, VsyncPeriod: 16666667}, // 60fps
		{ID: 2, Group: 0, VsyncPeriod: 11111111}, // 90fps
	}, 1)
	require.NoError(t, err)

	socket := filepath.Join(t.TempDir(), "displayctl.sock")
	server := ipc.NewServer(engine, socket)
	require.NoError(t, server.Start())
	t.Cleanup(func() { _ = server.Close() })

	// Give the accept loop a moment to come up.
	time.Sleep(10 * time.Millisecond)

	return engine, socket
}

func mustMarshal(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)

	return data
}

func TestSetAndGetPolicy(t *testing.T) {
	engine, socket := startTestServer(t)

	resp, err := ipc.Send(socket, ipc.Request{
		Type: ipc.TypeSetPolicy,
		Data: mustMarshal(t, ipc.SetPolicyData{DefaultMode: 1, MinRate: 60, MaxRate: 90}),
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)

	policy := engine.GetPolicy()
	assert.Equal(t, refreshrate.ModeID(1), policy.DefaultMode)
	assert.Equal(t, 60.0, policy.MinFPS)

	resp, err = ipc.Send(socket, ipc.Request{Type: ipc.TypeGetPolicy})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
}

func TestSetPolicyRejection(t *testing.T) {
	engine, socket := startTestServer(t)
	before := engine.GetPolicy()

	// 30fps default against a [60, 90] window: rejected remotely, and
	// the daemon stays up.
	resp, err := ipc.Send(socket, ipc.Request{
		Type: ipc.TypeSetPolicy,
		Data: mustMarshal(t, ipc.SetPolicyData{DefaultMode: 0, MinRate: 60, MaxRate: 90}),
	})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "display_policy_default_out_of_range")

	assert.Equal(t, before, engine.GetPolicy())
}

func TestSelect(t *testing.T) {
	_, socket := startTestServer(t)

	resp, err := ipc.Send(socket, ipc.Request{
		Type: ipc.TypeSelect,
		Data: mustMarshal(t, ipc.SelectData{
			Layers: []ipc.LayerData{
				{Name: "game", Vote: "explicit", DesiredFPS: 90, Weight: 1},
			},
		}),
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)

	var mode ipc.ModeData
	require.NoError(t, json.Unmarshal(mustMarshal(t, resp.Data), &mode))
	assert.Equal(t, 2, mode.ID)
	assert.InDelta(t, 90.0, mode.FPS, 0.001)
}

func TestSelectUnknownVote(t *testing.T) {
	_, socket := startTestServer(t)

	resp, err := ipc.Send(socket, ipc.Request{
		Type: ipc.TypeSelect,
		Data: mustMarshal(t, ipc.SelectData{
			Layers: []ipc.LayerData{{Vote: "sometimes", Weight: 1}},
		}),
	})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Contains(t, resp.Error, "unknown vote")
}

func TestSetCurrent(t *testing.T) {
	engine, socket := startTestServer(t)

	resp, err := ipc.Send(socket, ipc.Request{
		Type: ipc.TypeSetCurrent,
		Data: mustMarshal(t, ipc.SetCurrentData{Mode: 2}),
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, refreshrate.ModeID(2), engine.CurrentMode().ID)
}

func TestModes(t *testing.T) {
	_, socket := startTestServer(t)

	resp, err := ipc.Send(socket, ipc.Request{Type: ipc.TypeModes})
	require.NoError(t, err)

	var modes []ipc.ModeData
	require.NoError(t, json.Unmarshal(mustMarshal(t, resp.Data), &modes))
	require.Len(t, modes, 3)
	assert.Equal(t, 0, modes[0].ID)
	assert.Equal(t, "30fps", modes[0].Name)
}

func TestUnknownRequestType(t *testing.T) {
	_, socket := startTestServer(t)

	resp, err := ipc.Send(socket, ipc.Request{Type: "reboot"})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Contains(t, resp.Error, "unknown request type")
}
