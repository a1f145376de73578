package actor_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nyric/actorio/actor"
)

func TestAdminSurfaceServesPeersAndLogLevel(t *testing.T) {
	server := startActor(t, actor.Config{Name: "server", Modules: []actor.Module{echoModule}})
	client := startActor(t, actor.Config{Name: "client", AdminAddr: "127.0.0.1:0"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := client.Dial(ctx, server.ListenAddr())
	require.NoError(t, err)

	var adminURL string
	require.Eventually(t, func() bool {
		u := client.AdminURL()
		adminURL = u
		return u != ""
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		resp, err := http.Get(adminURL + "/peers")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		var entries []map[string]any
		if err := json.Unmarshal(body, &entries); err != nil {
			return false
		}
		return len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get(adminURL + "/loglevel")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
