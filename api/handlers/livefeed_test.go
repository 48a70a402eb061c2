package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"github.com/forestapp/wildpark-api/api/handlers"
	"github.com/forestapp/wildpark-api/models"
)

func dialFeed(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	return conn
}

func TestFeedHub_BroadcastIncident(t *testing.T) {
	hub := handlers.NewFeedHub()
	server := httptest.NewServer(http.HandlerFunc(hub.HandleIncidentFeed))
	defer server.Close()

	conn := dialFeed(t, server)
	defer conn.Close()

	// wait for the hub to register the connection
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 1, hub.ClientCount())

	incident := models.Incident{
		ID: "5fc51f58c72ff10004dca382",
		Details: models.IncidentDetails{
			Species:  "Black Rhino",
			Severity: models.SeverityHigh,
		},
	}
	hub.BroadcastIncident(incident)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Event string          `json:"event"`
		Data  models.Incident `json:"data"`
	}
	err := conn.ReadJSON(&msg)
	assert.NoError(t, err)
	assert.Equal(t, "new_incident", msg.Event)
	assert.Equal(t, "Black Rhino", msg.Data.Details.Species)
}

func TestFeedHub_DroppedClientIsRemoved(t *testing.T) {
	hub := handlers.NewFeedHub()
	server := httptest.NewServer(http.HandlerFunc(hub.HandleIncidentFeed))
	defer server.Close()

	conn := dialFeed(t, server)

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 1, hub.ClientCount())

	conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 0, hub.ClientCount())
}
