package live

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jane4246/coffee-advisory/mq"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestHub_BroadcastsDiagnosisEvents(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	bus := mq.NewBus()
	detach := hub.Attach(bus, "diagnosis.created")

	router := httprouter.New()
	router.GET("/ws/diagnoses", hub.Handler())
	srv := httptest.NewServer(router)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/diagnoses"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	// registration happens asynchronously after the upgrade, so keep
	// emitting until the first event arrives
	stop := make(chan struct{})
	emitted := make(chan struct{})
	go func() {
		defer close(emitted)
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = bus.Emit("tip.created", mq.Index{EntityId: "ignored"})
				_ = bus.Emit("diagnosis.created", mq.Index{EntityType: "diagnosis", EntityId: "d-1"})
			}
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, msg, err := conn.ReadMessage()
	close(stop)
	<-emitted
	require.NoError(t, err)

	var ev mq.Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, "diagnosis.created", ev.Name)
	assert.Equal(t, "d-1", ev.Index.EntityId)

	detach()
	cancel()
	<-hub.Done()

	// the hub closes the socket on shutdown
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	_ = conn.Close()
	srv.Close()
}

func TestHub_PublishAfterStopDoesNotBlock(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)
	cancel()
	<-hub.Done()

	for i := 0; i < 200; i++ {
		hub.Publish(mq.Event{Name: "diagnosis.created"})
	}
}
