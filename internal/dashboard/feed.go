package dashboard

import (
	"github.com/hms/hms/internal/platform/websocket"
	"github.com/hms/hms/internal/store"
)

// Feed forwards cache changes to hub until the returned function is called.
// Whole-store changes go to every client.
func Feed(st *store.Store, hub *websocket.Hub) (stop func()) {
	return st.Subscribe(func(e store.Event) {
		topic := e.Collection
		if topic == "" {
			topic = websocket.All
		}
		hub.Publish(websocket.Event{Topic: topic, Op: string(e.Op), ID: e.ID, At: st.Now()})
	})
}
