// Copyright (C) 2026 The Reel Authors.
//
// This file is part of Reel.
//
// Reel is free software: you can redistribute it and/or modify it under the
// terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Reel is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Reel.  If not, see <https://www.gnu.org/licenses/>.

package hub

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

func dial(t *testing.T, srv *httptest.Server, topic string) net.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?topic=" + topic
	conn, _, _, err := ws.Dial(context.Background(), url)
	if err != nil {
		t.Fatalf("dial %s\n", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d\n", n, h.Clients())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPublish(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub()
	go h.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Handle(r.URL.Query().Get("topic"), w, r)
	}))
	defer srv.Close()

	a := dial(t, srv, "movie:1")
	b := dial(t, srv, "movie:2")
	waitClients(t, h, 2)

	h.Publish("movie:1", []byte(`{"event":"comment"}`))
	a.SetReadDeadline(time.Now().Add(5 * time.Second))
	msg, err := wsutil.ReadServerText(a)
	if err != nil {
		t.Fatal(err)
	}
	if string(msg) != `{"event":"comment"}` {
		t.Errorf("got %s\n", msg)
	}

	b.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, err := wsutil.ReadServerText(b); err == nil {
		t.Error("other topic received message")
	}

	if err := wsutil.WriteClientText(a, []byte("/ping 123")); err != nil {
		t.Fatal(err)
	}
	a.SetReadDeadline(time.Now().Add(5 * time.Second))
	msg, err = wsutil.ReadServerText(a)
	if err != nil || string(msg) != "/pong 123" {
		t.Errorf("pong %q %v\n", msg, err)
	}

	a.Close()
	waitClients(t, h, 1)
}
