package jsonrpc

import (
	"context"
	"io"
	"time"

	"github.com/gorilla/websocket"
)

const defaultWsHandshakeTimeout = 5 * time.Second

// Some deployments do not expose the ovsdb socket directly and instead
// proxy the JSON-RPC stream over a websocket. wsConn adapts a websocket
// connection to the byte stream the client reads and writes: one Write is
// one text message, and reads continue across message boundaries so the
// json decoder sees a single stream.
type wsConn struct {
	ws *websocket.Conn
	reader io.Reader
}

// DialWs connects a Client over a websocket url, ws:// or wss://.
func DialWs(ctx context.Context, url string) (*Client, error) {
	dialer := &websocket.Dialer{
		HandshakeTimeout: defaultWsHandshakeTimeout,
	}
	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return NewClientWithDefaults(ctx, &wsConn{ws: ws}), nil
}

func (self *wsConn) Read(b []byte) (int, error) {
	for {
		if self.reader == nil {
			_, reader, err := self.ws.NextReader()
			if err != nil {
				return 0, err
			}
			self.reader = reader
		}
		n, err := self.reader.Read(b)
		if err == io.EOF {
			self.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (self *wsConn) Write(b []byte) (int, error) {
	if err := self.ws.WriteMessage(websocket.TextMessage, b); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (self *wsConn) Close() error {
	return self.ws.Close()
}
