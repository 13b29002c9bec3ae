package jsonrpc

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

// a scripted ovsdb-server on the far end of a pipe
type testServer struct {
	conn net.Conn
	decoder *json.Decoder
	encoder *json.Encoder
}

func newTestServer(t *testing.T) (*Client, *testServer) {
	clientConn, serverConn := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	client := NewClientWithDefaults(ctx, clientConn)
	t.Cleanup(client.Close)

	server := &testServer{
		conn: serverConn,
		decoder: json.NewDecoder(serverConn),
		encoder: json.NewEncoder(serverConn),
	}
	t.Cleanup(func() {
		serverConn.Close()
	})
	return client, server
}

func (self *testServer) read(t *testing.T) map[string]any {
	var msg map[string]any
	err := self.decoder.Decode(&msg)
	assert.Equal(t, err, nil)
	return msg
}

func (self *testServer) write(t *testing.T, msg map[string]any) {
	err := self.encoder.Encode(msg)
	assert.Equal(t, err, nil)
}

func TestCall(t *testing.T) {
	client, server := newTestServer(t)

	go func() {
		request := server.read(t)
		assert.Equal(t, request["method"], "list_dbs")
		assert.Equal(t, request["params"], []any{})
		server.write(t, map[string]any{
			"id": request["id"],
			"result": []any{"hardware_vtep", "Open_vSwitch"},
			"error": nil,
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := client.Call(ctx, "list_dbs", []any{})
	assert.Equal(t, err, nil)
	assert.Equal(t, result, []any{"hardware_vtep", "Open_vSwitch"})
}

func TestCallError(t *testing.T) {
	client, server := newTestServer(t)

	go func() {
		request := server.read(t)
		server.write(t, map[string]any{
			"id": request["id"],
			"result": nil,
			"error": map[string]any{
				"error": "unknown database",
				"details": "no database named bogus",
			},
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Call(ctx, "monitor", []any{"bogus"})
	rpcError, ok := err.(*RpcError)
	assert.Equal(t, ok, true)
	assert.Equal(t, rpcError.Err, "unknown database")
	assert.Equal(t, rpcError.Details, "no database named bogus")
}

func TestCallCorrelation(t *testing.T) {
	client, server := newTestServer(t)

	// answer two pipelined calls out of order
	go func() {
		first := server.read(t)
		second := server.read(t)
		server.write(t, map[string]any{
			"id": second["id"],
			"result": "second",
			"error": nil,
		})
		server.write(t, map[string]any{
			"id": first["id"],
			"result": "first",
			"error": nil,
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	firstResults := make(chan any)
	go func() {
		result, err := client.Call(ctx, "a", []any{})
		assert.Equal(t, err, nil)
		firstResults <- result
	}()

	// order the writes on the wire
	time.Sleep(100 * time.Millisecond)

	result, err := client.Call(ctx, "b", []any{})
	assert.Equal(t, err, nil)
	assert.Equal(t, result, "second")
	assert.Equal(t, <-firstResults, "first")
}

func TestNotifications(t *testing.T) {
	client, server := newTestServer(t)

	go func() {
		server.write(t, map[string]any{
			"id": nil,
			"method": "update",
			"params": []any{"hardware_vtep", map[string]any{}},
		})
	}()

	select {
	case notification := <-client.Notifications():
		assert.Equal(t, notification.Method, "update")
		assert.Equal(t, notification.Params, []any{"hardware_vtep", map[string]any{}})
	case <-time.After(5 * time.Second):
		t.Fatal("no notification")
	}
}

func TestAnswersServerEcho(t *testing.T) {
	_, server := newTestServer(t)

	server.write(t, map[string]any{
		"id": float64(7),
		"method": "echo",
		"params": []any{"ping"},
	})

	response := server.read(t)
	assert.Equal(t, response["id"], float64(7))
	assert.Equal(t, response["result"], []any{"ping"})
}

func TestEcho(t *testing.T) {
	client, server := newTestServer(t)

	go func() {
		request := server.read(t)
		server.write(t, map[string]any{
			"id": request["id"],
			"result": request["params"],
			"error": nil,
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Echo(ctx, "Hello", "OVSDB", "?")
	assert.Equal(t, err, nil)
}

func TestCallAfterClose(t *testing.T) {
	client, _ := newTestServer(t)
	client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Call(ctx, "list_dbs", []any{})
	assert.NotEqual(t, err, nil)
}
