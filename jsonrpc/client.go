package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"reflect"
	"sync"
	"time"

	"github.com/golang/glog"
)

// OVSDB speaks JSON-RPC 1.0: requests are {"id", "method", "params"},
// responses are {"id", "result", "error"}, and notifications are requests
// with a null id. The server also sends its own echo requests to probe idle
// clients, which the client answers inline.

var errClosed = errors.New("connection closed")

type ClientSettings struct {
	WriteTimeout time.Duration
	NotificationBufferSize int
}

func DefaultClientSettings() *ClientSettings {
	return &ClientSettings{
		WriteTimeout: 5 * time.Second,
		NotificationBufferSize: 32,
	}
}

// RpcError is the error member of a response, as ovsdb-server shapes it.
type RpcError struct {
	Err string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (self *RpcError) Error() string {
	if self.Details == "" {
		return self.Err
	}
	return fmt.Sprintf("%s: %s", self.Err, self.Details)
}

// Notification is a server-initiated message with no response expected.
// Params is the generic decoded JSON value, ready for the ovsdb decoders.
type Notification struct {
	Method string
	Params any
}

type message struct {
	Id *int64 `json:"id"`
	Method string `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error json.RawMessage `json:"error,omitempty"`
}

func (self *message) isCall() bool {
	return self.Method != ""
}

// Client correlates calls with responses and hands notifications off on a
// channel. One receive goroutine owns the read side of the conn. Writes are
// serialized by a mutex. Safe for concurrent calls.
type Client struct {
	ctx context.Context
	cancel context.CancelFunc

	conn io.ReadWriteCloser

	settings *ClientSettings

	notifications chan *Notification

	writeMutex sync.Mutex
	encoder *json.Encoder

	stateMutex sync.Mutex
	nextId int64
	pending map[int64]chan *message
}

func NewClientWithDefaults(ctx context.Context, conn io.ReadWriteCloser) *Client {
	return NewClient(ctx, conn, DefaultClientSettings())
}

func NewClient(ctx context.Context, conn io.ReadWriteCloser, settings *ClientSettings) *Client {
	cancelCtx, cancel := context.WithCancel(ctx)
	client := &Client{
		ctx: cancelCtx,
		cancel: cancel,
		conn: conn,
		settings: settings,
		notifications: make(chan *Notification, settings.NotificationBufferSize),
		encoder: json.NewEncoder(conn),
		pending: map[int64]chan *message{},
	}
	go client.run()
	return client
}

// Dial connects to an OVSDB endpoint. ovsdb-server listens on a unix socket
// by default, `unix:/var/run/openvswitch/db.sock`, or on tcp.
func Dial(ctx context.Context, network string, address string) (*Client, error) {
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	return NewClientWithDefaults(ctx, conn), nil
}

func (self *Client) run() {
	defer func() {
		self.cancel()
		self.conn.Close()
		close(self.notifications)
		self.failPending()
	}()

	decoder := json.NewDecoder(self.conn)
	for {
		select {
		case <-self.ctx.Done():
			return
		default:
		}

		var msg message
		if err := decoder.Decode(&msg); err != nil {
			if self.ctx.Err() == nil {
				glog.Infof("[rpc]read error = %s\n", err)
			}
			return
		}

		switch {
		case msg.isCall() && msg.Id == nil:
			self.deliverNotification(&msg)
		case msg.isCall():
			self.answerCall(&msg)
		case msg.Id != nil:
			self.deliverResponse(&msg)
		default:
			glog.Infof("[rpc]drop message with no method and no id\n")
		}
	}
}

func (self *Client) deliverNotification(msg *message) {
	var params any
	if msg.Params != nil {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			glog.Infof("[rpc]bad notification params = %s\n", err)
			return
		}
	}
	notification := &Notification{
		Method: msg.Method,
		Params: params,
	}
	select {
	case <-self.ctx.Done():
	case self.notifications <- notification:
		glog.V(2).Infof("[rpc]%s<-\n", msg.Method)
	default:
		glog.Infof("[rpc]drop %s, notification buffer full\n", msg.Method)
	}
}

// the server probes idle clients with echo requests. Answer in kind,
// echoing the params back. Anything else gets a not-supported error.
func (self *Client) answerCall(msg *message) {
	response := &message{
		Id: msg.Id,
	}
	if msg.Method == "echo" {
		response.Result = msg.Params
		if response.Result == nil {
			response.Result = json.RawMessage("[]")
		}
	} else {
		errorBytes, _ := json.Marshal(&RpcError{
			Err: "not supported",
			Details: msg.Method,
		})
		response.Error = errorBytes
	}
	if err := self.write(response); err != nil {
		glog.Infof("[rpc]%s reply error = %s\n", msg.Method, err)
	} else {
		glog.V(2).Infof("[rpc]%s->\n", msg.Method)
	}
}

func (self *Client) deliverResponse(msg *message) {
	self.stateMutex.Lock()
	pending, ok := self.pending[*msg.Id]
	if ok {
		delete(self.pending, *msg.Id)
	}
	self.stateMutex.Unlock()
	if !ok {
		glog.Infof("[rpc]drop response id=%d with no pending call\n", *msg.Id)
		return
	}
	pending <- msg
}

func (self *Client) failPending() {
	self.stateMutex.Lock()
	pending := self.pending
	self.pending = map[int64]chan *message{}
	self.stateMutex.Unlock()
	for _, c := range pending {
		close(c)
	}
}

func (self *Client) write(msg *message) error {
	self.writeMutex.Lock()
	defer self.writeMutex.Unlock()

	if deadlineConn, ok := self.conn.(net.Conn); ok {
		deadlineConn.SetWriteDeadline(time.Now().Add(self.settings.WriteTimeout))
	}
	return self.encoder.Encode(msg)
}

// Call issues one method call and waits for the matching response. The
// result is the generic decoded JSON value of the response's result member.
// A response carrying an error member surfaces as *RpcError.
func (self *Client) Call(ctx context.Context, method string, params any) (any, error) {
	paramsBytes, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	responses := make(chan *message, 1)

	self.stateMutex.Lock()
	id := self.nextId
	self.nextId += 1
	self.pending[id] = responses
	self.stateMutex.Unlock()

	request := &message{
		Id: &id,
		Method: method,
		Params: paramsBytes,
	}
	if err := self.write(request); err != nil {
		self.stateMutex.Lock()
		delete(self.pending, id)
		self.stateMutex.Unlock()
		return nil, err
	}
	glog.V(2).Infof("[rpc]%s id=%d->\n", method, id)

	var response *message
	var ok bool
	select {
	case <-ctx.Done():
		self.stateMutex.Lock()
		delete(self.pending, id)
		self.stateMutex.Unlock()
		return nil, ctx.Err()
	case <-self.ctx.Done():
		return nil, errClosed
	case response, ok = <-responses:
		if !ok {
			return nil, errClosed
		}
	}

	if response.Error != nil && string(response.Error) != "null" {
		rpcError := &RpcError{}
		if err := json.Unmarshal(response.Error, rpcError); err != nil {
			return nil, fmt.Errorf("malformed error member: %s", response.Error)
		}
		return nil, rpcError
	}
	if response.Result == nil {
		return nil, fmt.Errorf("response with neither result nor error")
	}

	var result any
	if err := json.Unmarshal(response.Result, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Echo round-trips arbitrary args through the server and verifies they come
// back unchanged.
func (self *Client) Echo(ctx context.Context, args ...any) error {
	if args == nil {
		args = []any{}
	}
	result, err := self.Call(ctx, "echo", args)
	if err != nil {
		return err
	}

	// normalize through json so e.g. int args compare equal to the
	// decoded float64 result
	argsBytes, err := json.Marshal(args)
	if err != nil {
		return err
	}
	var normalized any
	if err := json.Unmarshal(argsBytes, &normalized); err != nil {
		return err
	}
	if !reflect.DeepEqual(normalized, result) {
		return fmt.Errorf("echo mismatch: sent %v, received %v", normalized, result)
	}
	return nil
}

// Notifications delivers server notifications in receipt order. The channel
// closes when the connection does.
func (self *Client) Notifications() <-chan *Notification {
	return self.notifications
}

func (self *Client) Close() {
	self.cancel()
	self.conn.Close()
}
