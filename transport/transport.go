// Transport: accepting connections and framing them as byte streams.
//
// Grounded on the teacher's main.go listen() (a bare net.Listen loop
// spawning a goroutine per accepted connection) and ws.go/web/ws.go's
// wsrwc adapter, which wraps a websocket connection as an
// io.ReadWriteCloser so the rest of the program never has to know
// which transport a given Client is using. This package keeps both
// ends: a plain TCP listener, and a websocket-to-ReadWriteCloser
// adapter, but frames each connection's bytes as newline-delimited
// JSON (the message boundary's unit) instead of the teacher's text
// protocol lines.
package transport

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"

	ws "nhooyr.io/websocket"

	sk "go-skirmish"
)

// Conn is one framed, bidirectional connection: ReadFrame blocks for
// the next complete frame, Send writes one out, Close tears down the
// underlying transport. It satisfies registry.Conn.
type Conn interface {
	ReadFrame() ([]byte, error)
	Send(frame []byte) error
	Close() error
	RemoteAddr() string
}

// streamConn frames an io.ReadWriteCloser as newline-delimited JSON,
// serializing concurrent writers the way the teacher's Client.lock
// guards Send/Respond against interleaving two half-written messages.
type streamConn struct {
	mu     sync.Mutex
	rwc    interface {
		Read([]byte) (int, error)
		Write([]byte) (int, error)
		Close() error
	}
	reader *bufio.Reader
	addr   string
}

func (c *streamConn) ReadFrame() ([]byte, error) {
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	return line[:len(line)-1], nil
}

func (c *streamConn) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.rwc.Write(frame); err != nil {
		return err
	}
	_, err := c.rwc.Write([]byte{'\n'})
	return err
}

func (c *streamConn) Close() error { return c.rwc.Close() }

func (c *streamConn) RemoteAddr() string { return c.addr }

// Accept wraps an already-accepted net.Conn as a Conn.
func Accept(nc net.Conn) Conn {
	return &streamConn{
		rwc:    nc,
		reader: bufio.NewReader(nc),
		addr:   nc.RemoteAddr().String(),
	}
}

// Listen opens a TCP listener on port and calls handle in its own
// goroutine for each accepted connection, exactly as the teacher's
// listen() spawns a goroutine per connection rather than blocking the
// caller. It runs until ctx is cancelled.
func Listen(ctx context.Context, port uint, handle func(Conn)) error {
	addr := fmt.Sprintf(":%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	sk.Debug.Printf("listening on tcp %s", addr)
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	go func() {
		for {
			nc, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Print(err)
				continue
			}
			log.Printf("new connection from %s", nc.RemoteAddr())
			go handle(Accept(nc))
		}
	}()

	return nil
}

// wsConn adapts a websocket connection to the plain Read/Write/Close
// shape streamConn expects, the same shim the teacher's web/ws.go
// wsrwc performs for nhooyr.io/websocket.
type wsConn struct {
	conn *ws.Conn
}

func (c *wsConn) Write(p []byte) (int, error) {
	err := c.conn.Write(context.Background(), ws.MessageText, p)
	return len(p), err
}

func (c *wsConn) Read(p []byte) (int, error) {
	t, data, err := c.conn.Read(context.Background())
	if err != nil {
		return 0, err
	}
	if t != ws.MessageText {
		return 0, fmt.Errorf("transport: unexpected websocket message type")
	}
	return copy(p, data), nil
}

func (c *wsConn) Close() error {
	return c.conn.Close(ws.StatusNormalClosure, "connection closed")
}

// Upgrader returns an http.HandlerFunc that accepts a websocket
// connection and hands it to handle, mirroring the teacher's
// upgrader(st, conf) in web/ws.go.
func Upgrader(handle func(Conn)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			sk.Debug.Printf("unable to upgrade connection: %s", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		log.Printf("new websocket connection from %s", r.RemoteAddr)
		wc := &wsConn{conn: conn}
		handle(&streamConn{
			rwc:    wc,
			reader: bufio.NewReader(wc),
			addr:   r.RemoteAddr,
		})
	}
}
