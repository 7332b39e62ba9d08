package infuseprotocol

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
)

// mockServer is a TCP server that speaks just enough of the InfuseDB
// protocol for client tests. It sends greeting on accept, then answers each
// received line with whatever handler returns, written verbatim.
type mockServer struct {
	listener net.Listener
	greeting string
	handler  func(cmd string) string

	mu          sync.Mutex
	connections []net.Conn
	received    []string

	wg sync.WaitGroup
}

// startMockServer starts a server on a loopback port. A nil handler echoes
// every command back as a JSON string.
func startMockServer(t *testing.T, greeting string, handler func(cmd string) string) *mockServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create mock server listener: %v", err)
	}

	if handler == nil {
		handler = echoHandler
	}

	ms := &mockServer{
		listener: listener,
		greeting: greeting,
		handler:  handler,
	}

	ms.wg.Add(1)
	go ms.acceptLoop()

	t.Cleanup(ms.stop)
	return ms
}

func (ms *mockServer) host() string {
	return "127.0.0.1"
}

func (ms *mockServer) port() int {
	_, port, _ := net.SplitHostPort(ms.listener.Addr().String())
	p, _ := strconv.Atoi(port)
	return p
}

func (ms *mockServer) acceptLoop() {
	defer ms.wg.Done()

	for {
		conn, err := ms.listener.Accept()
		if err != nil {
			return
		}

		ms.mu.Lock()
		ms.connections = append(ms.connections, conn)
		ms.mu.Unlock()

		ms.wg.Add(1)
		go ms.handleConnection(conn)
	}
}

func (ms *mockServer) handleConnection(conn net.Conn) {
	defer ms.wg.Done()

	if _, err := io.WriteString(conn, ms.greeting); err != nil {
		return
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		cmd := scanner.Text()

		ms.mu.Lock()
		ms.received = append(ms.received, cmd)
		ms.mu.Unlock()

		fmt.Fprint(conn, ms.handler(cmd))
	}
}

// commands returns every command line received so far.
func (ms *mockServer) commands() []string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]string(nil), ms.received...)
}

// dropConnections closes every accepted connection from the server side.
func (ms *mockServer) dropConnections() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, conn := range ms.connections {
		conn.Close()
	}
	ms.connections = nil
}

func (ms *mockServer) stop() {
	ms.listener.Close()
	ms.dropConnections()
	ms.wg.Wait()
}

// echoHandler replies with the command itself as a JSON string.
func echoHandler(cmd string) string {
	return "ok:" + strconv.Quote(cmd) + "\n"
}

// constHandler replies with the same line to every command.
func constHandler(reply string) func(string) string {
	return func(string) string { return reply }
}
