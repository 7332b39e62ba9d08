// =============================================================================
// mockserver_test.go - Mock InfuseDB Server for Integration Tests
// =============================================================================
//
// A small TCP server that speaks the InfuseDB line protocol: it sends a
// version line on accept, then answers every command line with whatever
// the handler returns. Tests use it to drive the REPL and the root command
// end to end without a real database.
//
// =============================================================================

package main

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"sync"
	"testing"
)

// mockVersion is the version line every mock server announces.
const mockVersion = "InfuseDB 0.3.1 (mock)"

// mockServer is a TCP server that records commands and answers them via
// handler.
type mockServer struct {
	listener net.Listener

	handler func(cmd string) string

	mu          sync.Mutex
	connections []net.Conn
	received    []string

	wg sync.WaitGroup
}

// startMockServer starts a mock server on a loopback port. A nil handler
// uses defaultMockHandler. The server stops when the test ends.
func startMockServer(t *testing.T, handler func(cmd string) string) *mockServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create mock server listener: %v", err)
	}

	if handler == nil {
		handler = defaultMockHandler
	}

	ms := &mockServer{
		listener: listener,
		handler:  handler,
	}

	ms.wg.Add(1)
	go ms.acceptLoop()

	t.Cleanup(ms.stop)
	return ms
}

func (ms *mockServer) port() int {
	return ms.listener.Addr().(*net.TCPAddr).Port
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

	if _, err := io.WriteString(conn, mockVersion+"\r\n"); err != nil {
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

// commands returns every command received so far.
func (ms *mockServer) commands() []string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]string(nil), ms.received...)
}

func (ms *mockServer) stop() {
	ms.listener.Close()

	ms.mu.Lock()
	for _, conn := range ms.connections {
		conn.Close()
	}
	ms.connections = nil
	ms.mu.Unlock()

	ms.wg.Wait()
}

// defaultMockHandler answers a tiny key/value vocabulary.
func defaultMockHandler(cmd string) string {
	switch cmd {
	case "get name":
		return "ok:\"Alberto Ruiz\"\r\n"
	case "get user":
		return "ok:{\"name\":\"Alberto\",\"tags\":[\"a\",\"b:c\"]}\r\n"
	case "list":
		return "ok:[\"name\",\"user\"]\r\n"
	case "broken":
		return "weird:1\r\n"
	case "garbled":
		return "ok:not-json\r\n"
	default:
		return "err:unknown command\r\n"
	}
}
