// Package infuseprotocol provides a Go client for the InfuseDB text
// protocol.
//
// # Protocol Overview
//
// The protocol is line oriented and runs over a plain TCP connection.
// Every message in both directions is one UTF-8 line terminated by "\n".
//
//	Handshake:        <version>\n           (server, once, right after accept)
//	Request:          <command>\n
//	Success response: ok:<json-payload>\n
//	Error response:   err:<error-message>\n
//
// Each request gets exactly one reply. The reply is split on its first
// colon only, so JSON payloads may contain colons freely.
//
// # Basic Usage
//
//	client, err := infuseprotocol.Dial("localhost", 1234)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	fmt.Println(client.Version())
//
//	outcome, err := client.Submit("get name")
//	if err != nil {
//	    log.Fatal(err) // transport or protocol malfunction
//	}
//	if outcome.IsFailure() {
//	    fmt.Println("error:", outcome.Message)
//	} else {
//	    fmt.Println(outcome.Value)
//	}
//
// # Outcomes and Errors
//
// A reply tagged "err" is not a Go error. It is a valid Failure outcome
// reporting that the server rejected the command. Go errors returned by
// Submit describe local malfunctions and can be told apart with errors.As
// and errors.Is:
//
//   - *ConnectionError: the transport could not be established or broke
//   - *HandshakeError: the stream ended before the version line
//   - *ProtocolError: the reply was not a valid tag:payload envelope
//   - *DecodeError: an "ok" payload was not valid JSON
//   - ErrClosed: the client was closed
//   - ErrInvalidCommand: the command contains a line terminator
//
// # Thread Safety
//
// A Client may be shared between goroutines. Exchanges are serialized, so
// replies are never mismatched with commands.
package infuseprotocol
