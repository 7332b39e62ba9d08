// Package infuseprotocol implements the line-oriented text protocol spoken
// by the InfuseDB server.
//
// Protocol Format:
//
//	Handshake (Server -> CLI): <version>\n
//	Request   (CLI -> Server): <command>\n
//	Success Response:          ok:<json-payload>\n
//	Error Response:            err:<error-message>\n
//
// Example Session:
//
//	SRV: InfuseDB 0.3.1
//	CLI: set name "Alberto Ruiz"
//	SRV: ok:true
//	CLI: get name
//	SRV: ok:"Alberto Ruiz"
//	CLI: get missing
//	SRV: err:key not found
package infuseprotocol

import (
	"fmt"
	"net"
	"strconv"
)

// Protocol constants.
const (
	// OKTag is the tag for success responses.
	OKTag = "ok"

	// ErrTag is the tag for error responses.
	ErrTag = "err"

	// TagSeparator separates the tag from the payload in a reply line.
	TagSeparator = ":"

	// LineTerminator ends every protocol message in both directions.
	LineTerminator = "\n"

	// DefaultHost is the host the server listens on by default.
	DefaultHost = "localhost"

	// DefaultPort is the port the server listens on by default.
	DefaultPort = 1234

	// MaxPort is the highest valid TCP port.
	MaxPort = 65535
)

// Address joins host and port into a dialable TCP address.
func Address(host string, port int) (string, error) {
	if port < 0 || port > MaxPort {
		return "", fmt.Errorf("port %d out of range 0-%d", port, MaxPort)
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}
