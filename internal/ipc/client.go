package ipc

import (
	"encoding/json"
	"fmt"
	"net"

	"codeberg.org/mutker/displayctl/internal/errors"
)

// Send delivers one request to a running daemon and returns the
// decoded response. Intended for command-line tools and tests.
func Send(socketPath string, req Request) (*Response, error) {
	errFactory := errors.New()

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, errFactory.Wrap(ErrConnect, err)
	}
	defer conn.Close()

	data, err := json.Marshal(req)
	if err != nil {
		return nil, errFactory.Wrap(ErrBadResponse, err)
	}

	if _, err := fmt.Fprintf(conn, "%s\n", data); err != nil {
		return nil, errFactory.Wrap(ErrConnect, err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, errFactory.Wrap(ErrBadResponse, err)
	}

	if resp.Status == "error" {
		return &resp, errFactory.WithData(ErrRemote, resp.Error)
	}

	return &resp, nil
}
