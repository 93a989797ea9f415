package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"
)

// SendAction asks the resident to run the named action.
func SendAction(ctx context.Context, name string) error {
	_, err := request(ctx, cmdAction+" "+name)
	return err
}

// QueryStatus returns the resident's one-line status.
func QueryStatus(ctx context.Context) (string, error) {
	return request(ctx, cmdStatus)
}

func request(ctx context.Context, line string) (string, error) {
	port, ok := DetectResidentPort(ctx)
	if !ok {
		return "", ErrNoResident
	}
	resp, err := exchange(port, line, timeoutFrom(ctx, requestTimeout))
	if err != nil {
		return "", err
	}

	status, text, _ := strings.Cut(resp, " ")
	switch status {
	case respOK:
		return text, nil
	case respError:
		return "", errors.New(text)
	default:
		return "", errors.New("unexpected response: " + resp)
	}
}

// exchange writes one request line to the resident on port and returns the
// response line without its terminator.
func exchange(port int, line string, timeout time.Duration) (string, error) {
	addr := net.JoinHostPort(residentHost, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		return "", err
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(resp, "\r\n"), nil
}
