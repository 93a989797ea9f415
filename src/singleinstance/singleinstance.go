// Package singleinstance keeps one resident GUI per user and lets other
// processes trigger its actions over a loopback line protocol:
//
//	PING            -> PONG
//	ACTION <name>   -> OK | ERROR <msg>
//	STATUS          -> OK <text> | ERROR <msg>
package singleinstance

import (
	"context"
	"errors"
)

const (
	residentHost = "127.0.0.1"

	cmdPing   = "PING"
	cmdAction = "ACTION"
	cmdStatus = "STATUS"
	respPong  = "PONG"
	respOK    = "OK"
	respError = "ERROR"
)

// ErrNoResident is returned by the client when no server answers PING.
var ErrNoResident = errors.New("no resident instance found")

// Handler executes requests received by the server.
type Handler interface {
	HandleAction(ctx context.Context, name string) error
	Status(ctx context.Context) (string, error)
}
