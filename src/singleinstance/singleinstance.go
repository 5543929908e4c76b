package singleinstance

// This file defines the API for single-instance ownership and run-once delegation.

import (
	"context"
	"errors"
)

// ErrBusy is returned to clients whose request arrived while a capture was running.
var ErrBusy = errors.New("busy")

// ErrAlreadyRunning is returned by Server.Start when another resident owns the port.
var ErrAlreadyRunning = errors.New("resident already running")

// Server owns the TCP endpoint and answers run-once requests.
type Server interface {
	// Start binds the first port of the configured range and accepts clients.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted capture request, or ctx error.
	Next(ctx context.Context) (Conn, error)
	Close() error
}

// Conn represents one client connection and exposes request + response API.
type Conn interface {
	Request() Request
	// RespondSuccess sends SUCCESS followed by a one-line summary.
	RespondSuccess(summary string) error
	// RespondError sends ERROR with a human-readable message.
	RespondError(msg string) error
	Close() error
}

// Request is a single run-once client request.
type Request struct {
	Command string
}

// Client attempts to delegate a capture to a resident server.
type Client interface {
	// TryRunOnce finds a resident via PING and asks it to capture the foreground
	// dialog. If no resident is found, returns delegated=false, err=nil.
	TryRunOnce(ctx context.Context) (delegated bool, summary string, err error)
}

// NewServer returns TCP implementation.
func NewServer() Server { return newTcpServer() }

// NewClient returns TCP implementation.
func NewClient() Client { return newTcpClient() }
