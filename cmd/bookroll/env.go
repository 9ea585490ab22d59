package main

import (
	"context"
	"io"
	"os"
	"time"

	bookroll "github.com/alnah/go-bookroll"
)

// Session is the part of bookroll.Service the capture command drives.
type Session interface {
	Open(ctx context.Context, url string) error
	Capture(ctx context.Context) (*bookroll.Result, error)
	Close() error
}

// Compile-time interface implementation check.
var _ Session = (*bookroll.Service)(nil)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, and the session factory.
type Environment struct {
	Now        func() time.Time
	Stdout     io.Writer
	Stderr     io.Writer
	Stdin      io.Reader
	NewSession func(opts ...bookroll.Option) (Session, error)
}

// DefaultEnv returns the production environment backed by a real browser.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Stdin:  os.Stdin,
		NewSession: func(opts ...bookroll.Option) (Session, error) {
			return bookroll.New(opts...)
		},
	}
}
