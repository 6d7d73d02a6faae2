package iox

import (
	"errors"
	"io"
	"testing"
)

type spyCloser struct {
	closed bool
	err    error
}

func (s *spyCloser) Close() error { s.closed = true; return s.err }

func TestDiscardClose(t *testing.T) {
	s := &spyCloser{err: errors.New("ignored")}
	DiscardClose(s)
	if !s.closed {
		t.Fatal("Close was not called")
	}
}

func TestCloseFunc(t *testing.T) {
	s := &spyCloser{}
	fn := CloseFunc(s)
	if s.closed {
		t.Fatal("Close called before invoking returned func")
	}
	fn()
	if !s.closed {
		t.Fatal("Close was not called")
	}
}

func TestCloseAll(t *testing.T) {
	errA := errors.New("a")
	errC := errors.New("c")
	a := &spyCloser{err: errA}
	b := &spyCloser{}
	c := &spyCloser{err: errC}

	err := CloseAll(a, nil, b, c)
	if !a.closed || !b.closed || !c.closed {
		t.Fatal("every closer should be closed after a failure")
	}
	if !errors.Is(err, errA) || !errors.Is(err, errC) {
		t.Errorf("CloseAll = %v, want both errors joined", err)
	}

	if err := CloseAll(); err != nil {
		t.Errorf("CloseAll() = %v, want nil", err)
	}
}

func TestCloseAll_NilInterface(t *testing.T) {
	var none io.Closer
	if err := CloseAll(none, &spyCloser{}); err != nil {
		t.Errorf("CloseAll = %v, want nil", err)
	}
}
