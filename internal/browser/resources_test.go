package browser

import (
	"context"
	"errors"
	"testing"
)

func TestShouldBlock(t *testing.T) {
	// WHAT: CDP resource types map onto config names, documents always pass.
	// WHY: Blocking the document would blank every result page.
	set := blockSetOf([]string{"Images", " fonts ", "stylesheets", "document"})
	cases := map[string]bool{
		"Image":      true,
		"Font":       true,
		"Stylesheet": true,
		"Media":      false,
		"Document":   false,
		"Script":     false,
	}
	for typ, want := range cases {
		if got := shouldBlock(set, typ); got != want {
			t.Errorf("shouldBlock(%q): got %v, want %v", typ, got, want)
		}
	}
}

func TestSession_CloseIdempotent(t *testing.T) {
	// WHAT: Close on a session that never launched is safe, twice.
	// WHY: The command defers Close on every path, including failed launches.
	s := &Session{}
	s.cfg.defaults()
	if err := s.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, err := s.OpenTab(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("open after close: got %v, want ErrClosed", err)
	}
}
