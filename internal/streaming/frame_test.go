package streaming

import (
	"io"
	"strings"
	"testing"
)

func TestFrameReaderBasic(t *testing.T) {
	input := "data: {\"a\":1}\n\n"
	fr := NewFrameReader(strings.NewReader(input))
	frame, err := fr.Next()
	if err != nil {
		t.Fatal(err)
	}
	if string(frame.Data) != `{"a":1}` {
		t.Errorf("frame data = %q", frame.Data)
	}
}

func TestFrameReaderSkipsCommentsAndBlankLines(t *testing.T) {
	input := ": this is a comment\n\ndata: hello\n\n"
	fr := NewFrameReader(strings.NewReader(input))
	frame, err := fr.Next()
	if err != nil {
		t.Fatal(err)
	}
	if string(frame.Data) != "hello" {
		t.Errorf("frame data = %q, want hello", frame.Data)
	}
}

func TestFrameReaderDoneMarker(t *testing.T) {
	input := "data: [DONE]\n\n"
	fr := NewFrameReader(strings.NewReader(input))
	frame, err := fr.Next()
	if err != nil {
		t.Fatal(err)
	}
	if !frame.Done {
		t.Error("expected Done=true for [DONE] marker")
	}
}

func TestFrameReaderMultilineData(t *testing.T) {
	input := "data: line1\ndata: line2\n\n"
	fr := NewFrameReader(strings.NewReader(input))
	frame, err := fr.Next()
	if err != nil {
		t.Fatal(err)
	}
	if string(frame.Data) != "line1\nline2" {
		t.Errorf("frame data = %q", frame.Data)
	}
}

func TestFrameReaderEOF(t *testing.T) {
	fr := NewFrameReader(strings.NewReader(""))
	_, err := fr.Next()
	if err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestFrameReaderNamedEvent(t *testing.T) {
	input := "event: ping\ndata: {}\n\n"
	fr := NewFrameReader(strings.NewReader(input))
	frame, err := fr.Next()
	if err != nil {
		t.Fatal(err)
	}
	if frame.Event != "ping" {
		t.Errorf("frame event = %q, want ping", frame.Event)
	}
}
