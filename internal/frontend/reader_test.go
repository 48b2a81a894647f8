package frontend

import (
	"bufio"
	"strings"
	"testing"
)

func TestReadMessage_PlainLine(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader(`{"jsonrpc":"2.0","id":"1","method":"ping"}` + "\n"))
	msg, err := readMessage(reader, maxFrameBytes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(msg) != `{"jsonrpc":"2.0","id":"1","method":"ping"}` {
		t.Fatalf("unexpected message: %s", msg)
	}
}

func TestReadMessage_ContentLengthFramed(t *testing.T) {
	body := `{"jsonrpc":"2.0","id":"1","method":"ping"}`
	framed := "Content-Length: " + itoa(len(body)) + "\r\n\r\n" + body
	reader := bufio.NewReader(strings.NewReader(framed))
	msg, err := readMessage(reader, maxFrameBytes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(msg) != body {
		t.Fatalf("unexpected message: %s", msg)
	}
}

func TestReadMessage_SkipsBlankLines(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader("\n\n" + `{"jsonrpc":"2.0","method":"ping"}` + "\n"))
	msg, err := readMessage(reader, maxFrameBytes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(msg) != `{"jsonrpc":"2.0","method":"ping"}` {
		t.Fatalf("unexpected message: %s", msg)
	}
}

func TestReadMessage_RejectsOversizedContentLength(t *testing.T) {
	framed := "Content-Length: 99999999\r\n\r\n{}"
	reader := bufio.NewReader(strings.NewReader(framed))
	msg, err := readMessage(reader, 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(msg) != "Content-Length: 99999999" {
		t.Fatalf("expected the oversized header line to fall back to plain-line handling, got %q", msg)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
