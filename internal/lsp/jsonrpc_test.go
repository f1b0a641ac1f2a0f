package lsp

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestReadMessageFrames(t *testing.T) {
	var buf strings.Builder
	for _, msg := range []string{`{"method":"one"}`, `{"method":"two"}`} {
		if err := writeMessage(&buf, []byte(msg)); err != nil {
			t.Fatalf("writeMessage: %v", err)
		}
	}
	input := "Content-Type: application/vscode-jsonrpc; charset=utf-8\r\n" + buf.String()

	r := bufio.NewReader(strings.NewReader(input))
	for _, want := range []string{`{"method":"one"}`, `{"method":"two"}`} {
		got, err := readMessage(r)
		if err != nil {
			t.Fatalf("readMessage: %v", err)
		}
		if string(got) != want {
			t.Errorf("readMessage = %s, want %s", got, want)
		}
	}
	if _, err := readMessage(r); !errors.Is(err, io.EOF) {
		t.Errorf("after last frame err = %v, want EOF", err)
	}
}

func TestReadMessageErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no length", "X-Other: 1\r\n\r\n{}"},
		{"bad length", "Content-Length: abc\r\n\r\n"},
		{"negative", "Content-Length: -4\r\n\r\n"},
		{"short body", "Content-Length: 10\r\n\r\n{}"},
		{"cut header", "Content-Length: 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readMessage(bufio.NewReader(strings.NewReader(tt.input)))
			if err == nil || errors.Is(err, io.EOF) {
				t.Errorf("readMessage err = %v, want a framing error", err)
			}
		})
	}
}
