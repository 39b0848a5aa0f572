package proc

import (
	"reflect"
	"testing"
)

func TestStreamLines(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "hello\n", "hello\n"},
		{"no trailing newline", "hello", "hello"},
		{"crlf", "1\r\n2\r\n", "1\n2\n"},
		{"bare cr", "1\r2\r", "1\n2\n"},
		{"mixed endings", "1\r\n2\r3\r\n", "1\n2\n3\n"},
		{"internal blank lines kept", "a\n\nb\n", "a\n\nb\n"},
		{"trailing crlf preserved as one newline", "x\r\n", "x\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StreamLines(tc.in); got != tc.want {
				t.Fatalf("StreamLines(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestListLines(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"single terminated", "hello\n", []string{"hello"}},
		{"single unterminated", "hello", []string{"hello"}},
		{"mixed endings", "1\r\n2\r3\r\n", []string{"1", "2", "3"}},
		{"internal blank line kept", "a\n\nb\n", []string{"a", "", "b"}},
		{"only newline", "\n", []string{""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ListLines(tc.in); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ListLines(%q) = %#v, want %#v", tc.in, got, tc.want)
			}
		})
	}
}

func TestCaptureBufferTee(t *testing.T) {
	var echo mockWriter
	buf := newCaptureBuffer(&echo)
	if _, err := buf.Write([]byte("live ")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := buf.Write([]byte("output")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := buf.String(); got != "live output" {
		t.Fatalf("buffer = %q, want %q", got, "live output")
	}
	if got := echo.String(); got != "live output" {
		t.Fatalf("tee = %q, want %q", got, "live output")
	}
}

type mockWriter struct {
	data []byte
}

func (m *mockWriter) Write(p []byte) (int, error) {
	m.data = append(m.data, p...)
	return len(p), nil
}

func (m *mockWriter) String() string {
	return string(m.data)
}
