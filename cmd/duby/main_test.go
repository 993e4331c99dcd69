package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/funvibe/duby/internal/types"
)

func TestLoadUniverse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classes.yaml")
	src := "classes:\n  - name: com.example.Box\n    methods:\n      - name: size\n        returns: int\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	u, err := loadUniverse(path)
	if err != nil {
		t.Fatalf("loadUniverse: %v", err)
	}
	box, err := u.Parse("com.example.Box")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := box.Method("size"); !ok {
		t.Errorf("size() not declared")
	}

	if _, err := loadUniverse(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("explicit missing config accepted")
	}
}

func TestParseTypes(t *testing.T) {
	u := types.NewUniverse()
	ts, err := parseTypes(u, nil)
	if err != nil || len(ts) != len(u.BuiltinTypes()) {
		t.Fatalf("defaults = %v, %v", ts, err)
	}
	ts, err = parseTypes(u, []string{"int[]", "String"})
	if err != nil || ts[0] != u.ArrayOf(u.Int) || ts[1] != u.String {
		t.Errorf("parsed %v, %v", ts, err)
	}
	if _, err := parseTypes(u, []string{"nope"}); !errors.Is(err, types.ErrUnknownType) {
		t.Errorf("err = %v", err)
	}
}

func TestColorize(t *testing.T) {
	in := "== recv.length() ==\n; max_stack=1 max_locals=2\nL0:\n0000 ldc           #1 ; \"x\"\n0002 return\n"
	out := colorize(in)
	lines := strings.Split(out, "\n")
	if !strings.HasPrefix(lines[0], ansiBold) || !strings.HasPrefix(lines[1], ansiDim) || !strings.HasPrefix(lines[2], ansiYellow) {
		t.Errorf("headers not highlighted: %q", out)
	}
	if !strings.Contains(lines[3], ansiDim+" ; ") {
		t.Errorf("comment not dimmed: %q", lines[3])
	}
	if lines[4] != "0002 return" {
		t.Errorf("plain line changed: %q", lines[4])
	}
	if !strings.HasSuffix(out, "\n") {
		t.Errorf("trailing newline lost")
	}
}

type closeRecorder struct {
	strings.Builder
	closed   bool
	closeErr error
}

func (r *closeRecorder) Close() error {
	r.closed = true
	return r.closeErr
}

func TestWriteAndClose(t *testing.T) {
	errDisk := errors.New("disk full")
	errWrite := errors.New("short write")
	tests := []struct {
		name     string
		writeErr error
		closeErr error
		want     error
	}{
		{"ok", nil, nil, nil},
		{"close error reported", nil, errDisk, errDisk},
		{"write error wins", errWrite, errDisk, errWrite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wc := &closeRecorder{closeErr: tt.closeErr}
			err := writeAndClose(wc, func(w io.Writer) error {
				io.WriteString(w, "x")
				return tt.writeErr
			})
			if !errors.Is(err, tt.want) || (tt.want == nil && err != nil) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if !wc.closed {
				t.Errorf("writer not closed")
			}
		})
	}
}

func TestRunExportToFile(t *testing.T) {
	u := types.NewUniverse()
	path := filepath.Join(t.TempDir(), "intrinsics.yaml")
	if err := runExport(u, []string{"-format", "yaml", "-o", path, "String"}); err != nil {
		t.Fatalf("runExport: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "java.lang.String") {
		t.Errorf("export missing String entries:\n%s", data)
	}

	err = runExport(u, []string{"-format", "xml", "-o", filepath.Join(t.TempDir(), "out.xml")})
	if !errors.Is(err, errUsage) {
		t.Errorf("unknown format err = %v", err)
	}
}
