package httpds

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSourceOpen(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/exports/sekolah.csv" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, "Nama Sekolah,NPSN\nSD 1,1\n")
	}))
	defer srv.Close()

	src := New(srv.URL+"/exports/sekolah.csv?token=secret", newTestClient(0, nil))
	if got := src.Name(); got != "sekolah.csv" {
		t.Fatalf("Name() = %q, want sekolah.csv", got)
	}
	rc, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(b), "Nama Sekolah") {
		t.Fatalf("body = %q", b)
	}

	_, err = New(srv.URL+"/missing.xlsx?token=secret", newTestClient(0, nil)).Open(context.Background())
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if !strings.Contains(err.Error(), "404") || strings.Contains(err.Error(), "secret") {
		t.Fatalf("error %q should carry the status and not the query", err)
	}
}

func TestNameFromURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"https://dapo.example.id/unduh/Data%20Sekolah.xlsx", "Data Sekolah.xlsx"},
		{"https://example.id/a/b/c.csv?x=1#frag", "c.csv"},
	}
	for _, tt := range tests {
		if got := NameFromURL(tt.in); got != tt.want {
			t.Errorf("NameFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	a, b := NameFromURL("https://example.id/"), NameFromURL("https://example.id/")
	if a != b || !strings.HasPrefix(a, "download-") {
		t.Errorf("NameFromURL without a path = %q / %q, want a stable download- name", a, b)
	}
	if NameFromURL("https://example.id/?q=1") == NameFromURL("https://example.id/?q=2") {
		t.Error("distinct URLs without a path should not share a name")
	}
}

func TestIsURL(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]bool{
		"https://example.id/data.xlsx": true,
		"http://localhost:8080/x.csv":  true,
		"data.xlsx":                    false,
		"-":                            false,
		"ftp://example.id/x.csv":       false,
		"C:\\exports\\data.xlsx":       false,
	} {
		if got := IsURL(in); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", in, got, want)
		}
	}
}
