package pdf

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsPDF(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"pdf header", []byte("%PDF-1.7\n..."), true},
		{"html", []byte("<html><body>"), false},
		{"empty", nil, false},
		{"truncated header", []byte("%PD"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPDF(tt.data); got != tt.want {
				t.Errorf("IsPDF(%q) = %v, want %v", tt.data, got, tt.want)
			}
		})
	}
}

func TestExtractBytes_NotAPDF(t *testing.T) {
	_, err := ExtractBytes([]byte("plain text, not a pdf"), 0)
	if err == nil {
		t.Fatal("ExtractBytes() expected error for non-PDF input")
	}
}

func TestExtractText_MissingFile(t *testing.T) {
	_, err := ExtractText(filepath.Join(t.TempDir(), "missing.pdf"), 1)
	if err == nil {
		t.Fatal("ExtractText() expected error for missing file")
	}
}

func TestExtractText_GarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 but nothing else"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ExtractText(path, 0); err == nil {
		t.Fatal("ExtractText() expected error for malformed PDF")
	}
}
