package objectstore

import (
	"strings"
	"testing"

	"studypile/internal/models"
)

func TestObjectPath(t *testing.T) {
	cases := []struct {
		name     string
		fileName string
		kind     models.FileKind
		want     string
	}{
		{"extension from filename", "slides.pdf", models.KindPDF, "users/user-a/uploads/file-1.pdf"},
		{"last extension wins", "bundle.tar.pptx", models.KindPptx, "users/user-a/uploads/file-1.pptx"},
		{"kind fallback without extension", "lecture-recording", models.KindAudio, "users/user-a/uploads/file-1.audio"},
		{"case preserved", "NOTES.DOCX", models.KindDocx, "users/user-a/uploads/file-1.DOCX"},
	}
	for _, tc := range cases {
		got := ObjectPath("user-a", "file-1", tc.fileName, tc.kind)
		if got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestObjectPathNamespacing(t *testing.T) {
	a := ObjectPath("user-a", "id-1", "notes.pdf", models.KindPDF)
	b := ObjectPath("user-b", "id-2", "notes.pdf", models.KindPDF)
	if a == b {
		t.Fatalf("identical filenames must not collide across users: %q", a)
	}
	if !strings.HasPrefix(a, "users/user-a/uploads/") || !strings.HasPrefix(b, "users/user-b/uploads/") {
		t.Fatalf("paths not namespaced by owner: %q, %q", a, b)
	}

	// Same user, same filename: the generated id keeps paths unique.
	c := ObjectPath("user-a", "id-3", "notes.pdf", models.KindPDF)
	if a == c {
		t.Fatalf("repeat upload produced duplicate path %q", a)
	}
}
