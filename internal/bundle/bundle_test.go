package bundle

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/klauspost/compress/zip"
)

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	out := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		out[f.Name] = b
	}
	if len(out) != len(zr.File) {
		t.Fatalf("duplicate entry names in archive: %d files, %d unique", len(zr.File), len(out))
	}
	return out
}

func TestBundle_Empty(t *testing.T) {
	if _, err := Bundle(nil, "x.zip"); !errors.Is(err, ErrNoFiles) {
		t.Errorf("got %v, want ErrNoFiles", err)
	}
}

func TestBundle_SingleFilePassesThrough(t *testing.T) {
	f := File{Name: "a.png", MIMEType: "image/png", Data: []byte{1, 2, 3}}
	got, err := Bundle([]File{f}, "images.zip")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "a.png" || got.MIMEType != "image/png" || !bytes.Equal(got.Data, f.Data) {
		t.Errorf("single file was altered: %+v", got)
	}
}

func TestBundle_KEntries(t *testing.T) {
	files := []File{
		{Name: "a.png", Data: []byte("aaa")},
		{Name: "b.jpeg", Data: []byte("bbb")},
		{Name: "c.webp", Data: []byte("ccc")},
	}
	got, err := Bundle(files, "converted-images")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "converted-images.zip" || got.MIMEType != ArchiveMIME {
		t.Errorf("archive: %s %s", got.Name, got.MIMEType)
	}
	entries := readZip(t, got.Data)
	if len(entries) != 3 {
		t.Fatalf("entries: got %d, want 3", len(entries))
	}
	if string(entries["b.jpeg"]) != "bbb" {
		t.Errorf("b.jpeg content: %q", entries["b.jpeg"])
	}
}

func TestBundle_DuplicateNames(t *testing.T) {
	files := []File{
		{Name: "photo.jpeg", Data: []byte("1")},
		{Name: "photo.jpeg", Data: []byte("2")},
		{Name: "PHOTO.jpeg", Data: []byte("3")},
		{Name: "", Data: []byte("4")},
	}
	got, err := Bundle(files, "images.zip")
	if err != nil {
		t.Fatal(err)
	}
	entries := readZip(t, got.Data)
	if len(entries) != 4 {
		t.Fatalf("entries: got %d, want 4", len(entries))
	}
	want := map[string]string{
		"photo.jpeg":     "1",
		"photo (1).jpeg": "2",
		"PHOTO (2).jpeg": "3",
		"image-4":        "4",
	}
	for name, content := range want {
		if string(entries[name]) != content {
			t.Errorf("%s: got %q, want %q", name, entries[name], content)
		}
	}
}
