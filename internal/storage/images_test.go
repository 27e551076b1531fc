package storage

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/starford/pensieri/internal/apperr"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestDetectImage(t *testing.T) {
	if ext, err := DetectImage(pngBytes); err != nil || ext != ".png" {
		t.Errorf("png = %q, %v", ext, err)
	}
	if ext, err := DetectImage([]byte("GIF89a......")); err != nil || ext != ".gif" {
		t.Errorf("gif = %q, %v", ext, err)
	}
	for name, data := range map[string][]byte{
		"empty": nil,
		"text":  []byte("hello there"),
		"svg":   []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`),
	} {
		if _, err := DetectImage(data); !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Errorf("%s: err = %v", name, err)
		}
	}
}

func TestDecodeDataURI(t *testing.T) {
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	data, ext, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("DecodeDataURI: %v", err)
	}
	if ext != ".png" || string(data) != string(pngBytes) {
		t.Errorf("ext = %q data = %q", ext, data)
	}

	bad := []string{
		"image/png;base64,xxxx",
		"data:image/png;base64",
		"data:image/png,plain",
		"data:image/png;base64,!!!",
		"data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(pngBytes),
	}
	for _, in := range bad {
		if _, _, err := DecodeDataURI(in); !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Errorf("DecodeDataURI(%.30q) err = %v", in, err)
		}
	}
}

func TestPutImage_ContentAddressed(t *testing.T) {
	s := tempRoot(t)
	first, err := PutImage(s, pngBytes)
	if err != nil {
		t.Fatalf("PutImage: %v", err)
	}
	if !strings.HasPrefix(first.Name, CoverDir+"/") || !strings.HasSuffix(first.Name, ".png") {
		t.Errorf("name = %q", first.Name)
	}
	second, err := PutImage(s, pngBytes)
	if err != nil {
		t.Fatalf("PutImage again: %v", err)
	}
	if second != first {
		t.Errorf("second = %+v, want %+v", second, first)
	}
	items, _ := s.List(CoverDir)
	if len(items) != 1 {
		t.Errorf("stored %d blobs, want 1", len(items))
	}
}

func TestReadImage_NotFound(t *testing.T) {
	s := tempRoot(t)
	if _, err := ReadImage(s, "covers/missing.png"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListAndDeleteImages(t *testing.T) {
	s := tempRoot(t)
	list, err := ListImages(s)
	if err != nil || len(list) != 0 {
		t.Fatalf("empty store = %+v, %v", list, err)
	}

	meta, err := PutImage(s, pngBytes)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Write("notes.txt", []byte("not a cover")); err != nil {
		t.Fatal(err)
	}
	list, err = ListImages(s)
	if err != nil || len(list) != 1 || list[0] != meta {
		t.Fatalf("list = %+v, %v", list, err)
	}

	if err := DeleteImage(s, "notes.txt"); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("non-cover err = %v, want ErrInvalidArgument", err)
	}
	if err := DeleteImage(s, meta.Name); err != nil {
		t.Fatalf("DeleteImage: %v", err)
	}
	if err := DeleteImage(s, meta.Name); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}
