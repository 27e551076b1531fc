package storage

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/starford/pensieri/internal/apperr"
	"github.com/starford/pensieri/internal/checksum"
	"github.com/starford/pensieri/internal/models"
)

// MaxImageSize caps an uploaded image.
const MaxImageSize = 10 << 20

// CoverDir is the directory cover images are stored under.
const CoverDir = "covers"

var imageExts = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DetectImage sniffs data and returns its file extension. Only raster
// formats browsers render natively are accepted.
func DetectImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("storage: empty image: %w", apperr.ErrInvalidArgument)
	}
	if len(data) > MaxImageSize {
		return "", fmt.Errorf("storage: image too large: %d bytes (max %d): %w",
			len(data), MaxImageSize, apperr.ErrInvalidArgument)
	}
	mime := strings.Split(http.DetectContentType(data), ";")[0]
	ext, ok := imageExts[mime]
	if !ok {
		return "", fmt.Errorf("storage: unsupported image type %s: %w", mime, apperr.ErrInvalidArgument)
	}
	return ext, nil
}

// DecodeDataURI parses a data:[<mediatype>];base64,<data> URI. The declared
// media type must agree with the sniffed content.
func DecodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", fmt.Errorf("storage: not a data URI: %w", apperr.ErrInvalidArgument)
	}
	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("storage: data URI missing comma: %w", apperr.ErrInvalidArgument)
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, "", fmt.Errorf("storage: only base64 data URIs are supported: %w", apperr.ErrInvalidArgument)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("storage: invalid base64 data: %w", apperr.ErrInvalidArgument)
		}
	}

	ext, err := DetectImage(data)
	if err != nil {
		return nil, "", err
	}
	declared := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	if want, ok := imageExts[declared]; !ok || want != ext {
		return nil, "", fmt.Errorf("storage: content does not match declared type %s: %w",
			declared, apperr.ErrInvalidArgument)
	}
	return data, ext, nil
}

// PutImage stores data under a content-addressed name in CoverDir. Storing
// the same bytes twice yields the same name and writes once.
func PutImage(p Provider, data []byte) (models.BlobMeta, error) {
	ext, err := DetectImage(data)
	if err != nil {
		return models.BlobMeta{}, err
	}
	sum := checksum.Sum(data)
	meta := models.BlobMeta{
		Name:     CoverDir + "/" + sum + ext,
		Size:     int64(len(data)),
		Checksum: sum,
	}
	if _, err := p.Read(meta.Name); err == nil {
		return meta, nil
	}
	if err := p.Write(meta.Name, data); err != nil {
		return models.BlobMeta{}, err
	}
	return meta, nil
}

// ReadImage returns a stored image or apperr.ErrNotFound.
func ReadImage(p Provider, name string) ([]byte, error) {
	data, err := p.Read(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("storage: %s: %w", name, apperr.ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

// ListImages returns the stored cover images. An empty store yields none.
func ListImages(p Provider) ([]models.BlobMeta, error) {
	list, err := p.List(CoverDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.BlobMeta{}, nil
		}
		return nil, err
	}
	if list == nil {
		list = []models.BlobMeta{}
	}
	return list, nil
}

// DeleteImage removes a stored cover image or returns apperr.ErrNotFound.
func DeleteImage(p Provider, name string) error {
	if !strings.HasPrefix(name, CoverDir+"/") {
		return fmt.Errorf("storage: %s is not a cover image: %w", name, apperr.ErrInvalidArgument)
	}
	if err := p.Delete(name); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("storage: %s: %w", name, apperr.ErrNotFound)
		}
		return err
	}
	return nil
}
