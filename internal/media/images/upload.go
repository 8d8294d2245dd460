// Package images validates, stores and removes uploaded book cover images.
package images

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	domainerrors "github.com/bookhaven/bookhaven-server/internal/errors"
)

// Upload is an image received from a client, held in memory.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Policy decides which uploads are accepted.
type Policy struct {
	MaxBytes int64
	AllowGIF bool
}

// formats maps a decoded image format to its accepted extensions and MIME type.
var formats = map[string]struct {
	exts []string
	mime string
}{
	"jpeg": {[]string{".jpg", ".jpeg"}, "image/jpeg"},
	"png":  {[]string{".png"}, "image/png"},
	"webp": {[]string{".webp"}, "image/webp"},
	"gif":  {[]string{".gif"}, "image/gif"},
}

func (p Policy) allowed(format string) bool {
	if format == "gif" {
		return p.AllowGIF
	}
	_, ok := formats[format]
	return ok
}

func (p Policy) allowedNames() string {
	if p.AllowGIF {
		return "jpeg, jpg, png, webp, gif"
	}
	return "jpeg, jpg, png, webp"
}

// ReadUpload reads at most p.MaxBytes from r. A larger body is rejected
// without reading it in full.
func (p Policy) ReadUpload(r io.Reader, filename, contentType string) (*Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, p.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > p.MaxBytes {
		return nil, p.tooLarge()
	}
	return &Upload{Filename: filename, ContentType: contentType, Data: data}, nil
}

// Validate checks extension, declared MIME type and content of u.
// It returns the normalized file extension to store the image under.
func (p Policy) Validate(u *Upload) (string, error) {
	if u == nil || len(u.Data) == 0 {
		return "", domainerrors.InvalidImage("Image file is empty")
	}
	if int64(len(u.Data)) > p.MaxBytes {
		return "", p.tooLarge()
	}

	ext := strings.ToLower(filepath.Ext(u.Filename))
	declared := mediaType(u.ContentType)

	extFormat := ""
	for name, f := range formats {
		for _, e := range f.exts {
			if e == ext {
				extFormat = name
			}
		}
	}
	if extFormat == "" || !p.allowed(extFormat) {
		return "", p.rejected()
	}
	if declared != formats[extFormat].mime {
		return "", p.rejected()
	}

	if sniffed := http.DetectContentType(u.Data); sniffed != formats[extFormat].mime {
		return "", domainerrors.InvalidImage("Image content does not match its file type")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(u.Data))
	if err != nil || format != extFormat {
		return "", domainerrors.InvalidImage("Image file could not be decoded")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", domainerrors.InvalidImage("Image has no pixels")
	}

	if ext == ".jpeg" {
		ext = ".jpg"
	}
	return ext, nil
}

func (p Policy) rejected() *domainerrors.Error {
	return domainerrors.InvalidImage("Images only (" + p.allowedNames() + ")")
}

func (p Policy) tooLarge() *domainerrors.Error {
	return domainerrors.InvalidImage(fmt.Sprintf("Image exceeds the %d byte limit", p.MaxBytes))
}

// mediaType strips parameters from a Content-Type value.
func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}
