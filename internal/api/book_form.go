package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	domainerrors "github.com/bookhaven/bookhaven-server/internal/errors"
	"github.com/bookhaven/bookhaven-server/internal/service"
)

const (
	fieldImage    = "image"
	fieldImageURL = "imageUrl"
)

// bookForm is a parsed book write request. Keys absent from values were not
// sent, which is how updates tell "leave alone" from "set to zero".
type bookForm struct {
	values map[string][]string
	image  *service.ImageInput
	multi  *multipart.Form
}

// parseBookForm reads a multipart or urlencoded body. An uploaded image is
// validated before any service is called.
func (s *Server) parseBookForm(w http.ResponseWriter, r *http.Request) (*bookForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxBytes+formOverhead)

	form := &bookForm{}
	err := r.ParseMultipartForm(s.cfg.Upload.MaxBytes + formOverhead)
	switch {
	case errors.Is(err, http.ErrNotMultipart):
		if err := r.ParseForm(); err != nil {
			return nil, domainerrors.Validation("Invalid form data")
		}
		form.values = r.PostForm
	case err != nil:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domainerrors.InvalidImage("Image exceeds the maximum upload size")
		}
		return nil, domainerrors.Validation("Invalid form data")
	default:
		form.multi = r.MultipartForm
		form.values = r.MultipartForm.Value
	}

	image, err := s.readImage(form)
	if err != nil {
		form.cleanup()
		return nil, err
	}
	form.image = image

	return form, nil
}

// readImage returns the uploaded file, else the imageUrl field, else nil.
func (s *Server) readImage(form *bookForm) (*service.ImageInput, error) {
	if form.multi != nil {
		if headers := form.multi.File[fieldImage]; len(headers) > 0 {
			header := headers[0]
			file, err := header.Open()
			if err != nil {
				return nil, domainerrors.InvalidImage("Unable to read uploaded image")
			}
			defer file.Close()

			upload, err := s.cfg.Upload.ReadUpload(file, header.Filename, header.Header.Get("Content-Type"))
			if err != nil {
				return nil, err
			}
			ext, err := s.cfg.Upload.Validate(upload)
			if err != nil {
				return nil, err
			}
			return &service.ImageInput{Data: upload.Data, Ext: ext}, nil
		}
	}

	if url, ok := form.text(fieldImageURL); ok && strings.TrimSpace(*url) != "" {
		return &service.ImageInput{URL: strings.TrimSpace(*url)}, nil
	}
	return nil, nil
}

func (f *bookForm) cleanup() {
	if f.multi != nil {
		_ = f.multi.RemoveAll()
	}
}

// text returns the first value of key and whether the key was sent.
func (f *bookForm) text(key string) (*string, bool) {
	vals, ok := f.values[key]
	if !ok {
		return nil, false
	}
	v := ""
	if len(vals) > 0 {
		v = vals[0]
	}
	return &v, true
}

func (f *bookForm) price() (*float64, error) {
	raw, ok := f.text("price")
	if !ok {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
	if err != nil {
		return nil, fieldError("price", "must be a number")
	}
	return &v, nil
}

func (f *bookForm) countInStock() (*int, error) {
	raw, ok := f.text("countInStock")
	if !ok {
		return nil, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(*raw))
	if err != nil {
		return nil, fieldError("countInStock", "must be a whole number")
	}
	return &v, nil
}

func (f *bookForm) isPublished() (*bool, error) {
	raw, ok := f.text("isPublished")
	if !ok {
		return nil, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(*raw))
	if err != nil {
		return nil, fieldError("isPublished", "must be true or false")
	}
	return &v, nil
}

func (f *bookForm) releaseDate() (*time.Time, error) {
	raw, ok := f.text("releaseDate")
	if !ok {
		return nil, nil
	}
	v, err := parseReleaseDate(strings.TrimSpace(*raw))
	if err != nil {
		return nil, fieldError("releaseDate", "must be an RFC 3339 timestamp or YYYY-MM-DD date")
	}
	return &v, nil
}

// createRequest builds a new listing. Price and stock are required.
func (f *bookForm) createRequest() (service.CreateBookRequest, error) {
	var req service.CreateBookRequest

	for key, dst := range map[string]*string{
		"title":       &req.Title,
		"author":      &req.Author,
		"description": &req.Description,
		"category":    &req.Category,
	} {
		if v, ok := f.text(key); ok {
			*dst = *v
		}
	}

	price, err := f.price()
	if err != nil {
		return req, err
	}
	if price == nil {
		return req, fieldError("price", "is required")
	}
	req.Price = *price

	stock, err := f.countInStock()
	if err != nil {
		return req, err
	}
	if stock == nil {
		return req, fieldError("countInStock", "is required")
	}
	req.CountInStock = *stock

	if req.IsPublished, err = f.isPublished(); err != nil {
		return req, err
	}
	if req.ReleaseDate, err = f.releaseDate(); err != nil {
		return req, err
	}

	return req, nil
}

// patch builds an update from the keys that were sent.
func (f *bookForm) patch() (domain.BookPatch, error) {
	var p domain.BookPatch
	var err error

	p.Title, _ = f.text("title")
	p.Author, _ = f.text("author")
	p.Description, _ = f.text("description")
	p.Category, _ = f.text("category")

	if p.Price, err = f.price(); err != nil {
		return p, err
	}
	if p.CountInStock, err = f.countInStock(); err != nil {
		return p, err
	}
	if p.IsPublished, err = f.isPublished(); err != nil {
		return p, err
	}
	if p.ReleaseDate, err = f.releaseDate(); err != nil {
		return p, err
	}

	return p, nil
}

// parseReleaseDate accepts RFC 3339 timestamps and plain dates (UTC midnight).
// On failure both parse errors are returned.
func parseReleaseDate(s string) (time.Time, error) {
	t, rfcErr := time.Parse(time.RFC3339, s)
	if rfcErr == nil {
		return t, nil
	}
	t, dateErr := time.Parse(time.DateOnly, s)
	if dateErr == nil {
		return t, nil
	}
	return time.Time{}, errors.Join(rfcErr, dateErr)
}

func fieldError(field, msg string) *domainerrors.Error {
	return domainerrors.ValidationWithDetails(field+" "+msg, map[string]string{field: msg})
}
