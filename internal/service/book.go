package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	domainerrors "github.com/bookhaven/bookhaven-server/internal/errors"
	"github.com/bookhaven/bookhaven-server/internal/id"
	"github.com/bookhaven/bookhaven-server/internal/media/images"
	"github.com/bookhaven/bookhaven-server/internal/normalize"
	"github.com/bookhaven/bookhaven-server/internal/store"
)

// listLimit caps the new-release and best-seller lists.
const listLimit = 20

var errBookNotFound = domainerrors.NotFound("Book not found")

// BookIndex keeps a keyword index of books. Index maintenance is best-effort.
type BookIndex interface {
	IndexBook(ctx context.Context, b *domain.Book) error
	DeleteBook(ctx context.Context, id string) error
	Reindex(ctx context.Context, books []*domain.Book) error
	Match(ctx context.Context, keyword string) (map[string]struct{}, error)
}

// AssetDiscarder deletes image files that are no longer referenced.
type AssetDiscarder interface {
	Discard(ref string)
}

// CatalogOptions holds catalog rules from configuration.
type CatalogOptions struct {
	// RequireImage rejects creation without an image; otherwise PlaceholderImage is used.
	RequireImage     bool
	PlaceholderImage string
}

// BookService manages catalog listings and their cover images.
type BookService struct {
	store   *store.Store
	index   BookIndex
	images  *images.Storage
	janitor AssetDiscarder
	opts    CatalogOptions
	logger  *slog.Logger
	now     Clock
}

// NewBookService creates a new book service. index may be nil, in which case
// keyword filtering falls back to substring matching.
func NewBookService(
	st *store.Store,
	index BookIndex,
	storage *images.Storage,
	janitor AssetDiscarder,
	opts CatalogOptions,
	logger *slog.Logger,
) *BookService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BookService{
		store:   st,
		index:   index,
		images:  storage,
		janitor: janitor,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *BookService) WithClock(now Clock) *BookService {
	s.now = now
	return s
}

// ImageInput is a new cover: validated upload bytes or an external URL.
type ImageInput struct {
	Data []byte
	Ext  string // from images.Policy.Validate
	URL  string
}

func (in *ImageInput) isEmpty() bool {
	return in == nil || (len(in.Data) == 0 && in.URL == "")
}

// CreateBookRequest contains a new listing.
type CreateBookRequest struct {
	Title        string     `json:"title" validate:"required,notblank,max=300"`
	Author       string     `json:"author" validate:"required,notblank,max=200"`
	Description  string     `json:"description" validate:"required,notblank,max=20000"`
	Price        float64    `json:"price" validate:"gte=0"`
	CountInStock int        `json:"countInStock" validate:"gte=0"`
	Category     string     `json:"category" validate:"required,notblank,max=100"`
	IsPublished  *bool      `json:"isPublished,omitempty"`
	ReleaseDate  *time.Time `json:"releaseDate,omitempty"`
}

// ListFilter narrows List. Empty fields do not filter.
type ListFilter struct {
	Keyword  string
	Category string
}

// List returns books in store order, optionally filtered by keyword and category.
func (s *BookService) List(ctx context.Context, filter ListFilter) ([]*domain.Book, error) {
	q := store.Query[domain.Book]{}

	var matched func(*domain.Book) bool
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		var err error
		matched, err = s.keywordFilter(ctx, kw)
		if err != nil {
			return nil, err
		}
	}
	category := strings.TrimSpace(filter.Category)

	if matched != nil || category != "" {
		q.Filter = func(b *domain.Book) bool {
			if category != "" && !normalize.SameCategory(b.Category, category) {
				return false
			}
			return matched == nil || matched(b)
		}
	}

	books, err := s.store.QueryBooks(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

func (s *BookService) keywordFilter(ctx context.Context, keyword string) (func(*domain.Book) bool, error) {
	if s.index != nil {
		ids, err := s.index.Match(ctx, keyword)
		if err == nil {
			return func(b *domain.Book) bool {
				_, ok := ids[b.ID]
				return ok
			}, nil
		}
		s.logger.Warn("search index query failed, using substring match", "error", err)
	}

	needle := strings.ToLower(keyword)
	return func(b *domain.Book) bool {
		for _, field := range []string{b.Title, b.Author, b.Category, b.Description} {
			if strings.Contains(strings.ToLower(field), needle) {
				return true
			}
		}
		return false
	}, nil
}

// Get returns one book.
func (s *BookService) Get(ctx context.Context, bookID string) (*domain.Book, error) {
	b, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, storeError(err, errBookNotFound, "get book")
	}
	return b, nil
}

// NewReleases returns published books released in the last 30 days, newest first.
func (s *BookService) NewReleases(ctx context.Context) ([]*domain.Book, error) {
	now := s.now()
	books, err := s.store.QueryBooks(ctx, store.Query[domain.Book]{
		Filter: func(b *domain.Book) bool { return b.IsNewRelease(now) },
		Less:   func(a, b *domain.Book) int { return b.ReleaseDate.Compare(a.ReleaseDate) },
		Limit:  listLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list new releases: %w", err)
	}
	return books, nil
}

// BestSellers returns published books by sales, highest first. Ties keep store order.
func (s *BookService) BestSellers(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.store.QueryBooks(ctx, store.Query[domain.Book]{
		Filter: func(b *domain.Book) bool { return b.IsPublished },
		Less:   func(a, b *domain.Book) int { return cmp.Compare(b.SalesCount, a.SalesCount) },
		Limit:  listLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list best sellers: %w", err)
	}
	return books, nil
}

// Create stores a new listing owned by ownerID.
func (s *BookService) Create(ctx context.Context, ownerID string, req CreateBookRequest, image *ImageInput) (*domain.Book, error) {
	req.Title = normalize.Text(req.Title)
	req.Author = normalize.Text(req.Author)
	req.Category = normalize.Text(req.Category)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if err := checkAmounts(&req.Price, &req.CountInStock); err != nil {
		return nil, err
	}

	if image.isEmpty() {
		if s.opts.RequireImage {
			return nil, domainerrors.ErrMissingImage
		}
		image = &ImageInput{URL: s.opts.PlaceholderImage}
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	now := s.now()
	b := &domain.Book{
		User:         ownerID,
		Title:        req.Title,
		Author:       req.Author,
		Description:  normalize.Description(req.Description),
		Price:        req.Price,
		CountInStock: req.CountInStock,
		Category:     req.Category,
		IsPublished:  true,
		ReleaseDate:  now,
	}
	b.ID = bookID
	b.InitTimestamps(now)
	if req.IsPublished != nil {
		b.IsPublished = *req.IsPublished
	}
	if req.ReleaseDate != nil {
		b.ReleaseDate = *req.ReleaseDate
	}

	stored, err := s.storeImage(b, image)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateBook(ctx, b); err != nil {
		s.discard(stored)
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.reindex(ctx, b)
	s.logger.Info("book created", "book_id", b.ID, "user_id", ownerID)

	return b, nil
}

// Update applies every present field of patch. A new image replaces the old
// one, which is discarded after the record is saved.
func (s *BookService) Update(ctx context.Context, bookID string, patch domain.BookPatch, image *ImageInput) (*domain.Book, error) {
	if err := normalizePatch(&patch); err != nil {
		return nil, err
	}

	b, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, storeError(err, errBookNotFound, "get book")
	}

	if patch.IsEmpty() && image.isEmpty() {
		return b, nil
	}

	patch.Apply(b)

	oldImage := b.Image
	stored := ""
	if !image.isEmpty() {
		if stored, err = s.storeImage(b, image); err != nil {
			return nil, err
		}
	}

	b.Touch(s.now())
	if err := s.store.UpdateBook(ctx, b); err != nil {
		s.discard(stored)
		return nil, storeError(err, errBookNotFound, "update book")
	}

	if b.Image != oldImage {
		s.discard(oldImage)
	}

	s.reindex(ctx, b)
	s.logger.Info("book updated", "book_id", b.ID, "image_replaced", b.Image != oldImage)

	return b, nil
}

// Delete removes a listing and discards its local image.
func (s *BookService) Delete(ctx context.Context, bookID string) error {
	b, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return storeError(err, errBookNotFound, "get book")
	}

	if err := s.store.DeleteBook(ctx, bookID); err != nil {
		return storeError(err, errBookNotFound, "delete book")
	}

	s.discard(b.Image)
	if s.index != nil {
		if err := s.index.DeleteBook(ctx, bookID); err != nil {
			s.logger.Warn("failed to remove book from search index", "book_id", bookID, "error", err)
		}
	}

	s.logger.Info("book deleted", "book_id", bookID)
	return nil
}

// RebuildIndex reindexes every stored book.
func (s *BookService) RebuildIndex(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}
	return s.index.Reindex(ctx, books)
}

// storeImage sets b's image from in. Uploaded bytes are written to storage and
// the returned reference must be discarded if the record is not saved.
func (s *BookService) storeImage(b *domain.Book, in *ImageInput) (string, error) {
	if len(in.Data) == 0 {
		ref := strings.TrimSpace(in.URL)
		if ref != s.opts.PlaceholderImage && !isWebURL(ref) {
			return "", domainerrors.InvalidImage("imageUrl must be an absolute http(s) URL")
		}
		b.Image = ref
		b.ImageBlurHash = ""
		return "", nil
	}

	if s.images == nil {
		return "", fmt.Errorf("image storage not configured")
	}

	ref, _, err := s.images.Save(in.Data, in.Ext)
	if err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}

	b.Image = ref
	b.ImageBlurHash = ""
	if hash, err := images.BlurHashFromBytes(in.Data); err == nil {
		b.ImageBlurHash = hash
	} else {
		s.logger.Debug("blurhash failed", "book_id", b.ID, "error", err)
	}

	return ref, nil
}

func (s *BookService) discard(ref string) {
	if ref != "" && ref != s.opts.PlaceholderImage && s.janitor != nil {
		s.janitor.Discard(ref)
	}
}

func (s *BookService) reindex(ctx context.Context, b *domain.Book) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexBook(ctx, b); err != nil {
		s.logger.Warn("failed to index book", "book_id", b.ID, "error", err)
	}
}

func isWebURL(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// normalizePatch cleans present text fields and rejects blank required text
// and negative amounts.
func normalizePatch(p *domain.BookPatch) error {
	details := map[string]string{}

	text := func(field string, v *string, clean func(string) string) *string {
		if v == nil {
			return nil
		}
		cleaned := clean(*v)
		if cleaned == "" {
			details[field] = "is required"
		}
		return &cleaned
	}

	p.Title = text("title", p.Title, normalize.Text)
	p.Author = text("author", p.Author, normalize.Text)
	p.Category = text("category", p.Category, normalize.Text)
	p.Description = text("description", p.Description, normalize.Description)

	if len(details) > 0 {
		for _, field := range []string{"title", "author", "description", "category"} {
			if msg, ok := details[field]; ok {
				return domainerrors.ValidationWithDetails(field+" "+msg, details)
			}
		}
	}

	return checkAmounts(p.Price, p.CountInStock)
}

// checkAmounts rejects negative or non-finite price and negative stock.
func checkAmounts(price *float64, stock *int) error {
	if price != nil && (*price < 0 || math.IsNaN(*price) || math.IsInf(*price, 0)) {
		return domainerrors.ValidationWithDetails("price must be a number greater than or equal to 0",
			map[string]string{"price": "must be greater than or equal to 0"})
	}
	if stock != nil && *stock < 0 {
		return domainerrors.ValidationWithDetails("countInStock must be greater than or equal to 0",
			map[string]string{"countInStock": "must be greater than or equal to 0"})
	}
	return nil
}
