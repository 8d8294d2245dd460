// Package main seeds a bookstore database with a sample catalog and imports
// accounts exported from a previous deployment.
//
// The server must be stopped while seeding; it rebuilds the search index from
// the database on its next start. Configuration comes from the environment
// and .env, as for the server.
//
// Usage:
//
//	ADMIN_EMAIL=admin@example.com ADMIN_PASSWORD=secret123 go run ./cmd/seed
//	go run ./cmd/seed -import-users users.json -books=false
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/bookhaven/bookhaven-server/internal/config"
	"github.com/bookhaven/bookhaven-server/internal/domain"
	domainerrors "github.com/bookhaven/bookhaven-server/internal/errors"
	"github.com/bookhaven/bookhaven-server/internal/media/images"
	"github.com/bookhaven/bookhaven-server/internal/service"
	"github.com/bookhaven/bookhaven-server/internal/store"
)

var (
	importUsers = flag.String("import-users", "", "JSON file of legacy accounts to import")
	seedBooks   = flag.Bool("books", true, "Create the sample catalog")
	force       = flag.Bool("force", false, "Create the sample catalog even if books exist")
)

type sampleBook struct {
	title, author, category, description, cover string
	price                                       float64
	stock                                       int
	daysAgo                                     int
}

var catalog = []sampleBook{
	{"Dune", "Frank Herbert", "Science Fiction", "A desert planet, a spice and a prophecy.", "https://covers.openlibrary.org/b/id/11481354-L.jpg", 9.99, 12, 3},
	{"The Left Hand of Darkness", "Ursula K. Le Guin", "Science Fiction", "An envoy on a world without fixed sex.", "https://covers.openlibrary.org/b/id/12837558-L.jpg", 8.49, 6, 45},
	{"Pride and Prejudice", "Jane Austen", "Classics", "Manners, marriage and misjudgment.", "https://covers.openlibrary.org/b/id/14348537-L.jpg", 5.99, 20, 400},
	{"Middlemarch", "George Eliot", "Classics", "Provincial lives in a changing England.", "https://covers.openlibrary.org/b/id/12621906-L.jpg", 7.25, 4, 10},
	{"The Name of the Rose", "Umberto Eco", "Mystery", "Murder in a medieval abbey library.", "https://covers.openlibrary.org/b/id/8231856-L.jpg", 11.00, 0, 90},
	{"Gone Girl", "Gillian Flynn", "Mystery", "A marriage told from both sides.", "https://covers.openlibrary.org/b/id/8372309-L.jpg", 10.50, 9, 1},
	{"Sapiens", "Yuval Noah Harari", "History", "A brief history of humankind.", "https://covers.openlibrary.org/b/id/8643924-L.jpg", 14.99, 15, 25},
	{"The Guns of August", "Barbara W. Tuchman", "History", "The first month of the First World War.", "https://covers.openlibrary.org/b/id/6444024-L.jpg", 12.75, 3, 200},
}

func main() {
	flag.Parse()

	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dbPath := filepath.Join(cfg.Storage.DataPath, "db")
	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	storage, err := images.NewStorage(cfg.Uploads.Root)
	if err != nil {
		log.Fatalf("Failed to open image storage: %v", err)
	}
	janitor := images.NewJanitor(storage, nil)
	defer janitor.Shutdown()

	users := service.NewUserService(s, nil, nil)
	// The index is rebuilt by the server, so the catalog is written without one.
	books := service.NewBookService(s, nil, storage, janitor, service.CatalogOptions{
		RequireImage:     cfg.Catalog.RequireImage,
		PlaceholderImage: cfg.Catalog.PlaceholderImage,
	}, nil)

	ctx := context.Background()

	if cfg.Bootstrap.AdminEmail != "" {
		created, err := users.EnsureAdmin(ctx, cfg.Bootstrap.AdminName, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword)
		if err != nil {
			log.Fatalf("Failed to ensure admin: %v", err)
		}
		if created {
			fmt.Printf("Created admin %s\n", cfg.Bootstrap.AdminEmail)
		}
	}

	if *importUsers != "" {
		importLegacyUsers(ctx, users, *importUsers)
	}

	if *seedBooks {
		createCatalog(ctx, s, books)
	}

	fmt.Println("\nSeeding complete!")
}

// importLegacyUsers reads a JSON array of accounts with bcrypt hashes.
// Accounts whose email already exists are skipped.
func importLegacyUsers(ctx context.Context, users *service.UserService, path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", path, err)
	}

	var legacy []service.LegacyUser
	if err := json.Unmarshal(raw, &legacy); err != nil {
		log.Fatalf("Failed to parse %s: %v", path, err)
	}

	imported, skipped := 0, 0
	for _, lu := range legacy {
		if _, err := users.ImportUser(ctx, lu); err != nil {
			if errors.Is(err, domainerrors.ErrEmailTaken) {
				skipped++
				continue
			}
			log.Printf("Failed to import %s: %v", lu.Email, err)
			continue
		}
		imported++
	}

	fmt.Printf("Imported %d users (%d already present)\n", imported, skipped)
}

func createCatalog(ctx context.Context, s *store.Store, books *service.BookService) {
	existing, err := s.ListBooks(ctx)
	if err != nil {
		log.Fatalf("Failed to list books: %v", err)
	}
	if len(existing) > 0 && !*force {
		fmt.Printf("Catalog already has %d books, skipping (use -force to add anyway)\n", len(existing))
		return
	}

	owner := findAdmin(ctx, s)
	now := time.Now()

	for _, sb := range catalog {
		released := now.AddDate(0, 0, -sb.daysAgo)
		book, err := books.Create(ctx, owner.ID, service.CreateBookRequest{
			Title:        sb.title,
			Author:       sb.author,
			Description:  sb.description,
			Price:        sb.price,
			CountInStock: sb.stock,
			Category:     sb.category,
			ReleaseDate:  &released,
		}, &service.ImageInput{URL: sb.cover})
		if err != nil {
			log.Printf("Failed to create %q: %v", sb.title, err)
			continue
		}

		// Sales only come from orders, which this server does not take.
		book.SalesCount = rand.IntN(500)
		if err := s.UpdateBook(ctx, book); err != nil {
			log.Printf("Failed to set sales for %q: %v", sb.title, err)
		}

		fmt.Printf("  %s by %s (%d sold)\n", book.Title, book.Author, book.SalesCount)
	}
}

func findAdmin(ctx context.Context, s *store.Store) *domain.User {
	all, err := s.ListUsers(ctx)
	if err != nil {
		log.Fatalf("Failed to list users: %v", err)
	}
	for _, u := range all {
		if u.IsAdmin {
			return u
		}
	}
	log.Fatal("No admin account found. Set ADMIN_EMAIL and ADMIN_PASSWORD or import one first.")
	return nil
}
