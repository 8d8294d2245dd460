// Package main prints a summary of a bookstore database without modifying it.
//
// Usage:
//
//	DB_PATH=~/Bookstore/data/db go run ./cmd/dbinspect
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/bookhaven/bookhaven-server/internal/domain"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/Bookstore/data/db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	users, admins := 0, 0
	err = eachDocument(db, "user:", func(val []byte) error {
		var u domain.User
		if err := json.Unmarshal(val, &u); err != nil {
			return err
		}
		users++
		if u.IsAdmin {
			admins++
			fmt.Printf("Admin: %s <%s> (%s)\n", u.Name, u.Email, u.ID)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating users: %v", err)
	}

	books, drafts, outOfStock, externalImages := 0, 0, 0, 0
	err = eachDocument(db, "book:", func(val []byte) error {
		var b domain.Book
		if err := json.Unmarshal(val, &b); err != nil {
			return err
		}
		books++
		if !b.IsPublished {
			drafts++
		}
		if b.CountInStock == 0 {
			outOfStock++
			fmt.Printf("Out of stock: %s by %s (%s)\n", b.Title, b.Author, b.ID)
		}
		if b.HasExternalImage() {
			externalImages++
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating books: %v", err)
	}

	fmt.Println()
	fmt.Println("=== Summary ===")
	fmt.Printf("Users: %d (%d admins)\n", users, admins)
	fmt.Printf("Books: %d (%d drafts, %d out of stock)\n", books, drafts, outOfStock)
	fmt.Printf("Books with external images: %d\n", externalImages)
}

// eachDocument calls fn for every document under prefix, skipping index entries.
func eachDocument(db *badger.DB, prefix string, fn func(val []byte) error) error {
	indexPrefix := []byte(prefix + "idx:")

	return db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			if bytes.HasPrefix(item.Key(), indexPrefix) {
				continue
			}
			if err := item.Value(fn); err != nil {
				log.Printf("Error reading %s: %v", item.Key(), err)
			}
		}
		return nil
	})
}
