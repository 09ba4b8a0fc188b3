// Command seed applies migrations and loads a demo catalog and a couple
// of users, so the service can take orders out of the box.
package main

import (
	"context"
	"log"

	"bookstore-service/config"
	"bookstore-service/internal/models"
	"bookstore-service/internal/store"
)

var seedBooks = []models.Book{
	{Title: "The Go Programming Language", Author: "Alan A. A. Donovan", Price: 3999, StockQuantity: 25},
	{Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", Price: 4599, StockQuantity: 18},
	{Title: "Clean Architecture", Author: "Robert C. Martin", Price: 3299, StockQuantity: 30},
	{Title: "Database Internals", Author: "Alex Petrov", Price: 4199, StockQuantity: 12},
	{Title: "Site Reliability Engineering", Author: "Betsy Beyer", Price: 2899, StockQuantity: 40},
}

var seedUsers = []models.User{
	{Email: "alice@example.com", Name: "Alice Johnson"},
	{Email: "bob@example.com", Name: "Bob Smith"},
}

func main() {
	cfg := config.Load()

	db, err := store.NewStore(store.Config{
		URL:          cfg.Database.URL,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()

	for i := range seedUsers {
		if err := db.CreateUser(ctx, &seedUsers[i]); err != nil {
			log.Fatalf("Failed to seed user %s: %v", seedUsers[i].Email, err)
		}
		log.Printf("Seeded user %s (%s)", seedUsers[i].Email, seedUsers[i].ID)
	}

	existing, err := db.GetBooks(ctx)
	if err != nil {
		log.Fatalf("Failed to read catalog: %v", err)
	}
	if len(existing) > 0 {
		log.Printf("Catalog already has %d books, skipping book seed", len(existing))
		return
	}

	for i := range seedBooks {
		if err := db.CreateBook(ctx, &seedBooks[i]); err != nil {
			log.Fatalf("Failed to seed book %q: %v", seedBooks[i].Title, err)
		}
		log.Printf("Seeded book %q (%s)", seedBooks[i].Title, seedBooks[i].ID)
	}

	log.Printf("Seed complete: %d users, %d books", len(seedUsers), len(seedBooks))
}
