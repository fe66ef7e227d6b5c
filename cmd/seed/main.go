// Seeds the admin account, the read-only demo account, and a handful of
// sample artworks so a fresh install has something to browse.
package main

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"artmarket/internal/config"
	"artmarket/internal/db"
	"artmarket/internal/model"
	"artmarket/internal/repository"
)

const (
	adminEmail    = "admin@artmarket.local"
	demoEmail     = "demo@artmarket.local"
	seedPassword  = "artmarket-dev"
	demoSeedCount = 6
)

type seedArtwork struct {
	Title       string
	Description string
	Price       string
	Location    string
}

var sampleArtworks = []seedArtwork{
	{"Sunset", "Oil on canvas, warm palette", "100", "Rome"},
	{"Sunrise", "Watercolor study", "80", "Paris"},
	{"Harbor Lights", "Acrylic night scene", "150", "Lisbon"},
	{"Old Oak", "Charcoal sketch", "45", "Berlin"},
	{"Blue Door", "Street photography print", "60", "Marrakesh"},
	{"Quiet Canal", "Ink and wash", "120", "Amsterdam"},
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := gormDB.AutoMigrate(&model.User{}, &model.Artwork{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	artworkRepo := repository.NewArtworkRepository(gormDB)

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash seed password: %v", err)
	}

	admin := &model.User{
		Name:     "Admin",
		Email:    adminEmail,
		Password: string(hash),
		Role:     model.RoleAdmin,
	}
	if err := upsertUser(ctx, userRepo, admin); err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}

	demoID, err := uuid.Parse(cfg.DemoUserID)
	if err != nil {
		log.Fatalf("DEMO_USER_ID is not a valid UUID: %v", err)
	}
	demo := &model.User{
		ID:       demoID,
		Name:     "Demo",
		Email:    demoEmail,
		Password: string(hash),
		Role:     model.RoleUser,
	}
	if err := upsertUser(ctx, userRepo, demo); err != nil {
		log.Fatalf("Failed to seed demo user: %v", err)
	}

	count, err := artworkRepo.Count(ctx)
	if err != nil {
		log.Fatalf("Failed to count artworks: %v", err)
	}
	if count > 0 {
		log.Printf("Artworks already present (%d), skipping samples", count)
		return
	}

	for _, sample := range sampleArtworks[:demoSeedCount] {
		price, err := decimal.NewFromString(sample.Price)
		if err != nil {
			log.Fatalf("Bad sample price %q: %v", sample.Price, err)
		}
		artwork := &model.Artwork{
			Title:         sample.Title,
			Description:   sample.Description,
			Price:         price,
			Location:      sample.Location,
			CreatedBy:     admin.ID,
			CreatedByName: admin.Name,
		}
		if err := artworkRepo.Create(ctx, artwork); err != nil {
			log.Fatalf("Failed to seed artwork %q: %v", sample.Title, err)
		}
	}
	log.Printf("Seeded %d artworks", demoSeedCount)
}

func upsertUser(ctx context.Context, repo repository.UserRepository, user *model.User) error {
	existing, err := repo.FindByEmail(ctx, user.Email)
	if err == nil {
		log.Printf("User %s already present (%s)", user.Email, existing.ID)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err := repo.Create(ctx, user); err != nil {
		return err
	}
	log.Printf("Created user %s (%s)", user.Email, user.ID)
	return nil
}
