package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/dkruglov/library-service/internal/config"
	"github.com/dkruglov/library-service/internal/database"
	"github.com/dkruglov/library-service/internal/handler"
	"github.com/dkruglov/library-service/internal/queue"
	"github.com/dkruglov/library-service/internal/repository"
	"github.com/dkruglov/library-service/internal/router"
)

func main() {
	// .env is a dev convenience; in production the variables come from
	// the process environment and the file is absent.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client turns the cache and the rate
	// limiter into pass-throughs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; response cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	books := repository.NewBookRepo(db)
	authors := repository.NewAuthorRepo(db)
	genres := repository.NewGenreRepo(db)
	reservations := repository.NewReservationRepo(db)
	loans := repository.NewLoanRepo(db)
	reviews := repository.NewReviewRepo(db)

	h := router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, users, tokens),
		Books:        handler.NewBookHandler(books, reviews),
		Authors:      handler.NewAuthorHandler(authors),
		Genres:       handler.NewGenreHandler(genres),
		Reservations: handler.NewReservationHandler(cfg, reservations),
		Loans:        handler.NewLoanHandler(cfg, loans, users),
		Reviews:      handler.NewReviewHandler(reviews),
		Stats:        handler.NewStatsHandler(books, authors, genres, loans),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterRoutes(e, h, config.LoadCacheConfig(), config.LoadRateLimitConfig(), rdb)
	router.RegisterAuth(e, h.Auth, cfg.JWTSecret)
	router.RegisterReader(e, h, cfg.JWTSecret)
	router.RegisterLibrarian(e, h, cfg.JWTSecret)

	// The activity consumer keeps its own reconnect loop for the life
	// of the process.
	go func() {
		if err := queue.StartActivityConsumer(); err != nil {
			log.Printf("activity consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
