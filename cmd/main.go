package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/cors"

	"grievanceBack/internal/config"
	"grievanceBack/internal/models"
	"grievanceBack/internal/repositories"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}
	cfg := config.LoadConfig()

	port := os.Getenv("PORT")
	if port == "" {
		if cfg.Server.Address != "" {
			port = cfg.Server.Address
		} else {
			port = ":4001"
		}
	} else {
		port = ":" + port
	}

	addr := flag.String("addr", port, "HTTP network address")
	flag.Parse()

	infoLog := log.New(os.Stdout, "INFO\t", log.Ldate|log.Ltime)
	errorLog := log.New(os.Stderr, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile)

	db, err := openDB(cfg.Database.Path)
	if err != nil {
		errorLog.Fatal(err)
	}
	defer db.Close()

	if err := repositories.CreateSchema(db); err != nil {
		errorLog.Fatal(err)
	}

	app := initializeApp(db, cfg, errorLog, infoLog)

	go app.hub.Run()
	go app.runSessionCleaner()

	if err := app.seedAdmin(context.Background()); err != nil {
		errorLog.Printf("admin seed: %v", err)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173", "http://localhost:8501"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: true,
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Refresh-Token"},
	})

	srv := &http.Server{
		Addr:         *addr,
		ErrorLog:     errorLog,
		Handler:      c.Handler(app.routes()),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	infoLog.Printf("Starting server on %s", *addr)
	if err := srv.ListenAndServe(); err != nil {
		errorLog.Fatal(err)
	}
}

func openDB(path string) (*sql.DB, error) {
	if path == "" {
		path = "complaints.db"
	}
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// seedAdmin provisions the first admin account from the environment so a
// fresh deployment can reach the admin panel.
func (app *application) seedAdmin(ctx context.Context) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	if _, err := app.userRepo.GetUserByEmail(ctx, email); err == nil {
		return nil
	}

	_, err := app.userService.CreateUser(ctx, models.User{
		Name:     "Administrator",
		Email:    email,
		Password: password,
		Role:     "admin",
	})
	if err != nil {
		return err
	}
	app.infoLog.Printf("seeded admin account %s", email)
	return nil
}
