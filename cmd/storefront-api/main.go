package main

import (
	"log"
	"net/http"
	"os"

	"github.com/Galleee2002/fueradecontexto-api/cmd/storefront-api/app"
	"github.com/Galleee2002/fueradecontexto-api/configs"
)

func main() {
	env := os.Getenv("APP_ENV") // dev | staging | prod
	if env == "" {
		env = "dev"
	}

	cfg, err := configs.Load("configs", env)
	if err != nil {
		log.Fatal(err)
	}

	a, cleanup, err := app.InitWithConfig(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	srv := &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      a.Router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	log.Printf("storefront-api (%s) listening on %s", env, cfg.App.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
