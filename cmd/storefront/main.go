package main

import (
	"log"
	"os"

	"github.com/agrikart/storefront/cmd/storefront/app"
	"github.com/agrikart/storefront/configs"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

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

	log.Printf("storefront (%s) listening on %s", env, cfg.App.HTTPAddr)
	if err := a.Run(); err != nil {
		log.Fatal(err)
	}
}
