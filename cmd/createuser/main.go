package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/example/shopfront/pkg/auth"
	"github.com/example/shopfront/pkg/config"
	"github.com/example/shopfront/pkg/logger"
	"github.com/example/shopfront/pkg/models"
	"github.com/example/shopfront/pkg/repository"
	"github.com/example/shopfront/pkg/service"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config")
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password")
	name := flag.String("name", "", "display name")
	admin := flag.Bool("admin", false, "grant the ADMIN role")
	flag.Parse()

	if *email == "" || *password == "" || *name == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := repository.OpenDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	if err := repository.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	store := repository.NewStore(db)
	defer store.Close()

	role := models.RoleUser
	if *admin {
		role = models.RoleAdmin
	}

	users := service.NewUserService(store, auth.NewTokenIssuer(&cfg.Auth), nil, service.NewEffects(nil, nil, log), log)
	user, err := users.Register(context.Background(), service.RegisterInput{
		Email:    *email,
		Password: *password,
		Name:     *name,
		Role:     role,
	})
	if err != nil {
		log.Error("Failed to create user", zap.Error(err))
		store.Close()
		os.Exit(1)
	}

	fmt.Printf("created user %d <%s> with role %s\n", user.ID, user.Email, user.Role)
}
