package main

import (
	"flag"
	"log"

	"go-production-inventory/internal/config"
	"go-production-inventory/internal/repository"
	"go-production-inventory/internal/service"
	"go-production-inventory/pkg/database"
	applogger "go-production-inventory/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	email := flag.String("email", "", "email of the account to reset")
	password := flag.String("password", "", "new password (min 6 characters)")
	flag.Parse()

	if *email == "" || *password == "" {
		flag.Usage()
		log.Fatal("both -email and -password are required")
	}

	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zapLog, err := applogger.New(applogger.Config{
		IsDevelopment: cfg.IsDevelopment(),
		Encoding:      "console",
		Level:         cfg.Logger.Level,
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zapLog.Sync()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database)
	if err != nil {
		zapLog.Fatal("connect database", zap.Error(err))
	}

	// 3. Reset; existing sessions are invalidated as well
	users := service.NewUserService(repository.NewUserRepo(db), repository.NewRoleRepo(db), zapLog)
	if err := users.ResetPassword(*email, *password); err != nil {
		zapLog.Fatal("reset password", zap.String("email", *email), zap.Error(err))
	}

	zapLog.Info("password reset", zap.String("email", *email))
}
