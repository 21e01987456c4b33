package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/cmlabs-hris/bon-backend-go/internal/config"
	appHTTP "github.com/cmlabs-hris/bon-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/bon-backend-go/internal/pkg/cache"
	"github.com/cmlabs-hris/bon-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/bon-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/bon-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/bon-backend-go/internal/repository/postgresql"
	bonService "github.com/cmlabs-hris/bon-backend-go/internal/service/bon"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	bonRepo := postgresql.NewBonRepository(db)
	cicilanRepo := postgresql.NewCicilanRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)

	var eligibilityCache cache.Cache
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("Failed to connect to Redis:", err)
		}
		eligibilityCache = redisCache
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret)
	bonSvc := bonService.NewBonService(bonRepo, cicilanRepo, employeeRepo, cfg.Bon, eligibilityCache, cfg.Redis.CacheTTL)
	installmentSvc := bonService.NewInstallmentService(bonRepo, cicilanRepo, eligibilityCache)

	bonHandler := appHTTP.NewBonHandler(bonSvc, installmentSvc)
	router := appHTTP.NewRouter(cfg.App.Env, JWTService, bonHandler)

	if cfg.Cron.Enabled {
		scheduler := cron.NewScheduler()
		cron.NewBonJobs(installmentSvc).RegisterJobs(scheduler, cfg.Cron.Interval)
		scheduler.Start()
		defer scheduler.Stop()
	}

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
