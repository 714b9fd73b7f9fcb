package database

import (
	"log"
	"sync"
	"time"

	"vaporscope-backend/configs"
	"vaporscope-backend/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DBManager struct {
	DB *gorm.DB
}

var (
	instance *DBManager
	once     sync.Once
)

func GetDBManager() *DBManager {
	once.Do(func() {
		instance = &DBManager{}
		instance.initialize()
	})
	return instance
}

func (m *DBManager) initialize() {
	db, err := gorm.Open(mysql.Open(configs.AppConfig.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	m.DB = db

	// Auto-migrate models
	err = m.DB.AutoMigrate(
		&models.UsageRecord{},
		&models.GameSummary{},
	)
	if err != nil {
		log.Fatal("Failed to auto-migrate database:", err)
	}

	// Set up connection pool
	sqlDB, err := m.DB.DB()
	if err == nil {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Println("Database connection established successfully")
}
