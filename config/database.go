package config

import (
	"gatehouse/internal/entity"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func OpenDatabase(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseURL,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.OneTimeSecret{},
		&entity.RefreshToken{},
	); err != nil {
		return nil, err
	}
	return db, nil
}
