package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type kvRow struct {
	Namespace string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (kvRow) TableName() string { return "client_kv" }

// GormKV keeps values in a shared SQL table, one row per (namespace, key).
// Namespaces let several seats share one database.
type GormKV struct {
	db        *gorm.DB
	namespace string
}

// OpenPostgres connects with dsn and migrates the table.
func OpenPostgres(dsn, namespace string) (*GormKV, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewGormKV(db, namespace)
}

func NewGormKV(db *gorm.DB, namespace string) (*GormKV, error) {
	if err := db.AutoMigrate(&kvRow{}); err != nil {
		return nil, fmt.Errorf("migrate client_kv: %w", err)
	}
	return &GormKV{db: db, namespace: sanitize(namespace)}, nil
}

func (g *GormKV) Get(key string) (string, bool, error) {
	var row kvRow
	err := g.db.Where("namespace = ? AND name = ?", g.namespace, key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

// Set is a single upsert, so concurrent writers of different keys never
// touch each other's rows.
func (g *GormKV) Set(key, value string) error {
	row := kvRow{Namespace: g.namespace, Name: key, Value: value, UpdatedAt: time.Now()}
	return g.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

func (g *GormKV) Remove(key string) error {
	return g.db.Where("namespace = ? AND name = ?", g.namespace, key).Delete(&kvRow{}).Error
}

func (g *GormKV) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
