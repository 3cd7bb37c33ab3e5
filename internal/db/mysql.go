package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewMySQL opens the directory database. Soft-delete scoping and the
// locking uniqueness checks rely on GORM defaults, so no extra config
// is passed here.
func NewMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open directory database: %w", err)
	}
	return db, nil
}
