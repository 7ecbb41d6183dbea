/*
 * Copyright (C) 2026 Nuts community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package storage

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

var _ SessionDatabase = (*SQLSessionDatabase)(nil)

var _ schema.Tabler = (*sessionStoreRecord)(nil)

type sessionStoreRecord struct {
	Store   string `gorm:"primaryKey"`
	Key     string `gorm:"primaryKey"`
	Expires int64
	Value   string
}

func (s sessionStoreRecord) TableName() string {
	return "session_store"
}

// SQLSessionDatabase is a SessionDatabase backed by a SQL database through gorm.
// Expired rows are filtered on read and pruned periodically.
type SQLSessionDatabase struct {
	db     *gorm.DB
	pruner *pruner
}

// NewSQLSessionDatabase creates a SQLSessionDatabase, migrating the session table if needed.
func NewSQLSessionDatabase(db *gorm.DB) (*SQLSessionDatabase, error) {
	if err := db.AutoMigrate(&sessionStoreRecord{}); err != nil {
		return nil, err
	}
	result := &SQLSessionDatabase{db: db}
	result.pruner = startPruning(sessionStorePruneInterval, result.prune)
	return result, nil
}

func (s *SQLSessionDatabase) GetStore(ttl time.Duration, keys ...string) SessionStore {
	return sqlSessionStore{
		db:        s.db,
		ttl:       ttl,
		storeName: strings.Join(keys, "."),
	}
}

func (s *SQLSessionDatabase) Close() {
	s.pruner.stop()
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (s *SQLSessionDatabase) prune() int {
	result := s.db.Where("expires < ?", nowFunc().Unix()).Delete(&sessionStoreRecord{})
	return int(result.RowsAffected)
}

type sqlSessionStore struct {
	db        *gorm.DB
	ttl       time.Duration
	storeName string
}

func (s sqlSessionStore) Delete(key string) error {
	return s.db.Where(&sessionStoreRecord{Store: s.storeName, Key: key}).Delete(&sessionStoreRecord{}).Error
}

func (s sqlSessionStore) Exists(key string) bool {
	var count int64
	s.db.Model(&sessionStoreRecord{}).
		Where(&sessionStoreRecord{Store: s.storeName, Key: key}).
		Where("expires >= ?", nowFunc().Unix()).
		Count(&count)
	return count > 0
}

func (s sqlSessionStore) Get(key string, target interface{}) error {
	var record sessionStoreRecord
	err := s.db.Where(&sessionStoreRecord{Store: s.storeName, Key: key}).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	if nowFunc().After(time.Unix(record.Expires, 0)) {
		return ErrNotFound
	}
	return json.Unmarshal([]byte(record.Value), target)
}

func (s sqlSessionStore) Put(key string, value interface{}) error {
	if s.ttl <= 0 {
		return s.Delete(key)
	}
	bytes, err := json.Marshal(value)
	if err != nil {
		return err
	}
	record := sessionStoreRecord{
		Store:   s.storeName,
		Key:     key,
		Expires: nowFunc().Add(s.ttl).Unix(),
		Value:   string(bytes),
	}
	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&record).Error
}
