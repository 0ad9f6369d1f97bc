/*
 * MIT License
 *
 * Copyright (c) 2024 MSL-Network Contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package creds is the credential backend for the three store-backed
// auth modes (spec §4.2 step 4: hostname allow-list, username/password
// login, and certificate fingerprint allow-list). It is modeled the way
// the teacher's database/gorm component is structured — a typed Config,
// an Open/Close lifecycle, a context-scoped *gorm.DB — collapsed to the
// one driver (sqlite) this rewrite needs.
package creds

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/MSLNZ/msl-network/internal/rpcerr"
)

// AllowedHostname is one entry in the hostname allow-list auth mode.
type AllowedHostname struct {
	gorm.Model
	Hostname string `gorm:"uniqueIndex"`
}

// User is one entry in the username/password login auth mode. Password is
// stored as a salted SHA-256 hash, never in clear text (grounded in the
// teacher's encoding/sha256 package for the hash primitive).
type User struct {
	gorm.Model
	Username string `gorm:"uniqueIndex"`
	Salt     string
	Hash     string
}

// AllowedFingerprint is one entry in the certificate fingerprint
// allow-list auth mode (spec §3 "Credential record" (a)).
type AllowedFingerprint struct {
	gorm.Model
	Fingerprint string `gorm:"uniqueIndex"`
	Label       string
}

// Config describes how to open the credential store.
type Config struct {
	// DSN is the sqlite data source, e.g. "file:creds.db?cache=shared" or
	// ":memory:" for tests.
	DSN string

	// Logger overrides the default silent gorm logger, e.g. with
	// logging.HCLogGORMLogger for hclog-backed SQL tracing.
	Logger gormlogger.Interface
}

// Store is the opened credential backend.
type Store struct {
	db *gorm.DB
}

// Open validates cfg, opens the sqlite database, and migrates the three
// credential tables.
func Open(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, rpcerr.New(rpcerr.Unknown, "credential store DSN must not be empty")
	}

	gl := cfg.Logger
	if gl == nil {
		gl = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	db, err := gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{
		Logger: gl,
	})
	if err != nil {
		return nil, rpcerr.Wrap(rpcerr.Unknown, err, "failed to open credential store %s", cfg.DSN)
	}

	if err := db.AutoMigrate(&AllowedHostname{}, &User{}, &AllowedFingerprint{}); err != nil {
		return nil, rpcerr.Wrap(rpcerr.Unknown, err, "failed to migrate credential store")
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsHostnameAllowed reports whether hostname is on the allow-list (spec
// §4.2 step 4, hostname mode).
func (s *Store) IsHostnameAllowed(ctx context.Context, hostname string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&AllowedHostname{}).Where("hostname = ?", hostname).Count(&count).Error; err != nil {
		return false, rpcerr.Wrap(rpcerr.Unknown, err, "hostname lookup failed")
	}
	return count > 0, nil
}

// AddHostname inserts hostname into the allow-list.
func (s *Store) AddHostname(ctx context.Context, hostname string) error {
	if err := s.db.WithContext(ctx).Create(&AllowedHostname{Hostname: hostname}).Error; err != nil {
		return rpcerr.Wrap(rpcerr.Unknown, err, "failed to add hostname %s", hostname)
	}
	return nil
}

// DeleteHostname removes hostname from the allow-list.
func (s *Store) DeleteHostname(ctx context.Context, hostname string) error {
	if err := s.db.WithContext(ctx).Where("hostname = ?", hostname).Delete(&AllowedHostname{}).Error; err != nil {
		return rpcerr.Wrap(rpcerr.Unknown, err, "failed to delete hostname %s", hostname)
	}
	return nil
}

// IsFingerprintAllowed reports whether a certificate SHA-256 fingerprint
// is on the allow-list (spec §4.2 step 4, certificate mode).
func (s *Store) IsFingerprintAllowed(ctx context.Context, fingerprint string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&AllowedFingerprint{}).Where("fingerprint = ?", fingerprint).Count(&count).Error; err != nil {
		return false, rpcerr.Wrap(rpcerr.Unknown, err, "fingerprint lookup failed")
	}
	return count > 0, nil
}

// AddFingerprint inserts a certificate fingerprint into the allow-list.
func (s *Store) AddFingerprint(ctx context.Context, fingerprint, label string) error {
	if err := s.db.WithContext(ctx).Create(&AllowedFingerprint{Fingerprint: fingerprint, Label: label}).Error; err != nil {
		return rpcerr.Wrap(rpcerr.Unknown, err, "failed to add fingerprint")
	}
	return nil
}

// DeleteFingerprint removes a certificate fingerprint from the allow-list.
func (s *Store) DeleteFingerprint(ctx context.Context, fingerprint string) error {
	if err := s.db.WithContext(ctx).Where("fingerprint = ?", fingerprint).Delete(&AllowedFingerprint{}).Error; err != nil {
		return rpcerr.Wrap(rpcerr.Unknown, err, "failed to delete fingerprint")
	}
	return nil
}

// hashPassword derives a salted SHA-256 hash, hex-encoded.
func hashPassword(salt, password string) string {
	sum := sha256.Sum256([]byte(salt + password))
	return hex.EncodeToString(sum[:])
}

// AddUser creates a login-mode user. The salt is the first 16 hex digits
// of the SHA-256 of the username, so it is the same each time for a given
// username.
func (s *Store) AddUser(ctx context.Context, username, password string) error {
	sum := sha256.Sum256([]byte(username))
	salt := hex.EncodeToString(sum[:])[:16]
	u := &User{
		Username: username,
		Salt:     salt,
		Hash:     hashPassword(salt, password),
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return rpcerr.Wrap(rpcerr.Unknown, err, "failed to add user %s", username)
	}
	return nil
}

// DeleteUser removes a login-mode user.
func (s *Store) DeleteUser(ctx context.Context, username string) error {
	if err := s.db.WithContext(ctx).Where("username = ?", username).Delete(&User{}).Error; err != nil {
		return rpcerr.Wrap(rpcerr.Unknown, err, "failed to delete user %s", username)
	}
	return nil
}

// Authenticate verifies a username/password pair in constant time (spec
// §4.2 step 4, login mode).
func (s *Store) Authenticate(ctx context.Context, username, password string) (bool, error) {
	var u User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, rpcerr.Wrap(rpcerr.Unknown, err, "user lookup failed")
	}

	want := hashPassword(u.Salt, password)
	return subtle.ConstantTimeCompare([]byte(want), []byte(u.Hash)) == 1, nil
}

// IsUserRegistered answers the supplemented admin query
// `users_table.is_user_registered` (spec.md §4.5 item 1, SPEC_FULL §9).
func (s *Store) IsUserRegistered(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, rpcerr.Wrap(rpcerr.Unknown, err, "user lookup failed")
	}
	return count > 0, nil
}

// String is used by certdump-style admin output.
func (f AllowedFingerprint) String() string {
	return fmt.Sprintf("%s (%s)", f.Fingerprint, f.Label)
}
