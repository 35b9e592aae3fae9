// Copyright (C) 2019-2025 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

// Package scratchdb creates and drops the throwaway postgres database the
// indexer writes to during a run.
package scratchdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/algorand/go-algorand/tools/e2elive/logging"
)

// DefaultAdminConnection is used to issue CREATE/DROP DATABASE.
const DefaultAdminConnection = "dbname=postgres sslmode=disable"

const statementTimeout = 5 * time.Second

// Database is a scratch database.
type Database struct {
	Name string
	// ConnectionString is what the indexer is given with -P.
	ConnectionString string
}

// MakeName returns a fresh database name for a run started at now.
func MakeName(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("e2eindex_%d_%s", now.Unix(), suffix)
}

// ConnectionString returns the libpq connection string for database name.
func ConnectionString(name string) string {
	return fmt.Sprintf("dbname=%s sslmode=disable", name)
}

// Provisioner issues database-level statements on an admin connection.
type Provisioner struct {
	db  *sqlx.DB
	log logging.Logger
}

// Connect opens the admin connection.
func Connect(ctx context.Context, adminConnection string, log logging.Logger) (*Provisioner, error) {
	if adminConnection == "" {
		adminConnection = DefaultAdminConnection
	}
	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()
	db, err := sqlx.ConnectContext(ctx, "postgres", adminConnection)
	if err != nil {
		return nil, fmt.Errorf("connect %q: %w", adminConnection, err)
	}
	return NewProvisioner(db, log), nil
}

// NewProvisioner wraps an already open admin connection.
func NewProvisioner(db *sqlx.DB, log logging.Logger) *Provisioner {
	if log == nil {
		log = logging.Base()
	}
	return &Provisioner{db: db, log: log}
}

// Create drops any leftover database called name and creates it afresh.
func (p *Provisioner) Create(ctx context.Context, name string) (Database, error) {
	if err := p.Drop(ctx, name); err != nil {
		return Database{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()
	if _, err := p.db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
		return Database{}, fmt.Errorf("create database %s: %w", name, err)
	}
	p.log.Debugf("created database %s", name)
	return Database{Name: name, ConnectionString: ConnectionString(name)}, nil
}

// Drop removes database name if it exists.
func (p *Provisioner) Drop(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()
	if _, err := p.db.ExecContext(ctx, "DROP DATABASE IF EXISTS "+pq.QuoteIdentifier(name)); err != nil {
		return fmt.Errorf("drop database %s: %w", name, err)
	}
	return nil
}

// Close closes the admin connection.
func (p *Provisioner) Close() error {
	return p.db.Close()
}
