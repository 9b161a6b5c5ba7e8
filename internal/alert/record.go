// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Delivery statuses recorded per channel attempt.
const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// ChannelResult records one channel delivery attempt.
type ChannelResult struct {
	Channel     Channel   `json:"channel"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	AttemptedAt time.Time `json:"attempted_at"`
}

// Record is the durable trail for one alert: the finding plus the outcome of
// every channel attempt. It exists even when all channels fail.
type Record struct {
	Alert      Alert           `json:"alert"`
	Channels   []ChannelResult `json:"channels"`
	Suppressed bool            `json:"suppressed"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ChannelsNotified lists the channels that accepted delivery.
func (r Record) ChannelsNotified() []string {
	var out []string
	for _, c := range r.Channels {
		if c.Status == DeliverySent {
			out = append(out, string(c.Channel))
		}
	}
	return out
}

// ErrRecordNotFound is returned when no record exists for an alert ID.
var ErrRecordNotFound = errors.New("alert record not found")

// RecordStore persists alert records keyed by alert ID.
type RecordStore interface {
	// Upsert writes the record. Re-writing the same alert ID replaces the
	// previous version, which makes dispatch idempotent under redelivery.
	Upsert(ctx context.Context, rec Record) error

	// Get retrieves one record by alert ID.
	Get(ctx context.Context, alertID string) (Record, error)
}

const recordKeyPrefix = "alert:"

// BadgerRecordStore implements RecordStore on the shared embedded BadgerDB.
type BadgerRecordStore struct {
	db *badger.DB
}

// NewBadgerRecordStore creates a record store over an open BadgerDB.
func NewBadgerRecordStore(db *badger.DB) *BadgerRecordStore {
	return &BadgerRecordStore{db: db}
}

// Upsert writes the record under its alert ID.
func (s *BadgerRecordStore) Upsert(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal alert record %s: %w", rec.Alert.AlertID, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(recordKeyPrefix+rec.Alert.AlertID), payload)
	})
	if err != nil {
		return fmt.Errorf("upsert alert record %s: %w", rec.Alert.AlertID, err)
	}
	return nil
}

// Get retrieves one record by alert ID.
func (s *BadgerRecordStore) Get(ctx context.Context, alertID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(recordKeyPrefix + alertID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrRecordNotFound
		}
		if err != nil {
			return fmt.Errorf("get alert record: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}
