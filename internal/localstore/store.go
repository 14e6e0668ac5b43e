package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/fasilahammed/snapmob-client/pkg/auth"
	"github.com/fasilahammed/snapmob-client/pkg/config"
	"github.com/fasilahammed/snapmob-client/pkg/logger"
	"go.uber.org/multierr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// sessionRecord is the single durable row holding the signed-in state across
// restarts: the raw token plus the decoded profile snapshot.
type sessionRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Token     string `gorm:"not null"`
	Profile   string `gorm:"not null"`
	UpdatedAt time.Time
}

func (sessionRecord) TableName() string {
	return "session_state"
}

const sessionRowID = 1

// Store wraps the local sqlite state database.
type Store struct {
	conn *gorm.DB
}

// Open boots the local state store, creating the schema when missing.
func Open(ctx context.Context, cfg config.StateConfig, logg *logger.Logger) (*Store, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("state db path is required")
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	if err := conn.WithContext(ctx).AutoMigrate(&sessionRecord{}); err != nil {
		return nil, fmt.Errorf("migrating state db: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "local state store opened")
	}

	return &Store{conn: conn}, nil
}

// SaveSession persists the token and profile, replacing any previous row.
func (s *Store) SaveSession(ctx context.Context, token string, session *auth.Session) error {
	if token == "" || session == nil {
		return fmt.Errorf("token and session are required")
	}
	profile, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session profile: %w", err)
	}
	record := sessionRecord{
		ID:        sessionRowID,
		Token:     token,
		Profile:   string(profile),
		UpdatedAt: time.Now().UTC(),
	}
	return s.conn.WithContext(ctx).Save(&record).Error
}

// LoadSession returns the persisted token and profile, or ("", nil, nil)
// when no session was stored.
func (s *Store) LoadSession(ctx context.Context) (string, *auth.Session, error) {
	var record sessionRecord
	err := s.conn.WithContext(ctx).First(&record, sessionRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("loading session: %w", err)
	}

	var session auth.Session
	if err := json.Unmarshal([]byte(record.Profile), &session); err != nil {
		// Unreadable profile rows are treated as absent and cleared.
		return "", nil, multierr.Append(
			fmt.Errorf("decoding session profile: %w", err),
			s.ClearSession(ctx),
		)
	}
	return record.Token, &session, nil
}

// ClearSession removes the persisted session if present.
func (s *Store) ClearSession(ctx context.Context) error {
	return s.conn.WithContext(ctx).Delete(&sessionRecord{}, sessionRowID).Error
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.conn.DB()
	if err != nil {
		return fmt.Errorf("getting sql db handle: %w", err)
	}
	return sqlDB.Close()
}
