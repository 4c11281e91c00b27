package models

import (
	"fmt"
	"time"

	"github.com/carlos-juma/branch.it-IMY220/internal/config"
	"github.com/carlos-juma/branch.it-IMY220/pkg/logger"
	puregosqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Dialector picks the gorm driver for a configured database.
// "sqlite" needs cgo; "sqlite-purego" is the pure Go build of the same engine.
func Dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	case "sqlite-purego":
		return puregosqlite.Open(cfg.DSN), nil
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// GormConfig is shared by the server, the CLI and tests. Foreign key
// constraints are not created: cascades are explicit service deletes and
// account removal may leave dangling author references on purpose.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:                                   newGormLogger(),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	}
}

func InitDB(cfg *config.DatabaseConfig) error {
	dialector, err := Dialector(cfg)
	if err != nil {
		return err
	}

	db, err := gorm.Open(dialector, GormConfig())
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return Migrate(DB)
}

// Migrate creates or updates every table on db.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&UserFriend{},
		&Friendship{},
		&Project{},
		&ProjectCollaborator{},
		&File{},
		&Commit{},
		&Branch{},
		&Message{},
		&SystemLog{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

// zerologWriter routes gorm's printf-style output into the component logger.
type zerologWriter struct {
	log zerolog.Logger
}

func (w zerologWriter) Printf(format string, args ...interface{}) {
	w.log.Info().Msgf(format, args...)
}

func newGormLogger() gormlogger.Interface {
	level := gormlogger.Warn
	switch logger.Level() {
	case zerolog.DebugLevel, zerolog.TraceLevel:
		level = gormlogger.Info
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		level = gormlogger.Error
	}

	return gormlogger.New(zerologWriter{log: logger.Component("gorm")}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
