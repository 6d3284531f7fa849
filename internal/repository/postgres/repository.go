package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/lib/pq"

	"github.com/gfdmit/web-forum/feed-service/config"
	"github.com/gfdmit/web-forum/feed-service/internal/repository"

	_ "github.com/golang-migrate/migrate/v4/source/file"
)

type postgresRepository struct {
	db *sql.DB
}

// New connects, applies pending migrations from conf.Migrations and returns the store.
func New(conf config.Postgres) (*postgresRepository, error) {
	url := fmt.Sprintf(
		"postgresql://%v:%v@%v:%v/%v?sslmode=disable", conf.User, conf.Pass, conf.Host, conf.Port, conf.DB)

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), conf.Timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db.Ping: %v", err)
	}

	if err := migrateUp(db, conf); err != nil {
		db.Close()
		return nil, err
	}

	return &postgresRepository{
		db: db,
	}, nil
}

func migrateUp(db *sql.DB, conf config.Postgres) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("postgres.WithInstance: %v", err)
	}
	migrations := fmt.Sprintf("file://%v", conf.Migrations)
	m, err := migrate.NewWithDatabaseInstance(migrations, conf.DB, driver)
	if err != nil {
		return fmt.Errorf("migrate.NewWithDatabaseInstance: %v", err)
	}
	log.Println("[POSTGRES] applying migrations...")
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("[POSTGRES] nothing to migrate")
			return nil
		}
		return fmt.Errorf("error when migrating: %v", err)
	}
	log.Println("[POSTGRES] migrated successfully!")
	return nil
}

func (pr *postgresRepository) Close() error {
	return pr.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}
