// Package pgtest starts a throwaway PostgreSQL container for integration tests.
package pgtest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"github.com/GlebRadaev/escrowpay/internal/pg"
)

const (
	database = "escrowpay_test"
	user     = "postgres"
	password = "secret"
)

// SetupDB runs postgres in docker, applies the migrations and returns a pool
// together with a cleaner that removes the container.
func SetupDB(ctx context.Context) (*pgxpool.Pool, func(), error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to docker: %w", err)
	}
	pool.MaxWait = 2 * time.Minute

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_DB=" + database,
			"POSTGRES_USER=" + user,
			"POSTGRES_PASSWORD=" + password,
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not start resource: %w", err)
	}

	purge := func() {
		log.Printf("removing container")
		if err := pool.Purge(resource); err != nil {
			log.Printf("failed to purge docker pool: %s", err)
		}
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		user, password, resource.GetHostPort("5432/tcp"), database)

	var db *pgxpool.Pool
	err = pool.Retry(func() error {
		var err error
		db, err = pgxpool.New(ctx, dsn)
		if err != nil {
			return err
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return err
		}
		return nil
	})
	if err != nil {
		purge()
		return nil, nil, fmt.Errorf("could not start postgres: %w", err)
	}

	cleaner := func() {
		db.Close()
		purge()
	}

	if err := pg.RunMigrations(ctx, db); err != nil {
		cleaner()
		return nil, nil, fmt.Errorf("could not migrate: %w", err)
	}
	return db, cleaner, nil
}

// Truncate empties every table between tests.
func Truncate(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `TRUNCATE withdrawal_requests, wallet_transactions, wallets, escrow_transitions, escrows, contracts CASCADE`)
	return err
}
