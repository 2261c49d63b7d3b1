// Package testsuite starts throwaway Postgres containers for repository
// integration suites.
package testsuite

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vasiliy-maslov/soap-shop/internal/config"
	"github.com/vasiliy-maslov/soap-shop/internal/db"
)

type BaseSuite struct {
	suite.Suite
	Ctx         context.Context
	PgContainer *postgres.PostgresContainer
	DB          *db.Postgres
}

// SetupInfrastructure starts Postgres and applies the migrations found at
// migrationsRelPath, relative to the calling package.
func (s *BaseSuite) SetupInfrastructure(migrationsRelPath string) {
	s.Ctx = context.Background()

	var err error
	s.PgContainer, err = postgres.Run(
		s.Ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("soap_shop_test"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)

	host, err := s.PgContainer.Host(s.Ctx)
	s.Require().NoError(err)
	port, err := s.PgContainer.MappedPort(s.Ctx, "5432/tcp")
	s.Require().NoError(err)

	absPath, err := filepath.Abs(migrationsRelPath)
	s.Require().NoError(err)

	cfg := config.PostgresConfig{
		Host:           host,
		Port:           port.Port(),
		User:           "test_user",
		Password:       "test_password",
		DBName:         "soap_shop_test",
		SSLMode:        "disable",
		MaxConns:       4,
		MinConns:       1,
		MigrationsPath: absPath,
	}
	s.Require().NoError(db.ApplyMigrations(cfg))

	s.DB, err = db.New(s.Ctx, cfg)
	s.Require().NoError(err)
}

func (s *BaseSuite) TearDownInfrastructure() {
	if s.DB != nil {
		s.DB.Close()
	}
	if s.PgContainer != nil {
		if err := s.PgContainer.Terminate(s.Ctx); err != nil {
			s.T().Logf("failed to terminate postgres container: %v", err)
		}
	}
}

func (s *BaseSuite) TruncateTables(tables ...string) {
	for _, table := range tables {
		_, err := s.DB.Pool.Exec(s.Ctx, fmt.Sprintf("TRUNCATE %s CASCADE", table))
		s.Require().NoError(err)
	}
}
