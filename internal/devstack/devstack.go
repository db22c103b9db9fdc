// Package devstack starts the containers the service depends on for local
// runs and end to end tests: a database with the schema applied, an
// Authorizer, and optionally redis and redpanda.
package devstack

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/localnerve/callcard/internal/config"
	"github.com/localnerve/callcard/internal/database"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/modules/redpanda"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// Options select images and credentials. OptionsFromEnv reads them from
// the same variables the service uses.
type Options struct {
	DBType         string
	DBImage        string
	DBPort         string
	DBDatabase     string
	DBUser         string
	DBPassword     string
	DBRootPassword string

	AuthzImage       string
	AuthzPort        string
	AuthzClientID    string
	AuthzDatabase    string
	AuthzAdminSecret string

	Redis    bool
	Redpanda bool
	Debug    bool
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func OptionsFromEnv() Options {
	o := Options{
		DBType:           getEnv("DB_TYPE", "mysql"),
		DBDatabase:       getEnv("DB_DATABASE", "callcard"),
		DBUser:           getEnv("DB_USER", "callcard"),
		DBPassword:       getEnv("DB_PASSWORD", "callcard"),
		DBRootPassword:   getEnv("DB_ROOT_PASSWORD", "root"),
		AuthzImage:       getEnv("AUTHZ_IMAGE", "lakhansamani/authorizer:latest"),
		AuthzPort:        getEnv("AUTHZ_PORT", "8080"),
		AuthzClientID:    getEnv("AUTHZ_CLIENT_ID", "callcard"),
		AuthzDatabase:    getEnv("AUTHZ_DATABASE", "authorizer"),
		AuthzAdminSecret: getEnv("AUTHZ_ADMIN_SECRET", "admin"),
		Redis:            getEnvAsBool("WITH_REDIS", true),
		Redpanda:         getEnvAsBool("WITH_REDPANDA", false),
		Debug:            getEnvAsBool("DEBUG_CONTAINER", false),
	}
	switch o.DBType {
	case "postgres", "postgresql":
		o.DBImage = getEnv("DB_IMAGE", "postgres:16-alpine")
		o.DBPort = getEnv("DB_PORT", "5432")
	default:
		o.DBImage = getEnv("DB_IMAGE", "mariadb:11")
		o.DBPort = getEnv("DB_PORT", "3306")
	}
	return o
}

// dbInitEnv returns the image environment that creates the database and user.
func dbInitEnv(o Options) map[string]string {
	switch o.DBType {
	case "postgres", "postgresql":
		return map[string]string{
			"POSTGRES_PASSWORD": o.DBPassword,
			"POSTGRES_USER":     o.DBUser,
			"POSTGRES_DB":       o.DBDatabase,
		}
	}
	return map[string]string{
		"MYSQL_ROOT_PASSWORD": o.DBRootPassword,
		"MYSQL_DATABASE":      o.DBDatabase,
		"MYSQL_USER":          o.DBUser,
		"MYSQL_PASSWORD":      o.DBPassword,
	}
}

// authzDatabaseURL is the Authorizer connection string inside the network.
func authzDatabaseURL(o Options, dbAlias string) string {
	switch o.DBType {
	case "postgres", "postgresql":
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", o.DBUser, o.DBPassword, dbAlias, o.DBPort, o.AuthzDatabase)
	}
	return fmt.Sprintf("root:%s@tcp(%s:%s)/%s", o.DBRootPassword, dbAlias, o.DBPort, o.AuthzDatabase)
}

// Stack holds the started containers.
type Stack struct {
	Network    *testcontainers.DockerNetwork
	DB         testcontainers.Container
	Authorizer testcontainers.Container
	Redis      *tcredis.RedisContainer
	Redpanda   *redpanda.Container

	// Env holds the host side settings for the service.
	Env map[string]string
}

// Terminate stops every started container and removes the network.
func (s *Stack) Terminate(ctx context.Context, log *zap.Logger) {
	for name, c := range map[string]testcontainers.Container{
		"authorizer": s.Authorizer,
		"database":   s.DB,
	} {
		if c == nil {
			continue
		}
		if err := c.Terminate(ctx); err != nil {
			log.Warn("Failed to terminate container", zap.String("container", name), zap.Error(err))
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Terminate(ctx); err != nil {
			log.Warn("Failed to terminate container", zap.String("container", "redis"), zap.Error(err))
		}
	}
	if s.Redpanda != nil {
		if err := s.Redpanda.Terminate(ctx); err != nil {
			log.Warn("Failed to terminate container", zap.String("container", "redpanda"), zap.Error(err))
		}
	}
	if s.Network != nil {
		if err := s.Network.Remove(ctx); err != nil {
			log.Warn("Failed to remove network", zap.Error(err))
		}
	}
}

// Start brings up the stack. On error the containers started so far are
// terminated.
func Start(ctx context.Context, o Options, log *zap.Logger) (s *Stack, err error) {
	s = &Stack{Env: map[string]string{"DB_TYPE": o.DBType, "DB_DATABASE": o.DBDatabase, "DB_USER": o.DBUser, "DB_PASSWORD": o.DBPassword}}
	defer func() {
		if err != nil {
			s.Terminate(context.WithoutCancel(ctx), log)
			s = nil
		}
	}()

	nw, err := network.New(ctx)
	if err != nil {
		return s, fmt.Errorf("create network: %w", err)
	}
	s.Network = nw

	const dbAlias = "db"
	dbPort, err := nat.NewPort("tcp", o.DBPort)
	if err != nil {
		return s, fmt.Errorf("database port: %w", err)
	}
	s.DB, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:          o.DBImage,
			ExposedPorts:   []string{string(dbPort)},
			Env:            dbInitEnv(o),
			WaitingFor:     wait.ForListeningPort(dbPort).WithStartupTimeout(60 * time.Second),
			Networks:       []string{nw.Name},
			NetworkAliases: map[string][]string{nw.Name: {dbAlias}},
		},
		Started: true,
	})
	if err != nil {
		return s, fmt.Errorf("start database: %w", err)
	}
	host, err := s.DB.Host(ctx)
	if err != nil {
		return s, err
	}
	mapped, err := s.DB.MappedPort(ctx, dbPort)
	if err != nil {
		return s, err
	}
	s.Env["DB_HOST"] = host
	s.Env["DB_PORT"] = mapped.Port()

	if err := initDatabase(ctx, o, host, mapped.Port(), log); err != nil {
		return s, err
	}

	authzPort, err := nat.NewPort("tcp", o.AuthzPort)
	if err != nil {
		return s, fmt.Errorf("authorizer port: %w", err)
	}
	authzLogLevel := "info"
	if o.Debug {
		authzLogLevel = "debug"
	}
	authzDBType := "mysql"
	if o.DBType == "postgres" || o.DBType == "postgresql" {
		authzDBType = "postgres"
	}
	s.Authorizer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        o.AuthzImage,
			ExposedPorts: []string{string(authzPort)},
			Env: map[string]string{
				"ENV":           "production",
				"CLIENT_ID":     o.AuthzClientID,
				"PORT":          o.AuthzPort,
				"DATABASE_TYPE": authzDBType,
				"DATABASE_NAME": o.AuthzDatabase,
				"DATABASE_URL":  authzDatabaseURL(o, dbAlias),
				"ADMIN_SECRET":  o.AuthzAdminSecret,
				"ROLES":         "admin,user",
				"DEFAULT_ROLES": "user",
				"LOG_LEVEL":     authzLogLevel,
			},
			WaitingFor: wait.ForLog("Authorizer running at PORT:").WithStartupTimeout(30 * time.Second),
			Networks:   []string{nw.Name},
		},
		Started: true,
	})
	if err != nil {
		return s, fmt.Errorf("start authorizer: %w", err)
	}
	authzHost, _ := s.Authorizer.Host(ctx)
	authzMapped, _ := s.Authorizer.MappedPort(ctx, authzPort)
	s.Env["AUTHZ_URL"] = fmt.Sprintf("http://%s:%s", authzHost, authzMapped.Port())
	s.Env["AUTHZ_CLIENT_ID"] = o.AuthzClientID

	if o.Redis {
		s.Redis, err = tcredis.Run(ctx, "redis:7-alpine")
		if err != nil {
			return s, fmt.Errorf("start redis: %w", err)
		}
		if s.Env["REDIS_URL"], err = s.Redis.ConnectionString(ctx); err != nil {
			return s, err
		}
	}

	if o.Redpanda {
		s.Redpanda, err = redpanda.Run(ctx, "docker.redpanda.com/redpandadata/redpanda:v24.2.7", redpanda.WithAutoCreateTopics())
		if err != nil {
			return s, fmt.Errorf("start redpanda: %w", err)
		}
		if s.Env["KAFKA_BROKERS"], err = s.Redpanda.KafkaSeedBroker(ctx); err != nil {
			return s, err
		}
	}

	log.Info("Stack started", zap.Any("env", s.Env))
	return s, nil
}

// initDatabase creates the Authorizer database and applies the schema.
func initDatabase(ctx context.Context, o Options, host, port string, log *zap.Logger) error {
	cfg := &config.Config{
		DBType:            o.DBType,
		DBHost:            host,
		DBPort:            port,
		DBDatabase:        o.DBDatabase,
		DBUser:            o.DBUser,
		DBPassword:        o.DBPassword,
		DBConnectionLimit: 2,
	}
	create := "CREATE DATABASE " + o.AuthzDatabase
	if o.DBType != "postgres" && o.DBType != "postgresql" {
		// only root may create databases on mariadb
		cfg.DBUser, cfg.DBPassword = "root", o.DBRootPassword
		create = "CREATE DATABASE IF NOT EXISTS " + o.AuthzDatabase
	}

	var err error
	for i := 0; i < 30; i++ {
		if err = applySchema(ctx, cfg, log, create); err == nil {
			return nil
		}
		if strings.Contains(err.Error(), "already exists") {
			// a previous attempt got as far as the create
			create = ""
		}
		select {
		case <-ctx.Done():
			return errors.Join(ctx.Err(), err)
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("database not ready after 30 seconds: %w", err)
}

func applySchema(ctx context.Context, cfg *config.Config, log *zap.Logger, create string) error {
	db, err := database.Connect(cfg, log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if create != "" {
		if err := db.WithContext(ctx).Exec(create).Error; err != nil {
			return fmt.Errorf("create authorizer database: %w", err)
		}
	}
	return database.Migrate(ctx, db, cfg.DBType, log, "up")
}
