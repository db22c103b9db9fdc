package devstack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionsFromEnvDefaults(t *testing.T) {
	t.Setenv("DB_TYPE", "")
	t.Setenv("DB_IMAGE", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("WITH_REDIS", "")
	t.Setenv("WITH_REDPANDA", "")

	o := OptionsFromEnv()
	assert.Equal(t, "mysql", o.DBType)
	assert.Equal(t, "mariadb:11", o.DBImage)
	assert.Equal(t, "3306", o.DBPort)
	assert.True(t, o.Redis)
	assert.False(t, o.Redpanda)
}

func TestOptionsFromEnvPostgres(t *testing.T) {
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DB_IMAGE", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("WITH_REDPANDA", "true")

	o := OptionsFromEnv()
	assert.Equal(t, "postgres:16-alpine", o.DBImage)
	assert.Equal(t, "5432", o.DBPort)
	assert.True(t, o.Redpanda)
}

func TestDBInitEnv(t *testing.T) {
	o := Options{DBType: "mysql", DBDatabase: "cc", DBUser: "u", DBPassword: "p", DBRootPassword: "r", DBPort: "3306", AuthzDatabase: "authz"}
	assert.Equal(t, map[string]string{
		"MYSQL_ROOT_PASSWORD": "r",
		"MYSQL_DATABASE":      "cc",
		"MYSQL_USER":          "u",
		"MYSQL_PASSWORD":      "p",
	}, dbInitEnv(o))
	assert.Equal(t, "root:r@tcp(db:3306)/authz", authzDatabaseURL(o, "db"))

	o.DBType, o.DBPort = "postgres", "5432"
	assert.Equal(t, map[string]string{
		"POSTGRES_PASSWORD": "p",
		"POSTGRES_USER":     "u",
		"POSTGRES_DB":       "cc",
	}, dbInitEnv(o))
	assert.Equal(t, "postgres://u:p@db:5432/authz?sslmode=disable", authzDatabaseURL(o, "db"))
}
