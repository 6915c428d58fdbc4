package database

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-site-api/pkg/config"
)

func TestDSNEscapesCredentials(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "site",
		Password: "p@ss word/1",
		Name:     "course_site",
		SSLMode:  "disable",
	})

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db:5432", u.Host)
	assert.Equal(t, "/course_site", u.Path)
	pass, _ := u.User.Password()
	assert.Equal(t, "p@ss word/1", pass)
	assert.Equal(t, "UTC", u.Query().Get("timezone"))
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
}
