// Package mariadbtest constructs short-lived MariaDB instances for unit-testing.
package mariadbtest

import (
	"crypto/rand"
	"encoding/hex"
	"io/ioutil"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Docker is a test configuration with MariaDB 10.3 running in a Docker container,
// and a local client authenticated and attached to the DB.
type Docker struct {
	Resource *dockertest.Resource
	DB       *sqlx.DB
}

// NewDocker creates and starts a Docker test configuration.
// It skips the test in short mode or if Docker is unreachable,
// and terminates the test if creation fails.
func NewDocker(t testing.TB) *Docker {
	if testing.Short() {
		t.Skip("mariadbtest: skipping in short mode")
	}
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skip("mariadbtest: Docker unavailable:", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skip("mariadbtest: Docker unavailable:", err)
	}
	t.Log("Connected to Docker")
	pool.MaxWait = 2 * time.Minute
	var passBytes [16]byte
	_, err = rand.Read(passBytes[:])
	require.NoError(t, err, "Getting random password bytes")
	password := hex.EncodeToString(passBytes[:])
	runOpts := &dockertest.RunOptions{
		Repository: "mariadb",
		Tag:        "10.3-focal",
		Env: []string{
			"MYSQL_DATABASE=bearergw",
			"MYSQL_ROOT_PASSWORD=" + password,
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Creating MariaDB")
	t.Log("Created MariaDB Docker container")
	sqlConfig := mysql.Config{
		User:   "root",
		Passwd: password,
		Net:    "tcp",
		Addr:   "localhost:" + resource.GetPort("3306/tcp"),
		DBName: "bearergw",

		ParseTime:            true,
		Loc:                  time.UTC,
		AllowNativePasswords: true,
		MultiStatements:      true,
	}
	db, err := sqlx.Open("mysql", sqlConfig.FormatDSN())
	require.NoError(t, err)
	require.NoError(t, pool.Retry(func() error {
		if err := db.Ping(); err != nil {
			t.Log("Ping failed, retrying:", err)
			return err
		}
		return nil
	}), "Connection to MariaDB")
	return &Docker{
		Resource: resource,
		DB:       db,
	}
}

// Migrate runs the schema files of the repository's sql/ directory.
func (m *Docker) Migrate(t testing.TB) {
	_, thisFile, _, _ := runtime.Caller(0)
	files, err := filepath.Glob(filepath.Join(thisFile, "../../../sql/*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files, "No schema files found")
	for _, file := range files {
		stmts, err := ioutil.ReadFile(file)
		require.NoError(t, err)
		_, err = m.DB.Exec(string(stmts))
		require.NoError(t, err, "Running %s", filepath.Base(file))
	}
}

// Close force removes the MariaDB container and destroys all data.
func (m *Docker) Close(t testing.TB) {
	assert.NoError(t, m.DB.Close(), "Closing client")
	assert.NoError(t, m.Resource.Close(), "Removing container")
}
