package testpostgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pitabwire/util"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pitabwire/translationtools/data"
	"github.com/pitabwire/translationtools/toolstests/definition"
)

const (
	postgreSQLMaxIdentifiersCharLength = 60

	PostgresqlDBImage = "postgres:latest"

	DBUser     = "translations"
	DBPassword = "tr4nsl8s"
	DBName     = "translations_test"

	// OccurrenceValue is the number of occurrences to wait for in the log pattern.
	OccurrenceValue = 2
	// TimeoutInSeconds is the timeout duration for container startup in seconds.
	TimeoutInSeconds = 60

	pgDuplicateDatabase = "42P04"
)

var invalidIdentifierChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

type postgreSQLDependancy struct {
	opts      definition.ContainerOpts
	dbname    string
	conn      data.DSN
	container *tcPostgres.PostgresContainer
}

func New(containerOpts ...definition.ContainerOption) definition.TestResource {
	return NewWithOpts(DBName, containerOpts...)
}

func NewWithOpts(dbName string, containerOpts ...definition.ContainerOption) definition.TestResource {
	opts := definition.ContainerOpts{
		ImageName:      PostgresqlDBImage,
		UserName:       DBUser,
		Password:       DBPassword,
		NetworkAliases: []string{"postgres", "db-postgres"},
	}
	opts.Setup(containerOpts...)

	return &postgreSQLDependancy{
		opts:   opts,
		dbname: dbName,
	}
}

func (d *postgreSQLDependancy) Name() string {
	return d.opts.ImageName
}

// Setup creates a PostgreSQL testcontainer.
func (d *postgreSQLDependancy) Setup(ctx context.Context, ntwk *testcontainers.DockerNetwork) error {
	customizers := d.opts.Customizers(ctx, ntwk,
		tcPostgres.WithDatabase(d.dbname),
		tcPostgres.WithUsername(d.opts.UserName),
		tcPostgres.WithPassword(d.opts.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(OccurrenceValue).
				WithStartupTimeout(TimeoutInSeconds*time.Second)),
	)

	pgContainer, err := tcPostgres.Run(ctx, d.opts.ImageName, customizers...)
	if err != nil {
		return fmt.Errorf("failed to start postgres container: %w", err)
	}
	d.container = pgContainer

	conn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fmt.Errorf("failed to get postgres connection string: %w", err)
	}
	d.conn = data.DSN(conn)

	return nil
}

func (d *postgreSQLDependancy) GetDS(_ context.Context) data.DSN {
	return d.conn
}

// GetRandomisedDS creates, if missing, a database named after the prefix and
// returns its connection string with a function dropping its contents.
func (d *postgreSQLDependancy) GetRandomisedDS(
	ctx context.Context,
	randomisedPrefix string,
) (data.DSN, func(context.Context), error) {
	connectionURI, err := d.conn.ToURI()
	if err != nil {
		return "", func(_ context.Context) {}, err
	}

	connectionURI, err = ensureDatabaseExists(ctx, connectionURI, suffixedDatabaseName(connectionURI, randomisedPrefix))
	if err != nil {
		return "", func(_ context.Context) {}, err
	}

	suffixed := connectionURI.String()
	return data.DSN(suffixed), func(cleanupCtx context.Context) {
		if clearErr := clearDatabase(cleanupCtx, suffixed); clearErr != nil {
			util.Log(cleanupCtx).WithError(clearErr).Warn("could not clear test database")
		}
	}, nil
}

func (d *postgreSQLDependancy) Cleanup(ctx context.Context) {
	if d.container == nil {
		return
	}
	if err := d.container.Terminate(ctx); err != nil {
		util.Log(ctx).WithField("image", d.opts.ImageName).WithError(err).Info("could not terminate container")
	}
}

func ensureDatabaseExists(ctx context.Context, postgresURI *url.URL, newDBName string) (*url.URL, error) {
	pool, err := pgxpool.New(ctx, postgresURI.String())
	if err != nil {
		return postgresURI, err
	}
	defer pool.Close()

	_, err = pool.Exec(ctx, fmt.Sprintf(`CREATE DATABASE %s;`, newDBName))
	if err != nil {
		var pgErr *pgconn.PgError
		if !errors.As(err, &pgErr) || pgErr.Code != pgDuplicateDatabase {
			return postgresURI, err
		}
	}

	newURI := *postgresURI
	newURI.Path = newDBName
	return &newURI, nil
}

func clearDatabase(ctx context.Context, connectionString string) error {
	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		return err
	}
	defer pool.Close()

	_, err = pool.Exec(ctx, `DROP SCHEMA public CASCADE; CREATE SCHEMA public;`)
	return err
}

// suffixedDatabaseName derives a valid, lower cased PostgreSQL identifier from the current database and prefix.
func suffixedDatabaseName(currentURI *url.URL, randomisedPrefix string) string {
	pathPart := strings.ReplaceAll(currentURI.Path, "/", "")
	if pathPart == "" {
		pathPart = "db"
	}

	maxPathLength := postgreSQLMaxIdentifiersCharLength - len(randomisedPrefix)
	if len(pathPart) > maxPathLength {
		pathPart = pathPart[:maxPathLength]
	}

	result := invalidIdentifierChars.ReplaceAllString(fmt.Sprintf("%s_%s", pathPart, randomisedPrefix), "_")
	return strings.ToLower(result)
}
