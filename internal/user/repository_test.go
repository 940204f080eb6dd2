package user_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/user-management-api/internal/config"
	"github.com/vasiliy-maslov/user-management-api/internal/db"
	"github.com/vasiliy-maslov/user-management-api/internal/user"
)

var testDB *pgxpool.Pool

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestMain(m *testing.M) {
	// Repository tests need a live Postgres; without DB_HOST_TEST they are skipped.
	dbHost := os.Getenv("DB_HOST_TEST")
	if dbHost == "" {
		os.Exit(m.Run())
	}

	cfg := config.PostgresConfig{
		Host:            dbHost,
		Port:            envOr("DB_PORT_TEST", "5432"),
		User:            envOr("DB_USER_TEST", "postgres"),
		Password:        envOr("DB_PASSWORD_TEST", "postgres"),
		DBName:          envOr("DB_NAME_TEST", "users_test"),
		SSLMode:         envOr("DB_SSLMODE_TEST", "disable"),
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: time.Minute,
	}

	if err := db.Migrate(cfg); err != nil {
		log.Fatal().Err(err).Str("host", cfg.Host).Str("dbname", cfg.DBName).Msg("Failed to migrate test database")
	}

	pg, err := db.New(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Str("host", cfg.Host).Msg("Failed to connect to test database")
	}
	testDB = pg.Pool

	exitCode := m.Run()

	pg.Close()
	os.Exit(exitCode)
}

func requireDB(t *testing.T) {
	t.Helper()
	if testDB == nil {
		t.Skip("DB_HOST_TEST not set, skipping repository integration test")
	}
	t.Cleanup(func() {
		truncateUsersTable(t, testDB)
	})
}

func truncateUsersTable(tb testing.TB, pool *pgxpool.Pool) {
	tb.Helper()
	_, err := pool.Exec(context.Background(), "TRUNCATE TABLE access_tokens, users RESTART IDENTITY CASCADE")
	require.NoError(tb, err, "failed to truncate users table")
}

func newRepoUser(email, lastName string, status user.Status) *user.User {
	return &user.User{
		FirstName:    "Test",
		LastName:     lastName,
		Email:        email,
		Phone:        "555-0100",
		PasswordHash: "hashed_password",
		Status:       status,
	}
}

func TestUserRepository_Create(t *testing.T) {
	requireDB(t)
	repo := user.NewRepository(testDB)

	u := newRepoUser("test.create@example.com", "User", user.StatusActive)

	err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())
	assert.Equal(t, u.CreatedAt, u.UpdatedAt)
}

func TestUserRepository_Create_EmailExists(t *testing.T) {
	requireDB(t)
	repo := user.NewRepository(testDB)

	require.NoError(t, repo.Create(context.Background(), newRepoUser("dup@example.com", "User", user.StatusActive)))

	err := repo.Create(context.Background(), newRepoUser("dup@example.com", "Other", user.StatusActive))
	require.ErrorIs(t, err, user.ErrEmailExists)
}

func TestUserRepository_GetByID_RoundTrip(t *testing.T) {
	requireDB(t)
	repo := user.NewRepository(testDB)

	u := newRepoUser("roundtrip@example.com", "Pérez", user.StatusInactive)
	require.NoError(t, repo.Create(context.Background(), u))

	found, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, found.Email)
	assert.Equal(t, u.LastName, found.LastName)
	assert.Equal(t, user.StatusInactive, found.Status)
	assert.Equal(t, u.PasswordHash, found.PasswordHash)
	assert.True(t, u.CreatedAt.Equal(found.CreatedAt))
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	requireDB(t)
	repo := user.NewRepository(testDB)

	found, err := repo.GetByID(context.Background(), 424242)
	require.ErrorIs(t, err, user.ErrNotFound)
	require.Nil(t, found)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	requireDB(t)
	repo := user.NewRepository(testDB)

	u := newRepoUser("byemail@example.com", "User", user.StatusActive)
	require.NoError(t, repo.Create(context.Background(), u))

	found, err := repo.GetByEmail(context.Background(), "byemail@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = repo.GetByEmail(context.Background(), "BYEMAIL@example.com")
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestUserRepository_EmailTaken(t *testing.T) {
	requireDB(t)
	repo := user.NewRepository(testDB)

	u := newRepoUser("taken@example.com", "User", user.StatusActive)
	require.NoError(t, repo.Create(context.Background(), u))

	taken, err := repo.EmailTaken(context.Background(), "taken@example.com", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.EmailTaken(context.Background(), "taken@example.com", u.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestUserRepository_List_OrderAndFilter(t *testing.T) {
	requireDB(t)
	repo := user.NewRepository(testDB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRepoUser("z@example.com", "Zapata", user.StatusActive)))
	require.NoError(t, repo.Create(ctx, newRepoUser("a@example.com", "Álvarez", user.StatusInactive)))
	require.NoError(t, repo.Create(ctx, newRepoUser("g@example.com", "Gómez", user.StatusActive)))

	all, err := repo.List(ctx, user.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	active := user.StatusActive
	onlyActive, err := repo.List(ctx, user.ListFilter{Status: &active})
	require.NoError(t, err)
	require.Len(t, onlyActive, 2)
	assert.Equal(t, "Gómez", onlyActive[0].LastName)
	assert.Equal(t, "Zapata", onlyActive[1].LastName)
}

func TestUserRepository_List_Empty(t *testing.T) {
	requireDB(t)
	repo := user.NewRepository(testDB)

	users, err := repo.List(context.Background(), user.ListFilter{})
	require.NoError(t, err)
	require.NotNil(t, users)
	assert.Empty(t, users)
}

func TestUserRepository_Update(t *testing.T) {
	requireDB(t)
	repo := user.NewRepository(testDB)
	ctx := context.Background()

	u := newRepoUser("update@example.com", "User", user.StatusActive)
	require.NoError(t, repo.Create(ctx, u))
	registered := u.CreatedAt

	time.Sleep(5 * time.Millisecond)
	u.FirstName = "Changed"
	require.NoError(t, repo.Update(ctx, u))

	found, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Changed", found.FirstName)
	assert.True(t, registered.Equal(found.CreatedAt))
	assert.True(t, found.UpdatedAt.After(found.CreatedAt))
}

func TestUserRepository_Update_NotFound(t *testing.T) {
	requireDB(t)
	repo := user.NewRepository(testDB)

	u := newRepoUser("ghost@example.com", "User", user.StatusActive)
	u.ID = 424242

	require.ErrorIs(t, repo.Update(context.Background(), u), user.ErrNotFound)
}

func TestUserRepository_UpdateStatus(t *testing.T) {
	requireDB(t)
	repo := user.NewRepository(testDB)
	ctx := context.Background()

	u := newRepoUser("status@example.com", "User", user.StatusActive)
	require.NoError(t, repo.Create(ctx, u))

	require.NoError(t, repo.UpdateStatus(ctx, u.ID, user.StatusInactive))

	found, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, user.StatusInactive, found.Status)

	require.ErrorIs(t, repo.UpdateStatus(ctx, 424242, user.StatusActive), user.ErrNotFound)
}
