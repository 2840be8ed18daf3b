package user

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("buyer@example.com", "Buyer", "hash", "user").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))

		u := &User{Email: "buyer@example.com", Name: "Buyer", PasswordHash: "hash", Role: "user"}
		err := repo.Create(ctx, u)
		assert.NoError(t, err)
		assert.Equal(t, uint(1), u.ID)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(&pq.Error{Code: "23505"})

		err := repo.Create(ctx, &User{Email: "buyer@example.com"})
		assert.ErrorIs(t, err, ErrEmailExists)
	})
}

func TestRepository_GetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "role", "created_at"}).
			AddRow(1, "buyer@example.com", "Buyer", "hash", "user", time.Now())

		mock.ExpectQuery(`SELECT id, email, name, password_hash, role, created_at FROM users WHERE email = \$1`).
			WithArgs("buyer@example.com").
			WillReturnRows(rows)

		u, err := repo.GetByEmail(ctx, "buyer@example.com")
		require.NoError(t, err)
		assert.Equal(t, uint(1), u.ID)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, email, name, password_hash, role, created_at FROM users WHERE email = \$1`).
			WithArgs("ghost@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
