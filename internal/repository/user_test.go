package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"ideafoundry/internal/models"
	"ideafoundry/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_FindIDByUsername(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	bob := testutil.CreateUser(t, db, "bob")

	id, found, err := repo.FindIDByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, bob.ID, id)

	_, found, err = repo.FindIDByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUserRepository_FirstID(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	_, found, err := repo.FirstID(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	first := testutil.CreateUser(t, db, "zed")
	testutil.CreateUser(t, db, "amy")

	id, found, err := repo.FirstID(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, first.ID, id)
}

func TestUserRepository_FirstID_DatabaseError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "users" ORDER BY id ASC LIMIT $1`)).
		WithArgs(1).
		WillReturnError(errors.New("connection timeout"))

	_, found, err := repo.FirstID(context.Background())
	assert.Error(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_RecomputePostsCounts(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	carol := testutil.CreateUser(t, db, "carol")

	testutil.CreatePost(t, db, alice, "a1")
	testutil.CreatePost(t, db, alice, "a2")
	testutil.CreatePost(t, db, bob, "b1")
	require.NoError(t, db.Model(carol).Update("posts_count", 9).Error)

	require.NoError(t, repo.RecomputePostsCounts(ctx))

	counts := map[string]int{}
	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	for _, u := range users {
		counts[u.Username] = u.PostsCount
	}
	assert.Equal(t, map[string]int{"alice": 2, "bob": 1, "carol": 0}, counts)
}

func TestUserRepository_RecomputePostsCounts_SQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET posts_count = (SELECT COUNT(*) FROM posts WHERE posts.author_id = users.id)`)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.RecomputePostsCounts(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ListActiveAuthors(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	carol := testutil.CreateUser(t, db, "carol")
	dave := testutil.CreateUser(t, db, "dave")
	require.NoError(t, db.Model(alice).Update("posts_count", 1).Error)
	require.NoError(t, db.Model(bob).Update("posts_count", 3).Error)
	require.NoError(t, db.Model(carol).Update("posts_count", 1).Error)
	require.NoError(t, db.Model(dave).Update("is_active", false).Error)

	authors, err := repo.ListActiveAuthors(ctx)
	require.NoError(t, err)

	var names []string
	for _, a := range authors {
		names = append(names, a.Username)
	}
	assert.Equal(t, []string{"bob", "alice", "carol"}, names)
}

func TestUserRepository_UpsertByUsername(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	existing := testutil.CreateUser(t, db, "alice")

	user := &models.User{Username: "alice", DisplayName: "Alice Liddell", Bio: "Down the rabbit hole", Role: models.RoleAdmin, IsActive: true}
	require.NoError(t, repo.UpsertByUsername(ctx, user))
	assert.Equal(t, existing.ID, user.ID)

	var stored models.User
	require.NoError(t, db.First(&stored, existing.ID).Error)
	assert.Equal(t, "Alice Liddell", stored.DisplayName)
	assert.Equal(t, models.RoleAdmin, stored.Role)

	fresh := &models.User{Username: "newbie", IsActive: true}
	require.NoError(t, repo.UpsertByUsername(ctx, fresh))
	assert.NotZero(t, fresh.ID)
	assert.NotEqual(t, existing.ID, fresh.ID)
}
