package repository

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"jamsesh/internal/cache"
	"jamsesh/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	return gormDB, mock
}

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "repo.db")), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Profile{}, &models.Post{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func setupCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.New(rdb), mr
}

func seedUser(t *testing.T, db *gorm.DB, email, username string) uint {
	t.Helper()
	repo := NewUserRepository(db)
	u := &models.User{Email: email, Password: "hash"}
	require.NoError(t, repo.CreateWithProfile(context.Background(), u, &models.Profile{Username: username}))
	return u.ID
}

func ptr[T any](v T) *T { return &v }

func appCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code
}

func TestUserRepository_CreateWithProfile(t *testing.T) {
	db := setupSQLite(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Email: "ana@example.com", Password: "hash"}
	profile := &models.Profile{Username: "ana"}
	require.NoError(t, repo.CreateWithProfile(ctx, user, profile))
	assert.NotZero(t, user.ID)
	assert.Equal(t, user.ID, profile.ID)

	got, err := repo.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repo.GetByID(ctx, 999)
	assert.Equal(t, models.CodeNotFound, appCode(t, err))
}

func TestUserRepository_CreateWithProfile_DuplicateUsernameRollsBack(t *testing.T) {
	db := setupSQLite(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	seedUser(t, db, "a@example.com", "drums")

	err := repo.CreateWithProfile(ctx, &models.User{Email: "b@example.com", Password: "x"}, &models.Profile{Username: "drums"})
	require.Error(t, err)
	assert.Equal(t, models.CodeConflict, appCode(t, err))

	u, err := repo.GetByEmail(ctx, "b@example.com")
	require.NoError(t, err)
	assert.Nil(t, u, "user insert must roll back with the profile")
}

func TestUserRepository_CreateWithProfile_PgUniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"})
	mock.ExpectRollback()

	err := repo.CreateWithProfile(context.Background(), &models.User{Email: "a@example.com"}, &models.Profile{Username: "a"})
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)
	assert.Equal(t, "Email already registered", appErr.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_UpdateAndConflict(t *testing.T) {
	db := setupSQLite(t)
	c, _ := setupCache(t)
	repo := NewProfileRepository(db, c)
	ctx := context.Background()

	id := seedUser(t, db, "a@example.com", "bass")
	seedUser(t, db, "b@example.com", "taken")

	p, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	p.Bio = ptr("Upright and electric")
	p.Tags = p.Tags.Add("jazz")
	require.NoError(t, repo.Update(ctx, p))

	fresh, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Upright and electric", *fresh.Bio)
	assert.Equal(t, models.Tags{"jazz"}, fresh.Tags)

	fresh.Username = "taken"
	err = repo.Update(ctx, fresh)
	assert.Equal(t, models.CodeConflict, appCode(t, err))

	byName, err := repo.GetByUsername(ctx, "bass")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, id, byName.ID)

	_, err = repo.GetByID(ctx, 404)
	assert.Equal(t, models.CodeNotFound, appCode(t, err))
}

func TestPostRepository_ListOrderingAndLocation(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostRepository(db, nil)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com", "keys")

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mk := func(title, loc string, at time.Time) *models.Post {
		p := &models.Post{UserID: uid, Title: title, Category: models.CategoryGeneral, Location: loc, CreatedAt: at}
		require.NoError(t, repo.Create(ctx, p, []string{"title", "category", "location"}))
		return p
	}
	oldest := mk("oldest", "Austin", base)
	tieA := mk("tie-a", "Denver", base.Add(time.Hour))
	tieB := mk("tie-b", "Austin", base.Add(time.Hour))

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uint{tieB.ID, tieA.ID, oldest.ID}, []uint{all[0].ID, all[1].ID, all[2].ID})
	require.NotNil(t, all[0].Profile)
	assert.Equal(t, "keys", all[0].Profile.Username)

	austin, err := repo.List(ctx, "Austin")
	require.NoError(t, err)
	require.Len(t, austin, 2)
	for _, p := range austin {
		assert.Equal(t, "Austin", p.Location)
	}

	none, err := repo.List(ctx, "austin")
	require.NoError(t, err)
	assert.Empty(t, none, "location filter is exact equality")

	mine, err := repo.ListByUser(ctx, uid)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	others, err := repo.ListByUser(ctx, uid+100)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestPostRepository_ListWithCoordinates(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostRepository(db, nil)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com", "keys")

	withCoords := &models.Post{UserID: uid, Title: "gig", Category: models.CategoryShowAnnouncement, Latitude: ptr(30.27), Longitude: ptr(-97.74)}
	require.NoError(t, repo.Create(ctx, withCoords, []string{"title", "category", "latitude", "longitude"}))
	require.NoError(t, repo.Create(ctx, &models.Post{UserID: uid, Title: "no map", Category: models.CategoryLessons}, []string{"title", "category"}))

	rows, err := repo.ListWithCoordinates(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, withCoords.ID, rows[0].ID)
	assert.Equal(t, models.CategoryShowAnnouncement, rows[0].Category)
	assert.InDelta(t, 30.27, *rows[0].Latitude, 1e-9)
}

func TestPostRepository_UpdateKeepsUnselectedColumns(t *testing.T) {
	db := setupSQLite(t)
	c, _ := setupCache(t)
	repo := NewPostRepository(db, c)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com", "keys")

	when := time.Date(2024, 7, 4, 20, 0, 0, 0, time.UTC)
	post := &models.Post{UserID: uid, Title: "v1", Category: models.CategoryGeneral, Latitude: ptr(1.0), Longitude: ptr(2.0), EventDatetime: &when}
	require.NoError(t, repo.Create(ctx, post, []string{"title", "category", "latitude", "longitude", "event_datetime"}))

	// warm the cache, then make sure update evicts it
	_, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)

	sub := &models.PostSubmission{Title: "v2", Category: models.CategoryPromotion}
	sub.Apply(post)
	require.NoError(t, repo.Update(ctx, post, sub.Columns()))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Title)
	assert.Equal(t, models.CategoryPromotion, got.Category)
	require.True(t, got.HasCoordinates())
	assert.InDelta(t, 1.0, *got.Latitude, 1e-9)
	require.NotNil(t, got.EventDatetime)
	assert.True(t, when.Equal(*got.EventDatetime))
	assert.Equal(t, uid, got.UserID)

	missing := &models.Post{ID: 9999, Title: "x", Category: models.CategoryGeneral}
	err = repo.Update(ctx, missing, []string{"title"})
	assert.Equal(t, models.CodeNotFound, appCode(t, err))
}

func TestPostRepository_Delete(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostRepository(db, nil)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com", "keys")

	post := &models.Post{UserID: uid, Title: "bye", Category: models.CategoryGeneral}
	require.NoError(t, repo.Create(ctx, post, []string{"title", "category"}))
	require.NoError(t, repo.Delete(ctx, post.ID))

	_, err := repo.GetByID(ctx, post.ID)
	assert.Equal(t, models.CodeNotFound, appCode(t, err))

	err = repo.Delete(ctx, post.ID)
	assert.Equal(t, models.CodeNotFound, appCode(t, err))
}

func TestPostRepository_FeedCacheInvalidatedOnCreate(t *testing.T) {
	db := setupSQLite(t)
	c, mr := setupCache(t)
	repo := NewPostRepository(db, c)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com", "keys")

	first, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, first)
	assert.True(t, mr.Exists(cache.FeedKey(0, "")))

	require.NoError(t, repo.Create(ctx, &models.Post{UserID: uid, Title: "new", Category: models.CategoryGeneral}, []string{"title", "category"}))

	second, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, second, 1, "feed version bump must retire the cached page")
}

func TestPostRepository_RenameRefreshesCachedAuthor(t *testing.T) {
	db := setupSQLite(t)
	c, _ := setupCache(t)
	posts := NewPostRepository(db, c)
	profiles := NewProfileRepository(db, c)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com", "oldname")

	post := &models.Post{UserID: uid, Title: "Porch jam", Category: models.CategoryGeneral}
	require.NoError(t, posts.Create(ctx, post, []string{"title", "category"}))

	before, err := posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, before.Profile)
	assert.Equal(t, "oldname", before.Profile.Username)

	p, err := profiles.GetByID(ctx, uid)
	require.NoError(t, err)
	p.Username = "newname"
	require.NoError(t, profiles.Update(ctx, p))

	feed, err := posts.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "newname", feed[0].Profile.Username)

	after, err := posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "newname", after.Profile.Username)
}

func TestPostRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, models.CodeNotFound, appCode(t, err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_List_DatabaseError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts"`)).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.List(context.Background(), "Austin")
	require.Error(t, err)
	assert.Equal(t, models.CodeInternal, appCode(t, err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUniqueViolationOn(t *testing.T) {
	name, ok := uniqueViolationOn(&pgconn.PgError{Code: "23505", ConstraintName: "idx_profiles_username"})
	assert.True(t, ok)
	assert.Equal(t, "idx_profiles_username", name)

	_, ok = uniqueViolationOn(&pgconn.PgError{Code: "23503"})
	assert.False(t, ok)

	_, ok = uniqueViolationOn(errors.New("UNIQUE constraint failed: users.email"))
	assert.True(t, ok)

	_, ok = uniqueViolationOn(nil)
	assert.False(t, ok)
}
