package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"caseintake/internal/database"
	"caseintake/internal/database/dbtest"
)

func strPtr(s string) *string { return &s }

func seedUser(t *testing.T, s *Store, nif string, createdAt time.Time) *database.User {
	t.Helper()
	u := &database.User{
		CreatedAt:    createdAt,
		NIF:          nif,
		FirstName:    "Ana",
		FirstSurname: "García",
		Email:        nif + "@example.org",
		IntakeDate:   datatypes.Date(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
	}
	require.NoError(t, s.InsertUser(context.Background(), u))
	require.NotZero(t, u.ID)
	return u
}

func TestStore_FindUserNotFound(t *testing.T) {
	s := New(dbtest.New(t))

	_, err := s.FindUser(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_OptionalOneToOneAbsent(t *testing.T) {
	s := New(dbtest.New(t))
	ctx := context.Background()
	u := seedUser(t, s, "1A", time.Now())

	ad, err := s.FindAdditionalData(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, ad)

	require.NoError(t, s.InsertAdditionalData(ctx, &database.AdditionalData{UserID: u.ID, Status: strPtr(database.StatusActive)}))
	ad, err = s.FindAdditionalData(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, ad)
	assert.Equal(t, database.StatusActive, *ad.Status)
}

func TestStore_ListUsersOrderAndFilter(t *testing.T) {
	s := New(dbtest.New(t))
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	older := seedUser(t, s, "1A", base)
	newer := seedUser(t, s, "2B", base.Add(time.Hour))

	all, err := s.ListUsers(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, older.ID, all[1].ID)

	some, err := s.ListUsers(ctx, []uint{older.ID})
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, "1A", some[0].NIF)

	none, err := s.ListUsers(ctx, []uint{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_UserIDsByStatus(t *testing.T) {
	s := New(dbtest.New(t))
	ctx := context.Background()
	a := seedUser(t, s, "1A", time.Now())
	b := seedUser(t, s, "2B", time.Now())
	require.NoError(t, s.InsertAdditionalData(ctx, &database.AdditionalData{UserID: a.ID, Status: strPtr(database.StatusActive)}))
	require.NoError(t, s.InsertAdditionalData(ctx, &database.AdditionalData{UserID: b.ID, Status: strPtr(database.StatusPassive)}))

	ids, err := s.UserIDsByStatus(ctx, database.StatusPassive)
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID}, ids)

	batch, err := s.AdditionalDataFor(ctx, []uint{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, batch, 2)
}

func TestStore_UpdateUser(t *testing.T) {
	s := New(dbtest.New(t))
	ctx := context.Background()
	u := seedUser(t, s, "1A", time.Now())

	require.NoError(t, s.UpdateUser(ctx, u.ID, map[string]any{"nombre": "Beatriz", "apellido2": nil}))
	got, err := s.FindUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Beatriz", got.FirstName)

	err = s.UpdateUser(ctx, u.ID+100, map[string]any{"nombre": "X"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DeleteUserCascades(t *testing.T) {
	s := New(dbtest.New(t))
	ctx := context.Background()
	u := seedUser(t, s, "1A", time.Now())

	require.NoError(t, s.InsertAdditionalData(ctx, &database.AdditionalData{UserID: u.ID}))
	require.NoError(t, s.InsertWorkExperience(ctx, &database.WorkExperience{UserID: u.ID, Duration: strPtr("2 años")}))
	require.NoError(t, s.InsertLanguageSkill(ctx, &database.LanguageSkill{UserID: u.ID, Language: "Inglés"}))
	att := database.NewAttachment(u.ID, database.AttachmentCV, database.CategoryDocument, "http://minio/formularios/uploads/a.pdf")
	require.NoError(t, s.InsertAttachment(ctx, &att))

	require.NoError(t, s.DeleteUser(ctx, u.ID))

	ad, err := s.FindAdditionalData(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, ad)
	work, err := s.ListWorkExperience(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, work)
	langs, err := s.ListLanguageSkills(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, langs)
	files, err := s.ListAttachments(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, files)

	assert.ErrorIs(t, s.DeleteUser(ctx, u.ID), ErrNotFound)
}

func TestStore_InsertDependentWithoutUserFails(t *testing.T) {
	s := New(dbtest.New(t))

	err := s.InsertWorkExperience(context.Background(), &database.WorkExperience{UserID: 999})
	assert.Error(t, err)
}
