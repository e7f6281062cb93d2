package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"caseintake/internal/database"
	"caseintake/internal/database/dbtest"
	"caseintake/internal/store"
)

func strPtr(s string) *string { return &s }

type fixture struct {
	svc   *Service
	store *store.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	s := store.New(dbtest.New(t))
	return fixture{svc: NewService(s, nil), store: s}
}

func (f fixture) addUser(t *testing.T, nif, surname string, createdAt time.Time, status string) *database.User {
	t.Helper()
	ctx := context.Background()
	u := &database.User{
		CreatedAt:    createdAt,
		NIF:          nif,
		FirstName:    "Nombre",
		FirstSurname: surname,
		Email:        nif + "@example.org",
		IntakeDate:   datatypes.Date(createdAt),
	}
	require.NoError(t, f.store.InsertUser(ctx, u))
	if status != "" {
		require.NoError(t, f.store.InsertAdditionalData(ctx, &database.AdditionalData{UserID: u.ID, Status: strPtr(status)}))
	}
	return u
}

func ids(list Summaries) []uint {
	out := make([]uint, 0, len(list))
	for _, s := range list {
		out = append(out, s.ID)
	}
	return out
}

func TestList_Tabs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	a := f.addUser(t, "1A", "López", base, database.StatusActive)
	b := f.addUser(t, "2B", "Pérez", base.Add(time.Minute), database.StatusPassive)
	c := f.addUser(t, "3C", "Ruiz", base.Add(2*time.Minute), "")

	all, err := f.svc.List(ctx, TabAll)
	require.NoError(t, err)
	assert.Equal(t, []uint{c.ID, b.ID, a.ID}, ids(all))
	assert.Nil(t, all[0].AdditionalData)
	assert.Equal(t, database.StatusPassive, all[1].Status())

	active, err := f.svc.List(ctx, ParseTab("activos"))
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID}, ids(active))

	passive, err := f.svc.List(ctx, TabPassive)
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID}, ids(passive))
}

// statusOnlyStore fails the test if users are queried after an empty id lookup.
type statusOnlyStore struct {
	Store
	t *testing.T
}

func (s statusOnlyStore) UserIDsByStatus(context.Context, string) ([]uint, error) {
	return []uint{}, nil
}

func (s statusOnlyStore) ListUsers(context.Context, []uint) ([]database.User, error) {
	s.t.Fatal("users must not be queried when no id matches")
	return nil, nil
}

func TestList_EmptyStatusSkipsUserQuery(t *testing.T) {
	svc := NewService(statusOnlyStore{t: t}, nil)

	list, err := svc.List(context.Background(), TabActive)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSearch_CaseInsensitiveAccents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()
	garcia := f.addUser(t, "1A", "García", now, "")
	f.addUser(t, "2B", "Martín", now.Add(time.Second), "")

	got, err := f.svc.Search(ctx, TabAll, "garcía")
	require.NoError(t, err)
	assert.Equal(t, []uint{garcia.ID}, ids(got))

	got, err = f.svc.Search(ctx, TabAll, "  ")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFilter_Fields(t *testing.T) {
	list := Summaries{
		{User: database.User{ID: 1, NIF: "X1", City: strPtr("Zaragoza")}},
		{User: database.User{ID: 2, NIF: "Y2", SecondSurname: strPtr("Zamora")}},
		{User: database.User{ID: 3, NIF: "Z3", Email: "ana@example.org"}},
	}

	assert.Equal(t, []uint{1}, ids(list.Filter("ZARA")))
	assert.Equal(t, []uint{2}, ids(list.Filter("zamo")))
	assert.Equal(t, []uint{3}, ids(list.Filter("@example")))
	assert.Empty(t, list.Filter("nadie"))
}

func TestDelete_RemovesFromListingAndCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()
	keep := f.addUser(t, "1A", "Uno", now, database.StatusActive)
	gone := f.addUser(t, "2B", "Dos", now.Add(time.Second), database.StatusActive)
	require.NoError(t, f.store.InsertLanguageSkill(ctx, &database.LanguageSkill{UserID: gone.ID, Language: "Inglés"}))

	list, err := f.svc.List(ctx, TabAll)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, f.svc.Delete(ctx, gone.ID))
	assert.Equal(t, []uint{keep.ID}, ids(list.Remove(gone.ID)))

	fresh, err := f.svc.List(ctx, TabAll)
	require.NoError(t, err)
	assert.Equal(t, ids(fresh), ids(list.Remove(gone.ID)))

	_, err = f.svc.Detail(ctx, gone.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	langs, err := f.store.ListLanguageSkills(ctx, gone.ID)
	require.NoError(t, err)
	assert.Empty(t, langs)

	assert.ErrorIs(t, f.svc.Delete(ctx, gone.ID), ErrNotFound)
}

func TestDetail_AssemblesEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.addUser(t, "1A", "García", time.Now(), "")
	require.NoError(t, f.store.UpdateUser(ctx, u.ID, map[string]any{"telefono1": "612 34 56 78", "telefono2": "n/a"}))
	require.NoError(t, f.store.InsertWorkExperience(ctx, &database.WorkExperience{UserID: u.ID, Occupation: strPtr("Camarero")}))
	att := database.NewAttachment(u.ID, database.AttachmentPhoto, database.CategoryImage, "http://minio/formularios/uploads/a.png")
	require.NoError(t, f.store.InsertAttachment(ctx, &att))

	d, err := f.svc.Detail(ctx, u.ID)
	require.NoError(t, err)

	assert.Nil(t, d.AdditionalData)
	assert.Nil(t, d.HiringPreferences)
	assert.Nil(t, d.Licenses)
	require.Len(t, d.WorkExperience, 1)
	require.Len(t, d.Attachments, 1)
	assert.Equal(t, int64(0), d.Attachments[0].Size)
	assert.Empty(t, d.Education)

	want := []Phone{
		{Field: "telefono1", Raw: "612 34 56 78", E164: "+34612345678"},
		{Field: "telefono2", Raw: "n/a"},
	}
	if diff := cmp.Diff(want, d.Phones); diff != "" {
		t.Errorf("phones mismatch (-want +got):\n%s", diff)
	}
}

func TestEdit_InsertsThenUpdatesAdditionalData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.addUser(t, "1A", "García", time.Now(), "")

	d, err := f.svc.Detail(ctx, u.ID)
	require.NoError(t, err)
	form := FormFromDetail(d)
	form.Status = database.StatusActive
	form.Nationality = "Española"
	form.BirthDate = "1990-02-03"
	form.Interests = "Hostelería"

	require.NoError(t, f.svc.Edit(ctx, u.ID, form))

	ad, err := f.store.FindAdditionalData(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, ad)
	firstID := ad.ID
	assert.Equal(t, database.StatusActive, *ad.Status)

	form.Status = database.StatusPassive
	form.Nationality = ""
	require.NoError(t, f.svc.Edit(ctx, u.ID, form))

	rows, err := f.store.AdditionalDataFor(ctx, []uint{u.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, firstID, rows[0].ID)
	assert.Equal(t, database.StatusPassive, *rows[0].Status)
	assert.Nil(t, rows[0].Nationality)

	got, err := f.store.FindUser(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.BirthDate)
	assert.Equal(t, "1990-02-03", time.Time(*got.BirthDate).Format("2006-01-02"))

	prefs, err := f.store.FindHiringPreferences(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, prefs)
	assert.Equal(t, "Hostelería", *prefs.Interests)
}

func TestEdit_MissingUser(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Edit(context.Background(), 77, EditForm{NIF: "X"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEdit_InvalidDateRejectedBeforeWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.addUser(t, "1A", "García", time.Now(), "")

	err := f.svc.Edit(ctx, u.ID, EditForm{NIF: "CHANGED", WorkPermitDate: "mañana"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	got, err := f.store.FindUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "1A", got.NIF)
}
