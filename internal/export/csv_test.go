package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/datatypes"

	"caseintake/internal/admin"
	"caseintake/internal/database"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCSV_QuotesAndDoublesQuotes(t *testing.T) {
	out, err := CSV([]Record{{Text("NIF", "12345678A"), Text("Nombre", `Ana "A"`)}})
	require.NoError(t, err)
	assert.Equal(t, "NIF,Nombre\n12345678A,\"Ana \"\"A\"\"\"", out)
}

func TestCSV_NilCommasAndNewlines(t *testing.T) {
	out, err := CSV([]Record{
		{Text("a", "x,y"), {Name: "b"}},
		{Text("a", "line1\nline2"), Text("b", "plain")},
	})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n\"x,y\",\n\"line1\nline2\",plain", out)
}

func TestCSV_Empty(t *testing.T) {
	out, err := CSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestCSV_RaggedRecord(t *testing.T) {
	_, err := CSV([]Record{{Text("a", "1")}, {Text("a", "1"), Text("b", "2")}})
	assert.Error(t, err)
}

func TestCSV_Stable(t *testing.T) {
	recs := []Record{{Text("k", "v")}, {Text("k", "w")}}
	first, err := CSV(recs)
	require.NoError(t, err)
	second, err := CSV(recs)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSummaryRecords(t *testing.T) {
	active := database.StatusActive
	city := "Huesca"
	list := admin.Summaries{
		{
			User: database.User{
				ID: 7, NIF: "1A", FirstName: "Ana", FirstSurname: "García", Email: "a@x.es", City: &city,
				IntakeDate: datatypes.Date(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
			},
			AdditionalData: &database.AdditionalData{Status: &active},
		},
		{
			User: database.User{
				ID: 8, NIF: "2B", FirstName: "Luis", FirstSurname: "Pérez", Email: "l@x.es",
				IntakeDate: datatypes.Date(time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)),
			},
		},
	}

	out, err := CSV(SummaryRecords(list))
	require.NoError(t, err)
	want := "ID,NIF,Nombre,Primer Apellido,Segundo Apellido,Email,Teléfono,Población,Fecha Alta,Estado\n" +
		"7,1A,Ana,García,,a@x.es,,Huesca,2024-03-01,activo\n" +
		"8,2B,Luis,Pérez,,l@x.es,,,2024-04-02,No especificado"
	assert.Equal(t, want, out)
}

func TestFilename(t *testing.T) {
	ts := time.Date(2025, 1, 9, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "usuarios_2025-01-09.csv", Filename(DefaultPrefix, ts))
}
