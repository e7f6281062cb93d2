package pdf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"caseintake/internal/admin"
	"caseintake/internal/database"
)

func TestRenderSheetHTML(t *testing.T) {
	level := "B2"
	status := database.StatusActive
	d := &admin.Detail{
		User: database.User{
			NIF:          "12345678A",
			FirstName:    "Ana",
			FirstSurname: `<García>`,
			Email:        "ana@example.org",
			IntakeDate:   datatypes.Date(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
		},
		AdditionalData: &database.AdditionalData{
			Status:  &status,
			Actions: datatypes.JSONSlice[string]{"Elaboración de CV", "Derivaciones"},
		},
		Languages: []database.LanguageSkill{{Language: "Inglés", Level: &level, Homologated: true}},
		Phones:    []admin.Phone{{Field: "telefono1", Raw: "612345678", E164: "+34612345678"}},
	}

	html, err := RenderSheetHTML(d, time.Date(2025, 1, 2, 10, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Contains(t, html, "&lt;García&gt;")
	assert.NotContains(t, html, "<García>")
	assert.Contains(t, html, "01/03/2024")
	assert.Contains(t, html, "Elaboración de CV, Derivaciones")
	// html/template 会把 "+" 转义为 &#43;
	assert.Contains(t, html, "&#43;34612345678")
	assert.Contains(t, html, "B2 (homologado)")
	assert.Contains(t, html, "Generado 02/01/2025 10:30")
	assert.NotContains(t, html, "Preferencias de contratación")
}
