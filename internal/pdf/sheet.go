package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"gorm.io/datatypes"

	"caseintake/internal/admin"
)

// sheetTemplate 是一页 A4 的用户档案。所有值经 html/template 转义。
const sheetTemplate = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="UTF-8">
<title>Ficha {{.User.NIF}}</title>
<style>
  @page { size: A4; margin: 16mm; }
  body { font-family: sans-serif; font-size: 10pt; color: #222; }
  h1 { font-size: 16pt; margin: 0 0 4mm; }
  h2 { font-size: 11pt; border-bottom: 1px solid #999; margin: 6mm 0 2mm; }
  table { width: 100%; border-collapse: collapse; }
  th { text-align: left; width: 35%; font-weight: 600; padding: 1mm 0; }
  td { padding: 1mm 0; }
  .muted { color: #888; }
</style>
</head>
<body>
<h1>{{.User.FirstName}} {{.User.FirstSurname}}{{with .User.SecondSurname}} {{.}}{{end}}</h1>
<p class="muted">Generado {{.Generated}}</p>

<h2>Datos personales</h2>
<table>
  <tr><th>NIF</th><td>{{.User.NIF}}</td></tr>
  <tr><th>Email</th><td>{{.User.Email}}</td></tr>
  {{range .Phones}}<tr><th>Teléfono</th><td>{{if .E164}}{{.E164}}{{else}}{{.Raw}}{{end}}</td></tr>{{end}}
  <tr><th>Fecha nacimiento</th><td>{{date .User.BirthDate}}</td></tr>
  <tr><th>Dirección</th><td>{{opt .User.Address}} {{opt .User.PostalCode}} {{opt .User.City}}</td></tr>
  <tr><th>Nivel académico</th><td>{{opt .User.AcademicLevel}}</td></tr>
  <tr><th>Fecha alta</th><td>{{day .User.IntakeDate}}</td></tr>
</table>

{{with .AdditionalData}}
<h2>Datos adicionales</h2>
<table>
  <tr><th>Estado</th><td>{{opt .Status}}</td></tr>
  <tr><th>Nacionalidad</th><td>{{opt .Nationality}}</td></tr>
  <tr><th>Permiso de trabajo</th><td>{{opt .WorkPermit}}</td></tr>
  <tr><th>Actuaciones</th><td>{{join .Actions}}</td></tr>
</table>
{{end}}

{{with .HiringPreferences}}
<h2>Preferencias de contratación</h2>
<table>
  <tr><th>Intereses</th><td>{{opt .Interests}}</td></tr>
  <tr><th>Tipo de contrato</th><td>{{opt .ContractType}}</td></tr>
  <tr><th>Jornada</th><td>{{opt .ShiftType}}</td></tr>
  <tr><th>Ocupación</th><td>{{opt .TargetOccupation}}</td></tr>
</table>
{{end}}

{{with .Licenses}}
<h2>Carnets y vehículos</h2>
<table>
  <tr><th>Carnets</th><td>{{join .DrivingLicenses}}</td></tr>
  <tr><th>Carnets profesionales</th><td>{{join .ProfessionalLicenses}}</td></tr>
  <tr><th>Vehículo</th><td>{{if .HasVehicle}}{{opt .Vehicle}}{{else}}No{{end}}</td></tr>
</table>
{{end}}

{{if .WorkExperience}}
<h2>Experiencia laboral</h2>
<table>{{range .WorkExperience}}<tr><th>{{opt .Duration}}</th><td>{{opt .Occupation}}</td></tr>{{end}}</table>
{{end}}

{{if .Education}}
<h2>Formación</h2>
<table>{{range .Education}}<tr><th>{{opt .CompletionYear}}</th><td>{{opt .Qualification}}</td></tr>{{end}}</table>
{{end}}

{{if .Languages}}
<h2>Idiomas</h2>
<table>{{range .Languages}}<tr><th>{{.Language}}</th><td>{{opt .Level}}{{if .Homologated}} (homologado){{end}}</td></tr>{{end}}</table>
{{end}}
</body>
</html>`

var sheet = template.Must(template.New("sheet").Funcs(template.FuncMap{
	"opt": func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	},
	"date": func(d *datatypes.Date) string {
		if d == nil {
			return ""
		}
		return time.Time(*d).Format("02/01/2006")
	},
	"day": func(d datatypes.Date) string {
		return time.Time(d).Format("02/01/2006")
	},
	"join": func(items datatypes.JSONSlice[string]) string {
		return strings.Join(items, ", ")
	},
}).Parse(sheetTemplate))

type sheetData struct {
	*admin.Detail
	Generated string
}

// RenderSheetHTML renders the printable sheet of one user.
func RenderSheetHTML(d *admin.Detail, generatedAt time.Time) (string, error) {
	var buf bytes.Buffer
	if err := sheet.Execute(&buf, sheetData{Detail: d, Generated: generatedAt.Format("02/01/2006 15:04")}); err != nil {
		return "", fmt.Errorf("render sheet: %w", err)
	}
	return buf.String(), nil
}
