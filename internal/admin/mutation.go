package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	"caseintake/internal/database"
	"caseintake/internal/store"
)

// EditForm carries the editable columns of a user, its additional data and
// its hiring preferences. Empty strings clear optional columns.
type EditForm struct {
	NIF           string `json:"nif"`
	FirstName     string `json:"nombre"`
	FirstSurname  string `json:"apellido1"`
	SecondSurname string `json:"apellido2"`
	Sex           string `json:"sexo"`
	BirthDate     string `json:"fecha_nacimiento"`
	Address       string `json:"direccion"`
	City          string `json:"poblacion"`
	PostalCode    string `json:"cp"`
	Province      string `json:"provincia"`
	Country       string `json:"pais"`
	Phone1        string `json:"telefono1"`
	Phone2        string `json:"telefono2"`
	Email         string `json:"email"`
	PreferredArea bool   `json:"barrio_preferente"`
	SpecificArea  string `json:"barrio_especifico"`
	AcademicLevel string `json:"nivel_academico"`

	ResidencyDate  string `json:"fecha_padronamiento"`
	Nationality    string `json:"nacionalidad"`
	WorkPermit     string `json:"permiso_trabajo"`
	WorkPermitDate string `json:"fecha_permiso"`
	Status         string `json:"estado"`

	Interests           string `json:"intereses"`
	ContractType        string `json:"tipo_contrato"`
	ShiftType           string `json:"tipo_jornada"`
	GeographicAvailable string `json:"disp_geografica"`
	TravelAvailable     string `json:"disp_viajar"`
	TargetOccupation    string `json:"ocupacion_especifica"`
	SalaryGoal          string `json:"objetivo_salarial"`
}

// FormFromDetail pre-fills an EditForm with the current values.
func FormFromDetail(d *Detail) EditForm {
	u := d.User
	f := EditForm{
		NIF:           u.NIF,
		FirstName:     u.FirstName,
		FirstSurname:  u.FirstSurname,
		SecondSurname: deref(u.SecondSurname),
		Sex:           deref(u.Sex),
		BirthDate:     formatDate(u.BirthDate),
		Address:       deref(u.Address),
		City:          deref(u.City),
		PostalCode:    deref(u.PostalCode),
		Province:      deref(u.Province),
		Country:       deref(u.Country),
		Phone1:        deref(u.Phone1),
		Phone2:        deref(u.Phone2),
		Email:         u.Email,
		PreferredArea: u.PreferredArea,
		SpecificArea:  deref(u.SpecificArea),
		AcademicLevel: deref(u.AcademicLevel),
	}
	if ad := d.AdditionalData; ad != nil {
		f.ResidencyDate = formatDate(ad.ResidencyDate)
		f.Nationality = deref(ad.Nationality)
		f.WorkPermit = deref(ad.WorkPermit)
		f.WorkPermitDate = formatDate(ad.WorkPermitDate)
		f.Status = deref(ad.Status)
	}
	if p := d.HiringPreferences; p != nil {
		f.Interests = deref(p.Interests)
		f.ContractType = deref(p.ContractType)
		f.ShiftType = deref(p.ShiftType)
		f.GeographicAvailable = deref(p.GeographicAvailable)
		f.TravelAvailable = deref(p.TravelAvailable)
		f.TargetOccupation = deref(p.TargetOccupation)
		f.SalaryGoal = deref(p.SalaryGoal)
	}
	return f
}

func formatDate(d *datatypes.Date) string {
	if d == nil {
		return ""
	}
	return time.Time(*d).Format("2006-01-02")
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// nullable turns an optional pointer into a map value gorm writes as NULL.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

type editDates struct {
	birth, residency, permit *datatypes.Date
}

func (f EditForm) parseDates() (editDates, error) {
	var (
		out     editDates
		invalid []string
	)
	for _, d := range []struct {
		name string
		raw  string
		dst  **datatypes.Date
	}{
		{"fecha_nacimiento", f.BirthDate, &out.birth},
		{"fecha_padronamiento", f.ResidencyDate, &out.residency},
		{"fecha_permiso", f.WorkPermitDate, &out.permit},
	} {
		raw := strings.TrimSpace(d.raw)
		if raw == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			invalid = append(invalid, d.name)
			continue
		}
		v := datatypes.Date(t)
		*d.dst = &v
	}
	if len(invalid) > 0 {
		return out, fmt.Errorf("%w: bad date in %s", ErrInvalidInput, strings.Join(invalid, ", "))
	}
	return out, nil
}

func (f EditForm) userPatch(dates editDates) map[string]any {
	return map[string]any{
		"nif":               strings.TrimSpace(f.NIF),
		"nombre":            strings.TrimSpace(f.FirstName),
		"apellido1":         strings.TrimSpace(f.FirstSurname),
		"apellido2":         nullable(optional(f.SecondSurname)),
		"sexo":              nullable(optional(f.Sex)),
		"fecha_nacimiento":  nullable(dates.birth),
		"direccion":         nullable(optional(f.Address)),
		"poblacion":         nullable(optional(f.City)),
		"cp":                nullable(optional(f.PostalCode)),
		"provincia":         nullable(optional(f.Province)),
		"pais":              nullable(optional(f.Country)),
		"telefono1":         nullable(optional(f.Phone1)),
		"telefono2":         nullable(optional(f.Phone2)),
		"email":             strings.TrimSpace(f.Email),
		"barrio_preferente": f.PreferredArea,
		"barrio_especifico": nullable(optional(f.SpecificArea)),
		"nivel_academico":   nullable(optional(f.AcademicLevel)),
	}
}

func (f EditForm) additionalData(userID uint, dates editDates) database.AdditionalData {
	return database.AdditionalData{
		UserID:         userID,
		ResidencyDate:  dates.residency,
		Nationality:    optional(f.Nationality),
		WorkPermit:     optional(f.WorkPermit),
		WorkPermitDate: dates.permit,
		Status:         optional(f.Status),
	}
}

func (f EditForm) additionalDataPatch(dates editDates) map[string]any {
	return map[string]any{
		"fecha_padronamiento": nullable(dates.residency),
		"nacionalidad":        nullable(optional(f.Nationality)),
		"permiso_trabajo":     nullable(optional(f.WorkPermit)),
		"fecha_permiso":       nullable(dates.permit),
		"estado":              nullable(optional(f.Status)),
	}
}

func (f EditForm) hiringPreferences(userID uint) database.HiringPreferences {
	return database.HiringPreferences{
		UserID:              userID,
		Interests:           optional(f.Interests),
		ContractType:        optional(f.ContractType),
		ShiftType:           optional(f.ShiftType),
		GeographicAvailable: optional(f.GeographicAvailable),
		TravelAvailable:     optional(f.TravelAvailable),
		TargetOccupation:    optional(f.TargetOccupation),
		SalaryGoal:          optional(f.SalaryGoal),
	}
}

func (f EditForm) hiringPreferencesPatch() map[string]any {
	return map[string]any{
		"intereses":            nullable(optional(f.Interests)),
		"tipo_contrato":        nullable(optional(f.ContractType)),
		"tipo_jornada":         nullable(optional(f.ShiftType)),
		"disp_geografica":      nullable(optional(f.GeographicAvailable)),
		"disp_viajar":          nullable(optional(f.TravelAvailable)),
		"ocupacion_especifica": nullable(optional(f.TargetOccupation)),
		"objetivo_salarial":    nullable(optional(f.SalaryGoal)),
	}
}

// Edit updates the user row and upserts its additional data and hiring
// preferences. Only the user update is reported; the one-to-one writes are
// logged on failure and never create a second row for the same user.
func (s *Service) Edit(ctx context.Context, id uint, form EditForm) error {
	dates, err := form.parseDates()
	if err != nil {
		return err
	}

	if err := s.store.UpdateUser(ctx, id, form.userPatch(dates)); err != nil {
		return fmt.Errorf("update user %d: %w", id, err)
	}

	log := s.logger.With("user_id", id)

	existing, err := s.store.FindAdditionalData(ctx, id)
	switch {
	case err != nil:
		log.Error("load additional data failed", "error", err)
	case existing != nil:
		if err := s.store.UpdateAdditionalData(ctx, existing.ID, form.additionalDataPatch(dates)); err != nil {
			log.Error("update additional data failed", "entity", store.EntityAdditionalData, "error", err)
		}
	default:
		row := form.additionalData(id, dates)
		if err := s.store.InsertAdditionalData(ctx, &row); err != nil {
			log.Error("insert additional data failed", "entity", store.EntityAdditionalData, "error", err)
		}
	}

	prefs, err := s.store.FindHiringPreferences(ctx, id)
	switch {
	case err != nil:
		log.Error("load hiring preferences failed", "error", err)
	case prefs != nil:
		if err := s.store.UpdateHiringPreferences(ctx, prefs.ID, form.hiringPreferencesPatch()); err != nil {
			log.Error("update hiring preferences failed", "entity", store.EntityHiringPreferences, "error", err)
		}
	default:
		row := form.hiringPreferences(id)
		if err := s.store.InsertHiringPreferences(ctx, &row); err != nil {
			log.Error("insert hiring preferences failed", "entity", store.EntityHiringPreferences, "error", err)
		}
	}

	return nil
}

// Delete removes the user; dependents go with it through the cascade.
func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	s.logger.Info("user deleted", "user_id", id)
	return nil
}
