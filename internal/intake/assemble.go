package intake

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/datatypes"

	"caseintake/internal/database"
	"caseintake/internal/store"
)

// Slot counts exposed by the intake form.
const (
	workExperienceSlots = 4
	educationSlots      = 3
	languageSlots       = 4
	drivingLicenseSlots = 10
	proLicenseSlots     = 5
)

// requiredFields lists the form keys without which nothing is written.
var requiredFields = []string{"nif", "nombre", "apellido1", "email", "fecha-alta"}

// Actions offered as checkboxes, in display order.
var actionCheckboxes = []struct {
	key   string
	label string
}{
	{"actuacion-cv", "Elaboración de CV"},
	{"actuacion-formacion", "Facilitar acciones formativas"},
	{"actuacion-derivaciones", "Derivaciones"},
	{"actuacion-otros", "Otros"},
}

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidDate marks an entity whose date fields could not be parsed.
	ErrInvalidDate = errors.New("invalid date")
)

// ValidationError 描述提交在写入前被拒绝的原因：只有必填字段缺失会拒绝整个提交。
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "validation failed: missing " + strings.Join(e.Missing, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Submission is the normalized write plan of one form. Dependent rows carry
// UserID 0 until the writer knows the new user's id.
type Submission struct {
	User              database.User
	AdditionalData    database.AdditionalData
	HiringPreferences database.HiringPreferences
	Licenses          database.LicensesAndVehicles
	WorkExperience    []database.WorkExperience
	Education         []database.EducationExperience
	Languages         []database.LanguageSkill
	Attachments       []database.Attachment

	// InvalidDates 按实体记录无法解析的日期字段；对应实体的写入会失败。
	InvalidDates map[string][]string
}

// dateReader collects unparsable dates per owning entity.
type dateReader struct {
	form    Form
	invalid map[string][]string
}

func (r *dateReader) optional(entity, key string) *datatypes.Date {
	d, err := r.form.Date(key)
	if err != nil {
		r.reject(entity, key)
		return nil
	}
	return d
}

func (r *dateReader) reject(entity, key string) {
	if r.invalid == nil {
		r.invalid = make(map[string][]string)
	}
	r.invalid[entity] = append(r.invalid[entity], key)
}

// dateError reports the bad dates of one entity, or nil.
func (s *Submission) dateError(entity string) error {
	keys := s.InvalidDates[entity]
	if len(keys) == 0 {
		return nil
	}
	return fmt.Errorf("%w in %s", ErrInvalidDate, strings.Join(keys, ", "))
}

// Assemble validates the required fields and maps the form onto the entity
// set. Bad dates do not fail assembly; they are kept in InvalidDates so the
// writer fails only the entity that owns them. It performs no I/O.
func Assemble(f Form) (*Submission, error) {
	var missing []string
	for _, key := range requiredFields {
		if f.Text(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	dates := &dateReader{form: f}
	intakeDate, err := parseDate(f.Text("fecha-alta"))
	if err != nil {
		dates.reject(store.EntityUser, "fecha-alta")
	}

	sub := &Submission{
		User: database.User{
			NIF:              f.Text("nif"),
			FirstName:        f.Text("nombre"),
			FirstSurname:     f.Text("apellido1"),
			SecondSurname:    f.Optional("apellido2"),
			Sex:              f.Optional("sexo"),
			BirthDate:        dates.optional(store.EntityUser, "fecha-nacimiento"),
			Address:          f.Optional("direccion"),
			City:             f.Optional("poblacion"),
			PostalCode:       f.Optional("cp"),
			Province:         f.Optional("provincia"),
			Country:          f.Optional("pais"),
			Phone1:           f.Optional("telefono1"),
			Phone2:           f.Optional("telefono2"),
			Email:            f.Text("email"),
			PreferredArea:    f.Bool("barrio-preferente"),
			SpecificArea:     f.Optional("barrio-especifico"),
			AcademicLevel:    f.Optional("nivel-academico"),
			PhotoURL:         f.Optional("foto-url"),
			IntakeDate:       intakeDate,
			IntakeEntity:     f.Optional("entidad-alta"),
			IntakeResource:   f.Optional("recurso-alta"),
			ReferralDate:     dates.optional(store.EntityUser, "fecha-derivacion"),
			ReferralEntity:   f.Optional("entidad-derivacion"),
			ReferralResource: f.Optional("recurso-derivacion"),
			ReviewState:      f.Optional("estado-revision"),
			LastReviewDate:   dates.optional(store.EntityUser, "fecha-ultima-revision"),
			NextReviewDate:   dates.optional(store.EntityUser, "fecha-proxima-revision"),
		},
		AdditionalData: database.AdditionalData{
			ResidencyDate:     dates.optional(store.EntityAdditionalData, "fecha-padronamiento"),
			Nationality:       f.Optional("nacionalidad"),
			WorkPermit:        f.Optional("permiso-trabajo"),
			WorkPermitDate:    dates.optional(store.EntityAdditionalData, "fecha-permiso"),
			Training:          f.Optional("formacion"),
			Languages:         f.Optional("idiomas"),
			Computing:         f.Optional("informatica"),
			Licenses:          f.Optional("carnets"),
			WorkHistory:       f.Optional("experiencia-laboral"),
			EnrollmentDate:    dates.optional(store.EntityAdditionalData, "fecha-inscripcion"),
			RenewalDate:       dates.optional(store.EntityAdditionalData, "fecha-renovacion"),
			Status:            f.Optional("estado"),
			Actions:           actions(f),
			OtherActionsNotes: f.Optional("anotaciones-otros"),
			CVURL:             f.Optional("cv-url"),
			ConsentURL:        f.Optional("consentimiento-url"),
			Notes:             f.Optional("anotaciones"),
		},
		HiringPreferences: database.HiringPreferences{
			Interests:            f.Optional("intereses"),
			ContractType:         f.Optional("tipo-contrato"),
			ShiftType:            f.Optional("tipo-jornada"),
			GeographicAvailable:  f.Optional("disp-geografica"),
			TravelAvailable:      f.Optional("disp-viajar"),
			TargetOccupation:     f.Optional("ocupacion-especifica"),
			SalaryGoal:           f.Optional("objetivo-salarial"),
			ProfessionalProfile1: f.Optional("perfil-profesional1"),
			ProfessionalProfile2: f.Optional("perfil-profesional2"),
			ProfessionalProfile3: f.Optional("perfil-profesional3"),
			JobRequestDate:       dates.optional(store.EntityHiringPreferences, "fecha-demanda-empleo"),
		},
		Licenses: database.LicensesAndVehicles{
			DrivingLicenses:      datatypes.JSONSlice[string](f.collect("carnet", drivingLicenseSlots)),
			HasVehicle:           f.Bool("dispone-vehiculo"),
			Vehicle:              f.Optional("vehiculo"),
			HasSecondVehicle:     f.Bool("dispone-vehiculo2"),
			SecondVehicle:        f.Optional("vehiculo2"),
			ProfessionalLicenses: datatypes.JSONSlice[string](f.collect("carnet-profesional", proLicenseSlots)),
		},
		WorkExperience: workExperience(f),
		Education:      education(f),
		Languages:      languages(f),
		Attachments:    attachments(f),
	}

	sub.InvalidDates = dates.invalid
	return sub, nil
}

func slotKey(prefix string, i int, suffix string) string {
	return prefix + strconv.Itoa(i) + suffix
}

func actions(f Form) datatypes.JSONSlice[string] {
	out := make([]string, 0, len(actionCheckboxes))
	for _, a := range actionCheckboxes {
		if f.Bool(a.key) {
			out = append(out, a.label)
		}
	}
	return datatypes.JSONSlice[string](out)
}

// workExperience 只保留至少一个子字段非空的 slot。
func workExperience(f Form) []database.WorkExperience {
	var out []database.WorkExperience
	for i := 1; i <= workExperienceSlots; i++ {
		duration := f.Optional(slotKey("experiencia", i, "-duracion"))
		occupation := f.Optional(slotKey("experiencia", i, "-ocupacion"))
		if duration == nil && occupation == nil {
			continue
		}
		out = append(out, database.WorkExperience{Duration: duration, Occupation: occupation})
	}
	return out
}

func education(f Form) []database.EducationExperience {
	var out []database.EducationExperience
	for i := 1; i <= educationSlots; i++ {
		year := f.Optional(slotKey("formacion-anio-", i, ""))
		title := f.Optional(slotKey("formacion-titulacion-", i, ""))
		if year == nil && title == nil {
			continue
		}
		out = append(out, database.EducationExperience{CompletionYear: year, Qualification: title})
	}
	return out
}

// languages 以语言名是否为空决定 slot 是否生效。
func languages(f Form) []database.LanguageSkill {
	var out []database.LanguageSkill
	for i := 1; i <= languageSlots; i++ {
		lang := f.Text(slotKey("idioma", i, ""))
		if lang == "" {
			continue
		}
		out = append(out, database.LanguageSkill{
			Language:    lang,
			Level:       f.Optional(slotKey("nivel", i, "")),
			Homologated: f.Bool(slotKey("homologado", i, "")),
		})
	}
	return out
}

func attachments(f Form) []database.Attachment {
	specs := []struct {
		key, kind, category string
	}{
		{"foto-url", database.AttachmentPhoto, database.CategoryImage},
		{"cv-url", database.AttachmentCV, database.CategoryDocument},
		{"consentimiento-url", database.AttachmentConsent, database.CategoryDocument},
	}
	var out []database.Attachment
	for _, s := range specs {
		if url := f.Text(s.key); url != "" {
			out = append(out, database.NewAttachment(0, s.kind, s.category, url))
		}
	}
	return out
}

// Bind sets the owning user id on every dependent row.
func (s *Submission) Bind(userID uint) {
	s.AdditionalData.UserID = userID
	s.HiringPreferences.UserID = userID
	s.Licenses.UserID = userID
	for i := range s.WorkExperience {
		s.WorkExperience[i].UserID = userID
	}
	for i := range s.Education {
		s.Education[i].UserID = userID
	}
	for i := range s.Languages {
		s.Languages[i].UserID = userID
	}
	for i := range s.Attachments {
		s.Attachments[i].UserID = userID
	}
}

// String is used in log lines; it never includes personal data beyond counts.
func (s *Submission) String() string {
	return fmt.Sprintf("submission(work=%d education=%d languages=%d attachments=%d)",
		len(s.WorkExperience), len(s.Education), len(s.Languages), len(s.Attachments))
}
