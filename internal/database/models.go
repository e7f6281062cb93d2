package database

import (
	"time"

	"gorm.io/datatypes"
)

// Status values stored in datos_adicionales.estado.
const (
	StatusActive  = "activo"
	StatusPassive = "pasivo"
)

// Attachment kinds and categories as recorded in archivos.
const (
	AttachmentPhoto    = "foto"
	AttachmentCV       = "cv"
	AttachmentConsent  = "consentimiento"
	CategoryImage      = "imagen"
	CategoryDocument   = "documento"
	attachmentSizeNone = 0
)

// User 是一份登记的核心记录（身份、联系方式与登记元数据）。
// Optional columns are pointers: nil is stored as NULL.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	NIF              string          `gorm:"column:nif;size:32;not null" json:"nif"`
	FirstName        string          `gorm:"column:nombre;size:128;not null" json:"nombre"`
	FirstSurname     string          `gorm:"column:apellido1;size:128;not null" json:"apellido1"`
	SecondSurname    *string         `gorm:"column:apellido2;size:128" json:"apellido2"`
	Sex              *string         `gorm:"column:sexo;size:32" json:"sexo"`
	BirthDate        *datatypes.Date `gorm:"column:fecha_nacimiento" json:"fecha_nacimiento"`
	Address          *string         `gorm:"column:direccion;size:255" json:"direccion"`
	City             *string         `gorm:"column:poblacion;size:128" json:"poblacion"`
	PostalCode       *string         `gorm:"column:cp;size:16" json:"cp"`
	Province         *string         `gorm:"column:provincia;size:128" json:"provincia"`
	Country          *string         `gorm:"column:pais;size:128" json:"pais"`
	Phone1           *string         `gorm:"column:telefono1;size:32" json:"telefono1"`
	Phone2           *string         `gorm:"column:telefono2;size:32" json:"telefono2"`
	Email            string          `gorm:"column:email;size:255;not null" json:"email"`
	PreferredArea    bool            `gorm:"column:barrio_preferente;not null;default:false" json:"barrio_preferente"`
	SpecificArea     *string         `gorm:"column:barrio_especifico;size:255" json:"barrio_especifico"`
	AcademicLevel    *string         `gorm:"column:nivel_academico;size:64" json:"nivel_academico"`
	PhotoURL         *string         `gorm:"column:foto_url;size:1024" json:"foto_url"`
	IntakeDate       datatypes.Date  `gorm:"column:fecha_alta;not null" json:"fecha_alta"`
	IntakeEntity     *string         `gorm:"column:entidad_alta;size:255" json:"entidad_alta"`
	IntakeResource   *string         `gorm:"column:recurso_alta;size:255" json:"recurso_alta"`
	ReferralDate     *datatypes.Date `gorm:"column:fecha_derivacion" json:"fecha_derivacion"`
	ReferralEntity   *string         `gorm:"column:entidad_derivacion;size:255" json:"entidad_derivacion"`
	ReferralResource *string         `gorm:"column:recurso_derivacion;size:255" json:"recurso_derivacion"`
	ReviewState      *string         `gorm:"column:estado_revision;size:64" json:"estado_revision"`
	LastReviewDate   *datatypes.Date `gorm:"column:fecha_ultima_revision" json:"fecha_ultima_revision"`
	NextReviewDate   *datatypes.Date `gorm:"column:fecha_proxima_revision" json:"fecha_proxima_revision"`
}

func (User) TableName() string { return "usuarios" }

// AdditionalData 与 User 一对一，可缺失。
type AdditionalData struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"column:usuario_id;uniqueIndex;not null" json:"usuario_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	ResidencyDate     *datatypes.Date             `gorm:"column:fecha_padronamiento" json:"fecha_padronamiento"`
	Nationality       *string                     `gorm:"column:nacionalidad;size:128" json:"nacionalidad"`
	WorkPermit        *string                     `gorm:"column:permiso_trabajo;size:128" json:"permiso_trabajo"`
	WorkPermitDate    *datatypes.Date             `gorm:"column:fecha_permiso" json:"fecha_permiso"`
	Training          *string                     `gorm:"column:formacion;type:text" json:"formacion"`
	Languages         *string                     `gorm:"column:idiomas;type:text" json:"idiomas"`
	Computing         *string                     `gorm:"column:informatica;type:text" json:"informatica"`
	Licenses          *string                     `gorm:"column:carnets;type:text" json:"carnets"`
	WorkHistory       *string                     `gorm:"column:experiencia_laboral;type:text" json:"experiencia_laboral"`
	EnrollmentDate    *datatypes.Date             `gorm:"column:fecha_inscripcion" json:"fecha_inscripcion"`
	RenewalDate       *datatypes.Date             `gorm:"column:fecha_renovacion" json:"fecha_renovacion"`
	Status            *string                     `gorm:"column:estado;size:16;index" json:"estado"`
	Actions           datatypes.JSONSlice[string] `gorm:"column:actuaciones" json:"actuaciones"`
	OtherActionsNotes *string                     `gorm:"column:anotaciones_otros;type:text" json:"anotaciones_otros"`
	CVURL             *string                     `gorm:"column:cv_url;size:1024" json:"cv_url"`
	ConsentURL        *string                     `gorm:"column:consentimiento_url;size:1024" json:"consentimiento_url"`
	Notes             *string                     `gorm:"column:anotaciones;type:text" json:"anotaciones"`
}

func (AdditionalData) TableName() string { return "datos_adicionales" }

// HiringPreferences 与 User 一对一，可缺失。
type HiringPreferences struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"column:usuario_id;uniqueIndex;not null" json:"usuario_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	Interests            *string         `gorm:"column:intereses;type:text" json:"intereses"`
	ContractType         *string         `gorm:"column:tipo_contrato;size:64" json:"tipo_contrato"`
	ShiftType            *string         `gorm:"column:tipo_jornada;size:64" json:"tipo_jornada"`
	GeographicAvailable  *string         `gorm:"column:disp_geografica;size:128" json:"disp_geografica"`
	TravelAvailable      *string         `gorm:"column:disp_viajar;size:16" json:"disp_viajar"`
	TargetOccupation     *string         `gorm:"column:ocupacion_especifica;size:255" json:"ocupacion_especifica"`
	SalaryGoal           *string         `gorm:"column:objetivo_salarial;size:64" json:"objetivo_salarial"`
	ProfessionalProfile1 *string         `gorm:"column:perfil_profesional1;size:255" json:"perfil_profesional1"`
	ProfessionalProfile2 *string         `gorm:"column:perfil_profesional2;size:255" json:"perfil_profesional2"`
	ProfessionalProfile3 *string         `gorm:"column:perfil_profesional3;size:255" json:"perfil_profesional3"`
	JobRequestDate       *datatypes.Date `gorm:"column:fecha_demanda_empleo" json:"fecha_demanda_empleo"`
}

func (HiringPreferences) TableName() string { return "preferencias_contratacion" }

// LicensesAndVehicles 与 User 一对一，可缺失。
type LicensesAndVehicles struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"column:usuario_id;uniqueIndex;not null" json:"usuario_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	DrivingLicenses      datatypes.JSONSlice[string] `gorm:"column:carnets" json:"carnets"`
	HasVehicle           bool                        `gorm:"column:dispone_vehiculo;not null;default:false" json:"dispone_vehiculo"`
	Vehicle              *string                     `gorm:"column:vehiculo;size:255" json:"vehiculo"`
	HasSecondVehicle     bool                        `gorm:"column:dispone_vehiculo2;not null;default:false" json:"dispone_vehiculo2"`
	SecondVehicle        *string                     `gorm:"column:vehiculo2;size:255" json:"vehiculo2"`
	ProfessionalLicenses datatypes.JSONSlice[string] `gorm:"column:carnets_profesionales" json:"carnets_profesionales"`
}

func (LicensesAndVehicles) TableName() string { return "carnets_vehiculos" }

// WorkExperience 是一条工作经历（一个 slot）。
type WorkExperience struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"column:usuario_id;index;not null" json:"usuario_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	Duration   *string `gorm:"column:duracion;size:128" json:"duracion"`
	Occupation *string `gorm:"column:ocupacion;size:255" json:"ocupacion"`
}

func (WorkExperience) TableName() string { return "experiencias_laborales" }

// EducationExperience 是一条学历记录（一个 slot）。
type EducationExperience struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"column:usuario_id;index;not null" json:"usuario_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	CompletionYear *string `gorm:"column:anio_finalizacion;size:16" json:"anio_finalizacion"`
	Qualification  *string `gorm:"column:titulacion;size:255" json:"titulacion"`
}

func (EducationExperience) TableName() string { return "experiencias_formativas" }

// LanguageSkill 是一条语言能力记录。
type LanguageSkill struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"column:usuario_id;index;not null" json:"usuario_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	Language    string  `gorm:"column:idioma;size:64;not null" json:"idioma"`
	Level       *string `gorm:"column:nivel;size:32" json:"nivel"`
	Homologated bool    `gorm:"column:homologado;not null;default:false" json:"homologado"`
}

func (LanguageSkill) TableName() string { return "idiomas_usuario" }

// Attachment 记录一份上传文件的存储地址。
// Size is always 0: uploads only hand back a public URL.
type Attachment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"column:usuario_id;index;not null" json:"usuario_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	Kind     string `gorm:"column:nombre_archivo;size:64;not null" json:"nombre_archivo"`
	Category string `gorm:"column:tipo_archivo;size:32;not null" json:"tipo_archivo"`
	URL      string `gorm:"column:url;size:1024;not null" json:"url"`
	Size     int64  `gorm:"column:tamano;not null;default:0" json:"tamano"`
}

func (Attachment) TableName() string { return "archivos" }

// NewAttachment builds an attachment row with the size placeholder.
func NewAttachment(userID uint, kind, category, url string) Attachment {
	return Attachment{UserID: userID, Kind: kind, Category: category, URL: url, Size: attachmentSizeNone}
}

// Operator 表示可以登录管理面板的账号。
type Operator struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Username     string    `gorm:"uniqueIndex;size:64" json:"username"`
	PasswordHash string    `gorm:"size:255" json:"-"`
}

func (Operator) TableName() string { return "operadores" }
