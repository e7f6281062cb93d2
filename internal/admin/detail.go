package admin

import (
	"context"
	"fmt"

	"github.com/nyaruka/phonenumbers"

	"caseintake/internal/database"
)

// Phone is a stored phone number plus its E.164 form when it parses.
type Phone struct {
	Field string `json:"campo"`
	Raw   string `json:"valor"`
	E164  string `json:"e164,omitempty"`
}

// Detail is the denormalized view of one user. The reads are independent,
// so a concurrent edit may be observed half-applied.
type Detail struct {
	User              database.User                  `json:"usuario"`
	AdditionalData    *database.AdditionalData       `json:"datos_adicionales"`
	HiringPreferences *database.HiringPreferences    `json:"preferencias_contratacion"`
	Licenses          *database.LicensesAndVehicles  `json:"carnets_vehiculos"`
	WorkExperience    []database.WorkExperience      `json:"experiencias_laborales"`
	Education         []database.EducationExperience `json:"experiencias_formativas"`
	Languages         []database.LanguageSkill       `json:"idiomas"`
	Attachments       []database.Attachment          `json:"archivos"`
	Phones            []Phone                        `json:"telefonos"`
}

// Detail loads the user and every dependent. A missing user yields ErrNotFound;
// missing one-to-one rows are left nil.
func (s *Service) Detail(ctx context.Context, id uint) (*Detail, error) {
	user, err := s.store.FindUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}

	d := &Detail{User: *user}
	if d.AdditionalData, err = s.store.FindAdditionalData(ctx, id); err != nil {
		return nil, fmt.Errorf("load additional data: %w", err)
	}
	if d.HiringPreferences, err = s.store.FindHiringPreferences(ctx, id); err != nil {
		return nil, fmt.Errorf("load hiring preferences: %w", err)
	}
	if d.Licenses, err = s.store.FindLicenses(ctx, id); err != nil {
		return nil, fmt.Errorf("load licenses: %w", err)
	}
	if d.WorkExperience, err = s.store.ListWorkExperience(ctx, id); err != nil {
		return nil, fmt.Errorf("load work experience: %w", err)
	}
	if d.Education, err = s.store.ListEducation(ctx, id); err != nil {
		return nil, fmt.Errorf("load education: %w", err)
	}
	if d.Languages, err = s.store.ListLanguageSkills(ctx, id); err != nil {
		return nil, fmt.Errorf("load languages: %w", err)
	}
	if d.Attachments, err = s.store.ListAttachments(ctx, id); err != nil {
		return nil, fmt.Errorf("load attachments: %w", err)
	}
	d.Phones = s.phones(user)
	return d, nil
}

func (s *Service) phones(u *database.User) []Phone {
	var out []Phone
	for _, p := range []struct {
		field string
		value *string
	}{{"telefono1", u.Phone1}, {"telefono2", u.Phone2}} {
		if p.value == nil || *p.value == "" {
			continue
		}
		out = append(out, Phone{Field: p.field, Raw: *p.value, E164: formatE164(*p.value, s.phoneRegion)})
	}
	return out
}

// formatE164 returns "" for anything that is not a valid number.
func formatE164(raw, region string) string {
	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return ""
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
