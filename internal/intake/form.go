package intake

import (
	"net/url"
	"strings"
	"time"

	"gorm.io/datatypes"
)

const dateLayout = "2006-01-02"

// Form 是一次提交的扁平字段集合：字段名 → 值。缺失字段等同于空字符串。
type Form map[string]string

// FormFromValues keeps the first value of every key, matching how a browser
// form posts a single value per named input.
func FormFromValues(values url.Values) Form {
	f := make(Form, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			f[key] = vals[0]
		}
	}
	return f
}

// Text returns the trimmed value of key.
func (f Form) Text(key string) string {
	return strings.TrimSpace(f[key])
}

// Optional returns nil for an empty value.
func (f Form) Optional(key string) *string {
	v := f.Text(key)
	if v == "" {
		return nil
	}
	return &v
}

// Bool reports whether a checkbox or si/no radio is set.
func (f Form) Bool(key string) bool {
	return truthy(f.Text(key))
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "on", "si", "sí":
		return true
	default:
		return false
	}
}

// Date parses an optional YYYY-MM-DD value. Empty yields (nil, nil).
func (f Form) Date(key string) (*datatypes.Date, error) {
	v := f.Text(key)
	if v == "" {
		return nil, nil
	}
	d, err := parseDate(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseDate(v string) (datatypes.Date, error) {
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return datatypes.Date{}, err
	}
	return datatypes.Date(t), nil
}

// collect returns the non-empty values of prefix1..prefixN in slot order.
func (f Form) collect(prefix string, n int) []string {
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if v := f.Text(slotKey(prefix, i, "")); v != "" {
			out = append(out, v)
		}
	}
	return out
}
