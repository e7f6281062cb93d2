package admin

import (
	"context"
	"fmt"
	"strings"

	"caseintake/internal/database"
)

// Tab selects which users the listing shows.
type Tab string

const (
	TabAll     Tab = "all"
	TabActive  Tab = "active"
	TabPassive Tab = "passive"
)

// ParseTab accepts the English tab names and the panel's Spanish ones.
// Unknown or empty values mean TabAll.
func ParseTab(v string) Tab {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "active", "activos", database.StatusActive:
		return TabActive
	case "passive", "pasivos", database.StatusPassive:
		return TabPassive
	default:
		return TabAll
	}
}

func (t Tab) status() string {
	switch t {
	case TabActive:
		return database.StatusActive
	case TabPassive:
		return database.StatusPassive
	default:
		return ""
	}
}

// Summary is one listing row: the user plus its additional data, if any.
type Summary struct {
	database.User
	AdditionalData *database.AdditionalData `json:"datos_adicionales"`
}

// Status returns the additional-data estado or "".
func (s Summary) Status() string {
	if s.AdditionalData == nil || s.AdditionalData.Status == nil {
		return ""
	}
	return *s.AdditionalData.Status
}

// Summaries is an ordered listing, newest first.
type Summaries []Summary

// List returns the users of tab, newest first, each with its additional data.
// With a status tab the matching ids are resolved first; no match means no
// user query at all.
func (s *Service) List(ctx context.Context, tab Tab) (Summaries, error) {
	var ids []uint
	if status := tab.status(); status != "" {
		var err error
		ids, err = s.store.UserIDsByStatus(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("list ids for %s: %w", tab, err)
		}
		if len(ids) == 0 {
			return Summaries{}, nil
		}
	}

	users, err := s.store.ListUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		return Summaries{}, nil
	}

	userIDs := make([]uint, len(users))
	for i, u := range users {
		userIDs[i] = u.ID
	}
	extras, err := s.store.AdditionalDataFor(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("list additional data: %w", err)
	}
	byUser := make(map[uint]*database.AdditionalData, len(extras))
	for i := range extras {
		if _, seen := byUser[extras[i].UserID]; !seen {
			byUser[extras[i].UserID] = &extras[i]
		}
	}

	out := make(Summaries, len(users))
	for i, u := range users {
		out[i] = Summary{User: u, AdditionalData: byUser[u.ID]}
	}
	return out, nil
}

// Search lists tab and keeps the rows matching query.
func (s *Service) Search(ctx context.Context, tab Tab, query string) (Summaries, error) {
	list, err := s.List(ctx, tab)
	if err != nil {
		return nil, err
	}
	return list.Filter(query), nil
}

// Filter keeps the rows where query is a case-insensitive substring of nif,
// nombre, apellido1, apellido2, email or poblacion. An empty query keeps all.
func (ss Summaries) Filter(query string) Summaries {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return ss
	}
	out := make(Summaries, 0, len(ss))
	for _, s := range ss {
		if s.matches(q) {
			out = append(out, s)
		}
	}
	return out
}

func (s Summary) matches(q string) bool {
	fields := []string{s.NIF, s.FirstName, s.FirstSurname, deref(s.SecondSurname), s.Email, deref(s.City)}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Remove drops the row for id, leaving the rest in order. Callers holding a
// listing use it after Delete instead of re-fetching.
func (ss Summaries) Remove(id uint) Summaries {
	out := make(Summaries, 0, len(ss))
	for _, s := range ss {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
