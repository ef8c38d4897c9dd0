package handlers

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/Dosada05/debate-draw/services"
)

const (
	existingDebateKey = "debate_"
	newDebateKey      = "new_debate_"
	affKey            = "aff_"
	negKey            = "neg_"
	teamValuePrefix   = "team_"
)

// FormError - ошибка разбора формы с именем поля.
type FormError struct {
	Field   string
	Message string
}

func (e *FormError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ParseMatchupForm превращает форму редактора пар в MatchupSubmission.
// Стороны новых и существующих дебатов лежат в общих полях aff_<id>/neg_<id>,
// поэтому временный id нового дебата не может совпадать с id существующего.
func ParseMatchupForm(form url.Values) (services.MatchupSubmission, error) {
	existing := make(map[int]bool)
	created := make(map[int]bool)

	for key := range form {
		switch {
		case strings.HasPrefix(key, newDebateKey):
			id, err := parseFormID(key, strings.TrimPrefix(key, newDebateKey))
			if err != nil {
				return services.MatchupSubmission{}, err
			}
			created[id] = true
		case strings.HasPrefix(key, existingDebateKey):
			id, err := parseFormID(key, strings.TrimPrefix(key, existingDebateKey))
			if err != nil {
				return services.MatchupSubmission{}, err
			}
			existing[id] = true
		}
	}

	entries := make([]services.MatchupEntry, 0, len(existing)+len(created))
	for _, group := range []struct {
		ids   map[int]bool
		isNew bool
	}{{existing, false}, {created, true}} {
		for _, id := range sortedKeys(group.ids) {
			if group.isNew && existing[id] {
				return services.MatchupSubmission{}, &FormError{
					Field:   fmt.Sprintf("%s%d", newDebateKey, id),
					Message: "temporary id collides with an existing debate",
				}
			}
			aff, err := parseTeamValue(form, fmt.Sprintf("%s%d", affKey, id))
			if err != nil {
				return services.MatchupSubmission{}, err
			}
			neg, err := parseTeamValue(form, fmt.Sprintf("%s%d", negKey, id))
			if err != nil {
				return services.MatchupSubmission{}, err
			}
			entries = append(entries, services.MatchupEntry{DebateID: id, IsNew: group.isNew, Aff: aff, Neg: neg})
		}
	}

	return services.MatchupSubmission{Entries: entries}, nil
}

// parseTeamValue: отсутствующее или пустое поле - пустая сторона.
func parseTeamValue(form url.Values, field string) (*int, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(form.Get(field)), teamValuePrefix))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return nil, &FormError{Field: field, Message: fmt.Sprintf("%q is not a team identifier", form.Get(field))}
	}
	return &id, nil
}

func parseFormID(field, raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return 0, &FormError{Field: field, Message: "debate identifier must be a non-negative integer"}
	}
	return id, nil
}

func sortedKeys(m map[int]bool) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// ParseScheduleForm: поле <id группы площадок> = дата. Посторонние поля (csrf и т.п.) пропускаются.
func ParseScheduleForm(form url.Values) map[int]string {
	dates := make(map[int]string, len(form))
	for key := range form {
		id, err := strconv.Atoi(key)
		if err != nil || id <= 0 {
			continue
		}
		dates[id] = strings.TrimSpace(form.Get(key))
	}
	return dates
}
