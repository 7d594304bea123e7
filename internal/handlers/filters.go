package handlers

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
)

const maxLimit = 100

// FilterSignals is the sidebar state. The same shape arrives as query
// parameters on the JSON API and as Datastar signals on the SSE endpoint.
type FilterSignals struct {
	Start      string   `json:"start" validate:"omitempty,datetime=2006-01-02"`
	End        string   `json:"end" validate:"omitempty,datetime=2006-01-02"`
	Statuses   []string `json:"statuses" validate:"max=50,dive,max=100"`
	Sources    []string `json:"sources" validate:"max=50,dive,max=100"`
	Currencies []string `json:"currencies" validate:"max=50,dive,max=100"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		validate = v
	})
	return validate
}

// Criteria validates the signals and converts them to filter criteria.
func (f FilterSignals) Criteria() (models.FilterCriteria, error) {
	if err := validatorInstance().Struct(f); err != nil {
		return models.FilterCriteria{}, validationError(err)
	}

	var c models.FilterCriteria
	if f.Start != "" {
		t, _ := time.Parse(time.DateOnly, f.Start)
		c.Start = &t
	}
	if f.End != "" {
		t, _ := time.Parse(time.DateOnly, f.End)
		c.End = &t
	}
	if c.Start != nil && c.End != nil && c.End.Before(*c.Start) {
		return models.FilterCriteria{}, errors.Validation("end must not be before start")
	}

	c.Statuses = compact(f.Statuses)
	c.Sources = compact(f.Sources)
	c.Currencies = compact(f.Currencies)
	return c, nil
}

func validationError(err error) *errors.AppError {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.ValidationWrap(err, "invalid filter")
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "datetime":
			msgs = append(msgs, fmt.Sprintf("%s must be a date in YYYY-MM-DD form", fe.Field()))
		case "min", "max":
			msgs = append(msgs, fmt.Sprintf("%s must be %s %s", fe.Field(), fe.Tag(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	appErr := errors.Validation(strings.Join(msgs, "; "))
	appErr.Cause = err
	return appErr
}

func compact(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// queryList accepts both ?status=a&status=b and ?status=a,b.
func queryList(r *http.Request, name string) []string {
	var out []string
	for _, raw := range r.URL.Query()[name] {
		out = append(out, strings.Split(raw, ",")...)
	}
	return out
}

func parseCriteria(r *http.Request) (models.FilterCriteria, error) {
	q := r.URL.Query()
	f := FilterSignals{
		Start:      q.Get("start"),
		End:        q.Get("end"),
		Statuses:   queryList(r, "status"),
		Sources:    queryList(r, "source"),
		Currencies: queryList(r, "currency"),
	}
	return f.Criteria()
}

type limitQuery struct {
	Limit int `json:"limit" validate:"min=1,max=100"`
}

// parseLimit reads ?limit, falling back to def when it is absent.
func parseLimit(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return min(def, maxLimit), nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Validation("limit must be a whole number")
	}
	if err := validatorInstance().Struct(limitQuery{Limit: n}); err != nil {
		return 0, validationError(err)
	}
	return n, nil
}
