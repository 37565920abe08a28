package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hackgods/hospital-appointment-scheduling/internal/appointment"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// errBadRequest marks malformed input that never reached a service.
var errBadRequest = errors.New("bad request")

// decodeJSON decodes the body into dst and runs its validate tags.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: could not parse JSON body: %v", errBadRequest, err)
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", errBadRequest, describeValidation(verrs))
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func describeValidation(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "uuid":
			msgs = append(msgs, field+" must be a valid UUID")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		}
	}
	return strings.Join(msgs, "; ")
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a valid UUID", errBadRequest, name)
	}
	return id, nil
}

type listQuery struct {
	filter appointment.Filter
	page   int
	limit  int
}

// parseListQuery reads doctorId, patientId, status, from, to, page and limit.
func parseListQuery(q url.Values) (listQuery, error) {
	var out listQuery

	for _, p := range []struct {
		key string
		dst **uuid.UUID
	}{
		{"doctorId", &out.filter.DoctorID},
		{"patientId", &out.filter.PatientID},
	} {
		if raw := q.Get(p.key); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return out, fmt.Errorf("%w: %s must be a valid UUID", errBadRequest, p.key)
			}
			*p.dst = &id
		}
	}

	if raw := q.Get("status"); raw != "" {
		status, err := appointment.ParseStatus(raw)
		if err != nil {
			return out, err
		}
		out.filter.Status = &status
	}

	for _, p := range []struct {
		key string
		dst **time.Time
	}{
		{"from", &out.filter.From},
		{"to", &out.filter.To},
	} {
		if raw := q.Get(p.key); raw != "" {
			ts, err := parseTime(raw)
			if err != nil {
				return out, fmt.Errorf("%w: %s must be RFC3339 or YYYY-MM-DD", errBadRequest, p.key)
			}
			*p.dst = &ts
		}
	}

	var err error
	if out.page, err = optionalInt(q, "page"); err != nil {
		return out, err
	}
	if out.limit, err = optionalInt(q, "limit"); err != nil {
		return out, err
	}
	return out, nil
}

func optionalInt(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", errBadRequest, key)
	}
	return n, nil
}

func parseTime(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts, nil
	}
	return time.Parse(time.DateOnly, raw)
}
