package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := appointment.ParseClock(fl.Field().String())
		return err == nil && len(strings.TrimSpace(fl.Field().String())) == 5
	})

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(AvailabilityRequest)
		start, err1 := appointment.ParseClock(req.StartTime)
		end, err2 := appointment.ParseClock(req.EndTime)
		if err1 == nil && err2 == nil && end <= start {
			sl.ReportError(req.EndTime, "end_time", "EndTime", "gtstart", "")
		}
	}, AvailabilityRequest{})

	return v
}

// describe turns validator output into one readable sentence.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "hhmm":
			msgs = append(msgs, field+" must use HH:MM between 00:00 and 23:59")
		case "gtstart":
			msgs = append(msgs, "end_time must be after start_time")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must have at least %s characters", field, fe.Param()))
		case "datetime":
			msgs = append(msgs, fmt.Sprintf("%s must use the format YYYY-MM-DD", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// decode reads a JSON body into dst and validates it. Failures are reported
// as validation errors.
func (h *Handlers) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return apperr.Validationf("invalid JSON body: %v", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return apperr.Validation(describe(err))
	}
	return nil
}
