package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON paths instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// ValidationError lists every constraint a value broke.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// Validate checks v against its struct tags.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Problems: make([]string, 0, len(verrs))}
	for _, fe := range verrs {
		out.Problems = append(out.Problems, describe(fe))
	}
	return out
}

func describe(fe validator.FieldError) string {
	path := fe.Namespace()
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[i+1:]
	}
	unit := ""
	switch fe.Kind() {
	case reflect.String:
		unit = " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		unit = " items"
	}
	switch fe.Tag() {
	case "required", "nonblank":
		return path + ": must not be empty"
	case "min":
		if unit == "" {
			return fmt.Sprintf("%s: must be >= %s (got %v)", path, fe.Param(), fe.Value())
		}
		return fmt.Sprintf("%s: must have at least %s%s", path, fe.Param(), unit)
	case "max":
		if unit == "" {
			return fmt.Sprintf("%s: must be <= %s (got %v)", path, fe.Param(), fe.Value())
		}
		return fmt.Sprintf("%s: must have at most %s%s", path, fe.Param(), unit)
	case "len":
		return fmt.Sprintf("%s: must have exactly %s%s", path, fe.Param(), unit)
	case "oneof":
		return fmt.Sprintf("%s: %q is not one of [%s]", path, fe.Value(), fe.Param())
	}
	return fmt.Sprintf("%s: failed %s", path, fe.Tag())
}
