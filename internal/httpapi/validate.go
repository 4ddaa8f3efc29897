package httpapi

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"jobsearch.app/internal/auth"
)

var (
	nameRe   = regexp.MustCompile(`^[A-Za-z]{3,}((\s+|\W|_)\w+)*$`)
	mobileRe = regexp.MustCompile(`^01[0-2,5]\d{1,8}$`)
	pdfRe    = regexp.MustCompile(`^[A-Za-z0-9_()\-\[\]]+\.pdf$`)
	otpRe    = regexp.MustCompile(`^\d{6}$`)
)

var tagMessages = map[string]string{
	"required":         "is required",
	"required_without": "is required",
	"email":            "must be a valid email",
	"personname":       "must start with at least three alphabet letters",
	"password":         "must be at least 8 characters with a lowercase letter, an uppercase letter, a digit and one of @$!%*",
	"mobile":           "must be a valid mobile number",
	"pdffile":          "must be a valid (.pdf) file name",
	"otp":              "must be 6 digits long",
	"datetime":         "must be a date formatted YYYY-MM-DD",
	"ulid":             "must be a valid id",
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		regexRule := func(re *regexp.Regexp) validator.Func {
			return func(fl validator.FieldLevel) bool { return re.MatchString(fl.Field().String()) }
		}
		_ = v.RegisterValidation("personname", regexRule(nameRe))
		_ = v.RegisterValidation("mobile", regexRule(mobileRe))
		_ = v.RegisterValidation("pdffile", regexRule(pdfRe))
		_ = v.RegisterValidation("otp", regexRule(otpRe))
		_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return auth.PasswordMeetsPolicy(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// validationError is a request that failed struct or parameter validation.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

// validateStruct runs the struct tags of v and folds all failures into one
// message.
func validateStruct(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return invalid("%v", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe.Field(), fe.Tag(), fe.Param()))
	}
	return &validationError{msg: strings.Join(msgs, "; ")}
}

// validateVar checks a single path or query value.
func validateVar(name, value, tag string) error {
	err := validatorInstance().Var(value, tag)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return &validationError{msg: fieldMessage(name, fieldErrs[0].Tag(), fieldErrs[0].Param())}
	}
	return invalid("%s: %v", name, err)
}

func fieldMessage(field, tag, param string) string {
	if msg, ok := tagMessages[tag]; ok {
		return field + " " + msg
	}
	switch tag {
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, strings.ReplaceAll(param, " ", ", "))
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	}
	return fmt.Sprintf("%s failed %s validation", field, tag)
}
