// Package validation wraps go-playground/validator with English messages keyed
// by JSON field names.
package validation

import (
	"reflect"
	"strings"

	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// ErrInvalid is the cause of every *Error.
	ErrInvalid = errors.New("invalid input")

	roleTag  = "role"
	roleText = "{0} must be one of student, school, teacher, govt, superadmin, helpsupport"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type Error struct {
	Err    error
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Err.Error()
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error
	}
	return strings.Join(msgs, "; ")
}

func (e *Error) Unwrap() error { return e.Err }

// NewFieldError reports a single invalid field.
func NewFieldError(field, msg string) error {
	return &Error{Err: ErrInvalid, Fields: []FieldError{{Field: field, Error: msg}}}
}

func init() {
	english := en.New()
	Translator, _ = ut.New(english, english).GetTranslator("en")
	Validate = validator.New()
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation(roleTag, func(fl validator.FieldLevel) bool {
		return models.Role(fl.Field().String()).Valid()
	})
	_ = Validate.RegisterTranslation(roleTag, Translator,
		func(t ut.Translator) error { return t.Add(roleTag, roleText, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(roleTag, fe.Field())
			return s
		},
	)
}

// Struct validates s and converts validator errors into *Error.
func Struct(s interface{}) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Error: fe.Translate(Translator)})
	}
	return &Error{Err: ErrInvalid, Fields: fields}
}
