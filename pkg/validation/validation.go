// Package validation wraps go-playground/validator with Spanish messages and the
// custom rules used by the school entities.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	es_translations "github.com/go-playground/validator/v10/translations/es"
	"github.com/spf13/cast"
)

// Messages maps "<json field>.<tag>" to the message reported for that failure.
// The placeholder {len} is replaced by the length of the value after removing whitespace.
type Messages map[string]string

// Result is the outcome of validating one input.
type Result struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Validator validates structs and renders failures in Spanish.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

var (
	curpPattern = regexp.MustCompile(`^[A-Z]{4}\d{6}[HM][A-Z]{5}[0-9A-Z]\d$`)
	rfcPattern  = regexp.MustCompile(`^[A-ZÑ&]{3,4}\d{6}[A-Z0-9]{3}$`)
	isoDate     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// New builds a Validator with the custom rules registered.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("compactlen", validateCompactLen)
	_ = v.RegisterValidation("isodate", validateISODate)
	_ = v.RegisterValidation("curp", func(fl validator.FieldLevel) bool {
		return ValidCURP(fl.Field().String())
	})
	_ = v.RegisterValidation("rfc", func(fl validator.FieldLevel) bool {
		return ValidRFC(fl.Field().String())
	})
	_ = v.RegisterValidation("positiveid", func(fl validator.FieldLevel) bool {
		id, err := cast.ToInt64E(fl.Field().Interface())
		return err == nil && id > 0
	})

	locale := es.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("es")
	_ = es_translations.RegisterDefaultTranslations(v, trans)
	registerCustomTranslations(v, trans)

	return &Validator{validate: v, trans: trans}
}

// Var reports whether value satisfies tag, e.g. Var(curp, "curp").
func (v *Validator) Var(value any, tag string) bool {
	return v.validate.Var(value, tag) == nil
}

// Check validates input and returns the failure messages in field order.
func (v *Validator) Check(input any, messages Messages) []string {
	err := v.validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, v.message(fe, messages))
	}
	return out
}

// Validate is Check wrapped into a Result.
func (v *Validator) Validate(input any, messages Messages) Result {
	errs := v.Check(input, messages)
	if errs == nil {
		errs = []string{}
	}
	return Result{IsValid: len(errs) == 0, Errors: errs}
}

func (v *Validator) message(fe validator.FieldError, messages Messages) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		if strings.Contains(msg, "{len}") {
			msg = strings.ReplaceAll(msg, "{len}", strconv.Itoa(CompactLen(fmt.Sprint(fe.Value()))))
		}
		return msg
	}
	return fe.Translate(v.trans)
}

// Join renders errors the way they are surfaced to users.
func Join(errs []string) string {
	return strings.Join(errs, ", ")
}

// Compact removes every whitespace rune.
func Compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// CompactLen is the rune count of s without whitespace.
func CompactLen(s string) int {
	return len([]rune(Compact(s)))
}

// CollapseSpaces trims s and reduces inner whitespace runs to one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ValidCURP reports whether s has the CURP shape.
func ValidCURP(s string) bool {
	return curpPattern.MatchString(strings.ToUpper(Compact(s)))
}

// ValidRFC reports whether s has the RFC shape (12 chars for companies, 13 for people).
func ValidRFC(s string) bool {
	return rfcPattern.MatchString(strings.ToUpper(Compact(s)))
}

// ValidISODate reports whether s is YYYY-MM-DD and names a real calendar day.
func ValidISODate(s string) bool {
	if !isoDate.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// compactlen=18 or compactlen=12 13
func validateCompactLen(fl validator.FieldLevel) bool {
	n := CompactLen(fl.Field().String())
	for _, part := range strings.Fields(fl.Param()) {
		want, err := strconv.Atoi(part)
		if err == nil && n == want {
			return true
		}
	}
	return false
}

func validateISODate(fl validator.FieldLevel) bool {
	return ValidISODate(fl.Field().String())
}

func registerCustomTranslations(v *validator.Validate, trans ut.Translator) {
	custom := map[string]string{
		"compactlen": "{0} debe tener {1} caracteres",
		"isodate":    "{0} debe tener el formato YYYY-MM-DD",
		"curp":       "{0} no tiene un formato de CURP válido",
		"rfc":        "{0} no tiene un formato de RFC válido",
		"positiveid": "{0} debe ser un identificador válido",
	}
	for tag, text := range custom {
		tag, text := tag, text
		_ = v.RegisterTranslation(tag, trans, func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			msg, err := ut.T(tag, fe.Field(), strings.Join(strings.Fields(fe.Param()), " o "))
			if err != nil {
				return fe.Error()
			}
			return msg
		})
	}
}
