package utils

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldError is one failed rule on a request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	Validate   *validator.Validate
	translator ut.Translator
)

func init() {
	InitValidator()
}

// InitValidator configures the validator used by gin binding so that field
// names follow json tags and messages come from the en translator.
func InitValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Validate = v
	} else {
		Validate = validator.New()
	}

	english := en.New()
	translator, _ = ut.New(english, english).GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, translator)

	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation("objectid", ValidateObjectIDRule)
	registerTranslation("objectid", "{0} must be a valid id")
	registerTranslation("required", "{0} is required")
}

func registerTranslation(tag, text string) {
	_ = Validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

func ValidateObjectIDRule(fl validator.FieldLevel) bool {
	return primitive.IsValidObjectID(fl.Field().String())
}

// ValidationErrors converts a binding error into per-field messages. The
// second return is false when err is not a validation failure.
func ValidationErrors(err error) ([]FieldError, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Message: fe.Translate(translator),
		})
	}
	return fields, true
}
