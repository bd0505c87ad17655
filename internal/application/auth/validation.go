package auth

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/baechuer/credential-auth/internal/domain"
)

// MinPasswordLength is the shortest accepted password, in characters.
const MinPasswordLength = 8

// MaxPasswordBytes is bcrypt's input limit. Longer passwords cannot be hashed.
const MaxPasswordBytes = 72

type RegisterInput struct {
	UserName string `json:"username" validate:"required,max=256"`
	Email    string `json:"email" validate:"required,email,max=256"`
	Password string `json:"password" validate:"required,min=8,password_bytes,password_policy"`
}

// LoginInput.UserName also accepts an email address.
type LoginInput struct {
	UserName string `json:"userName" validate:"required"`
	Password string `json:"password" validate:"required"`
}

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their wire names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	if err := validate.RegisterValidation("password_policy", validatePasswordPolicy); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("password_bytes", validatePasswordBytes); err != nil {
		panic(err)
	}

	locale := en.New()
	trans, _ = ut.New(locale, locale).GetTranslator("en")
	if err := entranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(err)
	}
	registerTranslation("password_policy", "{0} must contain at least one digit and one non-alphanumeric character")
	registerTranslation("password_bytes", "{0} must be at most "+strconv.Itoa(MaxPasswordBytes)+" bytes")
}

func registerTranslation(tag, text string) {
	err := validate.RegisterTranslation(tag, trans,
		func(t ut.Translator) error {
			return t.Add(tag, text, true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field())
			return msg
		},
	)
	if err != nil {
		panic(err)
	}
}

// validatePasswordPolicy requires a digit and a non-alphanumeric character.
// Length is enforced separately by the min and password_bytes tags.
func validatePasswordPolicy(fl validator.FieldLevel) bool {
	return passwordHasDigitAndSymbol(fl.Field().String())
}

// validatePasswordBytes counts bytes, not runes: the max tag would let
// multi-byte passwords past bcrypt's limit.
func validatePasswordBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxPasswordBytes
}

func passwordHasDigitAndSymbol(pw string) bool {
	hasDigit, hasSymbol := false, false
	for _, r := range pw {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r):
			hasSymbol = true
		}
		if hasDigit && hasSymbol {
			return true
		}
	}
	return false
}

// validateInput returns a validation_failed error whose Meta maps every
// violated field to a readable reason.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.ErrInternal(err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Translate(trans)
	}
	return domain.ErrValidation(fields)
}
