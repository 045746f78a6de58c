// Package validators holds the client side form checks run before a request
// is sent. The server remains the authority; these only catch obvious input
// mistakes early.
package validators

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/go-containerregistry/pkg/name"
)

var (
	namespacePattern = regexp.MustCompile(`^[a-z][0-9a-z-]{1,20}$`)
	usernamePattern  = regexp.MustCompile(`^[a-zA-Z0-9_-]{2,20}$`)
)

// referenceHost only makes the name parser treat the whole input as a
// repository path.
const referenceHost = "registry.local"

const (
	passwordMinLen = 8
	passwordMaxLen = 20
	// MaxQuota bounds every numeric limit field; 0 means unlimited.
	MaxQuota = 1 << 50
)

func ValidNamespace(s string) bool {
	return namespacePattern.MatchString(s)
}

// ValidRepository accepts a repository path. The first path component must be
// the namespace name.
func ValidRepository(s string) bool {
	for _, part := range strings.Split(s, "/") {
		if part == "" {
			return false
		}
	}
	_, err := name.NewRepository(referenceHost+"/"+s, name.StrictValidation)
	return err == nil
}

func ValidTag(s string) bool {
	if s == "" || s[0] == '.' || s[0] == '-' || strings.ContainsAny(s, ":/@") {
		return false
	}
	_, err := name.NewTag(referenceHost+"/tag-check:"+s, name.StrictValidation)
	return err == nil
}

func ValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}

// ValidPassword requires upper and lower case letters, a digit and a symbol.
func ValidPassword(s string) bool {
	if n := len(s); n < passwordMinLen || n > passwordMaxLen {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

func ValidQuota(v int64) bool {
	return v >= 0 && v <= MaxQuota
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			field := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if field == "-" || field == "" {
				return f.Name
			}
			return field
		})
		mustRegister("namespace", func(fl validator.FieldLevel) bool { return ValidNamespace(fl.Field().String()) })
		mustRegister("repository", func(fl validator.FieldLevel) bool { return ValidRepository(fl.Field().String()) })
		mustRegister("tag", func(fl validator.FieldLevel) bool { return ValidTag(fl.Field().String()) })
		mustRegister("username", func(fl validator.FieldLevel) bool { return ValidUsername(fl.Field().String()) })
		mustRegister("password", func(fl validator.FieldLevel) bool { return ValidPassword(fl.Field().String()) })
		mustRegister("quota", func(fl validator.FieldLevel) bool { return ValidQuota(fl.Field().Int()) })
	})
	return validate
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FieldErrors lists every field that failed, in struct order.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Error())
	}
	return strings.Join(msgs, "; ")
}

// Struct checks a form struct against its validate tags. A nil return means
// the form may be sent.
func Struct(v interface{}) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := make(FieldErrors, 0, len(ve))
	for _, fe := range ve {
		out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "namespace":
		return "must start with a lowercase letter and contain 2-21 lowercase letters, digits or '-'"
	case "repository":
		return "must be lowercase path components separated by '/', using '.', '_' or '-' as separators"
	case "tag":
		return "must be up to 128 word characters, '.' or '-', not starting with '.' or '-'"
	case "username":
		return "must be 2-20 letters, digits, '_' or '-'"
	case "password":
		return fmt.Sprintf("must be %d-%d characters with upper and lower case letters, a digit and a symbol", passwordMinLen, passwordMaxLen)
	case "quota":
		return fmt.Sprintf("must be between 0 and %d", int64(MaxQuota))
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid url"
	}
	return "is invalid"
}
