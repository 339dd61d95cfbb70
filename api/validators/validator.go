package validators

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes caps every JSON request body.
const MaxBodyBytes int64 = 1 << 20

var brazilianStates = map[string]struct{}{
	"AC": {}, "AL": {}, "AP": {}, "AM": {}, "BA": {}, "CE": {}, "DF": {},
	"ES": {}, "GO": {}, "MA": {}, "MT": {}, "MS": {}, "MG": {}, "PA": {},
	"PB": {}, "PR": {}, "PE": {}, "PI": {}, "RJ": {}, "RN": {}, "RS": {},
	"RO": {}, "RR": {}, "SC": {}, "SP": {}, "SE": {}, "TO": {},
}

type enumValue interface {
	IsValid() bool
}

var engine = buildEngine()

func buildEngine() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	mustRegister(v, "cep", isCEP)
	mustRegister(v, "uf", isUF)
	mustRegister(v, "enum", isKnownEnum)
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("validators: register " + tag + ": " + err.Error())
	}
}

// jsonFieldName reports fields the way clients spell them.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// isCEP accepts 8 digits with an optional dash after the fifth.
func isCEP(fl validator.FieldLevel) bool {
	raw := strings.TrimSpace(fl.Field().String())
	if len(raw) == 9 && raw[5] == '-' {
		raw = raw[:5] + raw[6:]
	}
	if len(raw) != 8 {
		return false
	}
	for _, r := range raw {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isUF(fl validator.FieldLevel) bool {
	_, ok := brazilianStates[strings.ToUpper(strings.TrimSpace(fl.Field().String()))]
	return ok
}

func isKnownEnum(fl validator.FieldLevel) bool {
	field := fl.Field()
	if !field.CanInterface() {
		return false
	}
	if e, ok := field.Interface().(enumValue); ok {
		return e.IsValid()
	}
	return false
}
