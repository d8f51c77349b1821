package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

// Validator provides validation functionality
type Validator interface {
	Validate(interface{}) error
	ValidateField(field string, value interface{}, rules ...string) error
}

type validator struct {
	v *playground.Validate
}

// New returns a validator reading `validate` struct tags. Field names in
// errors are the JSON names.
func New() Validator {
	v := playground.New(playground.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &validator{v: v}
}

func (v *validator) Validate(obj interface{}) error {
	return humanize(v.v.Struct(obj))
}

func (v *validator) ValidateField(field string, value interface{}, rules ...string) error {
	if err := v.v.Var(value, strings.Join(rules, ",")); err != nil {
		var verrs playground.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%s failed on %s", field, describe(verrs[0]))
		}
		return err
	}
	return nil
}

func humanize(err error) error {
	if err == nil {
		return nil
	}
	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", fieldPath(fe), describe(fe)))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe playground.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe playground.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
