package preview

import (
	"reflect"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Validate reports ErrMalformedPreview when the payload lacks items or a
// delivery address. An empty, present item list is valid.
func (p *OrderPreview) Validate() error {
	if p == nil {
		return errors.Wrap(ErrMalformedPreview, "empty payload")
	}
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return errors.Wrap(err, "validate preview")
		}
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return errors.Wrapf(ErrMalformedPreview, "missing %s", strings.Join(fields, ", "))
	}
	return nil
}
