package validator

import (
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func RegisterGinValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		err := v.RegisterValidation("dateofbirth", dateOfBirthValidator)
		if err != nil {
			log.Fatal("register dateofbirth validator failed")
		}
	}
}

// dateOfBirthValidator accepts YYYY-MM-DD dates that are not in the future.
var dateOfBirthValidator validator.Func = func(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	dob, err := time.Parse("2006-01-02", value)
	if err != nil {
		return false
	}
	return !dob.After(time.Now())
}
