package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validationOnce sync.Once

// notblank для текстовых полей и имена полей из тега form в ошибках валидатора
func registerValidations() {
	validationOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("notblank", validators.NotBlank)
	})
}

// подписи полей для сообщений об ошибках
var fieldLabels = map[string]string{
	"email":                      "Email",
	"password":                   "Password",
	"companyName":                "Company name",
	"phone":                      "Phone",
	"address":                    "Address",
	"terms":                      "The terms",
	"businessRegistrationNumber": "Business registration number",
	"name":                       "Category name",
	"rfpId":                      "RFP",
	"costEstimate":               "Cost estimate",
	"deliveryTimeline":           "Delivery timeline",
	"proposalDetails":            "Proposal details",
}

func fieldMessage(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required", "notblank":
		if fe.Kind() == reflect.Bool {
			return label + " must be accepted"
		}
		return label + " is required"
	case "email":
		return label + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	default:
		return label + " is invalid"
	}
}

// formProblems: ошибки валидатора -> сообщение на каждое поле формы.
// ok == false, если это не ошибка валидации (например, битое тело запроса).
func formProblems(err error) (problems map[string]string, ok bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	problems = make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := problems[fe.Field()]; !seen {
			problems[fe.Field()] = fieldMessage(fe)
		}
	}
	return problems, true
}
