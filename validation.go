package auth

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// SignupPayload is the signup request body
type SignupPayload struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Mobile   string `json:"mobile" form:"mobile"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role" form:"role"`
}

// Validate checks the request shape. When region is set the mobile must
// also be a valid number for that region.
func (p SignupPayload) Validate(region string) error {
	mobileRules := []validation.Rule{
		validation.Required.Error("Mobile number is required"),
	}
	if region != "" {
		mobileRules = append(mobileRules, validation.By(validMobileFor(region)))
	}

	return validation.ValidateStruct(&p,
		validation.Field(&p.Name,
			validation.Required.Error("Name is required"),
			validation.Length(2, 0).Error("Name must be at least 2 characters long"),
		),
		validation.Field(&p.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Please enter a valid email"),
		),
		validation.Field(&p.Mobile, mobileRules...),
		validation.Field(&p.Password,
			validation.Required.Error("Password is required"),
			validation.Length(6, 0).Error("Password must be at least 6 characters long"),
			validation.Length(0, MaxPasswordBytes).Error(MessagePasswordTooLong),
		),
		validation.Field(&p.Role,
			validation.Required.Error("Role is required"),
			validation.In(roleValues()...).Error("Role must be either officer or investigator"),
		),
	)
}

// Message converts the payload into a registration message
func (p SignupPayload) Message() RegisterAccountMessage {
	return RegisterAccountMessage{
		Name:     p.Name,
		Email:    p.Email,
		Mobile:   p.Mobile,
		Password: p.Password,
		Role:     p.Role,
	}
}

// LoginPayload is the login request body
type LoginPayload struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (p LoginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Please enter a valid email"),
		),
		validation.Field(&p.Password,
			validation.Required.Error("Password is required"),
			validation.Length(6, 0).Error("Password must be at least 6 characters long"),
			validation.Length(0, MaxPasswordBytes).Error(MessagePasswordTooLong),
		),
	)
}

func validMobileFor(region string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		num, err := phonenumbers.Parse(s, region)
		if err != nil || !phonenumbers.IsValidNumber(num) {
			return errors.New("Please enter a valid mobile number")
		}
		return nil
	}
}

// ToValidationError maps ozzo field errors into a ValidationError with one
// FieldError per failing field, sorted by field name.
func ToValidationError(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return AsInternal(err, "failed to validate payload")
	}

	fields := make([]FieldError, 0, len(fieldErrs))
	for name, ferr := range fieldErrs {
		if ferr == nil {
			continue
		}
		fields = append(fields, FieldError{Field: name, Message: ferr.Error()})
	}
	sort.Slice(fields, func(i, j int) bool {
		return fields[i].Field < fields[j].Field
	})

	return NewValidationError(fields...)
}
