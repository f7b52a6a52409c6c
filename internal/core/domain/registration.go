package domain

import "regexp"

// RegistrationStep is a position in the three-step sign-up wizard.
type RegistrationStep int

const (
	StepPersonal    RegistrationStep = 1 // name, surname
	StepIdentity    RegistrationStep = 2 // id number
	StepCredentials RegistrationStep = 3 // email, password

	FirstRegistrationStep = StepPersonal
	LastRegistrationStep  = StepCredentials
)

// IDNumberLength is the exact length of a South African identity number.
const IDNumberLength = 13

type RegistrationField string

const (
	FieldName     RegistrationField = "name"
	FieldSurname  RegistrationField = "surname"
	FieldIDNumber RegistrationField = "idNumber"
	FieldEmail    RegistrationField = "email"
	FieldPassword RegistrationField = "password"
)

var idNumberInput = regexp.MustCompile(`^\d{0,13}$`)

// AcceptsIDNumber reports whether value may be stored as the id number while
// it is being typed: digits only, at most 13 of them.
func AcceptsIDNumber(value string) bool {
	return idNumberInput.MatchString(value)
}

// RegistrationDraft accumulates the identity fields sent in one create-account call.
type RegistrationDraft struct {
	Name     string `json:"name"     validate:"notblank"`
	Surname  string `json:"surname"  validate:"notblank"`
	IDNumber string `json:"idNumber" validate:"len=13,numeric"`
	Email    string `json:"email"    validate:"contains=@"`
	Password string `json:"password" validate:"min=8"`
}

// Set stores value in field. An id number that is not a digit-only string of
// at most 13 characters is rejected and the previous value is kept.
func (d *RegistrationDraft) Set(field RegistrationField, value string) error {
	switch field {
	case FieldName:
		d.Name = value
	case FieldSurname:
		d.Surname = value
	case FieldIDNumber:
		if !AcceptsIDNumber(value) {
			return NewValidationError(string(field), "id number accepts up to 13 digits")
		}
		d.IDNumber = value
	case FieldEmail:
		d.Email = value
	case FieldPassword:
		d.Password = value
	default:
		return NewValidationError(string(field), "unknown registration field")
	}
	return nil
}

func (d RegistrationDraft) Get(field RegistrationField) string {
	switch field {
	case FieldName:
		return d.Name
	case FieldSurname:
		return d.Surname
	case FieldIDNumber:
		return d.IDNumber
	case FieldEmail:
		return d.Email
	case FieldPassword:
		return d.Password
	}
	return ""
}

// Complete reports whether every field holds a value.
func (d RegistrationDraft) Complete() bool {
	return d.Name != "" && d.Surname != "" && d.IDNumber != "" && d.Email != "" && d.Password != ""
}

// StepFields lists the draft fields validated before leaving step s.
func StepFields(s RegistrationStep) []string {
	switch s {
	case StepPersonal:
		return []string{"Name", "Surname"}
	case StepIdentity:
		return []string{"IDNumber"}
	case StepCredentials:
		return []string{"Email", "Password"}
	}
	return nil
}
