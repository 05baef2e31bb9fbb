package core

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	StatusPending  BillStatus = "pending"
	StatusAccepted BillStatus = "accepted"
	StatusRefused  BillStatus = "refused"

	// DefaultPct is the VAT percentage applied when the form leaves it empty.
	DefaultPct = 20
)

// Expense types offered by the new bill form.
const (
	TypeTransports  = "Transports"
	TypeRestaurants = "Restaurants et bars"
	TypeHotel       = "Hôtel et logement"
	TypeOnline      = "Services en ligne"
	TypeIT          = "IT et électronique"
	TypeEquipment   = "Equipement et matériel"
	TypeOffice      = "Fournitures de bureau"
)

type (
	BillStatus string

	Money struct {
		Cents int64
	}

	// Bill is an employee expense record pending or approved for reimbursement.
	Bill struct {
		ID         string
		Email      string     `validate:"user_email"`
		Type       string     `validate:"required,bill_type"`
		Name       string     `validate:"max=200"`
		Date       time.Time  `validate:"required"`
		Amount     Money
		VAT        string     `validate:"max=20"`
		Pct        int        `validate:"gte=0,lte=100"`
		Commentary string     `validate:"max=1000"`
		FileURL    string
		FileName   string     `validate:"required,receipt"`
		Status     BillStatus `validate:"required,oneof=pending accepted refused"`
		CreatedAt  time.Time
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrNotFound      = errors.New("not found")
)

var (
	billTypes = []string{TypeTransports, TypeRestaurants, TypeHotel, TypeOnline, TypeIT, TypeEquipment, TypeOffice}

	statusLabels = map[BillStatus]string{
		StatusPending:  "En attente",
		StatusAccepted: "Accepté",
		StatusRefused:  "Refusé",
	}

	validate = newValidator()
)

// userEmailRule is the one email rule for sign-in and bills. Addresses
// such as "a@a" are accepted.
const userEmailRule = "required,contains=@"

func newValidator() *validator.Validate {
	v := validator.New()
	must := func(err error) {
		if err != nil {
			panic("core: register validation: " + err.Error())
		}
	}
	must(v.RegisterValidation("bill_type", func(fl validator.FieldLevel) bool {
		return IsBillType(fl.Field().String())
	}))
	must(v.RegisterValidation("receipt", func(fl validator.FieldLevel) bool {
		return IsAllowedReceipt(fl.Field().String())
	}))
	v.RegisterAlias("user_email", userEmailRule)
	return v
}

// IsUserEmail reports whether s passes the email rule shared by sessions and bills.
func IsUserEmail(s string) bool {
	return validate.Var(s, "user_email") == nil
}

// BillTypes returns the expense types in form order.
func BillTypes() []string {
	return append([]string(nil), billTypes...)
}

func IsBillType(s string) bool {
	for _, t := range billTypes {
		if t == s {
			return true
		}
	}
	return false
}

// Label returns the French status label shown on the bills list.
func (s BillStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (b Bill) Validate() error {
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if err := validate.Struct(b); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, strings.ToLower(fe.Field())+" ("+fe.Tag()+")")
			}
			return errors.New("invalid bill: " + strings.Join(fields, ", "))
		}
		return err
	}
	return nil
}
