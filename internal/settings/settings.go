package settings

import (
	"errors"
	"time"
)

// Kind names one reference-data table managed under /dashboard/settings.
type Kind string

const (
	KindOrgan      Kind = "organs"
	KindDepartment Kind = "departments"
	KindLocation   Kind = "locations"
	KindCountry    Kind = "countries"
)

var Kinds = []Kind{KindOrgan, KindDepartment, KindLocation, KindCountry}

var (
	ErrItemNotFound = errors.New("settings item not found")
	ErrUnknownKind  = errors.New("unknown settings kind")
)

func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Singular is used in toasts and error messages.
func (k Kind) Singular() string {
	switch k {
	case KindOrgan:
		return "Organ"
	case KindDepartment:
		return "Department"
	case KindLocation:
		return "Location"
	case KindCountry:
		return "Country"
	}
	return "Item"
}

// Item is the shared shape of every settings row. OrganID and OrganName
// apply to departments, Code to countries.
type Item struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OrganID     *int64    `json:"organId,omitempty"`
	OrganName   string    `json:"organName,omitempty"`
	Code        string    `json:"code,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Option feeds select inputs on other modules' forms.
type Option struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
