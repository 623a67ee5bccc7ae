package models

// AddressKind names one of the three addresses on a draft.
type AddressKind string

const (
	AddressOccupation AddressKind = "occupation"
	AddressCurrent    AddressKind = "current"
	AddressParental   AddressKind = "parental"
)

// AddressKinds lists the addresses in display order.
var AddressKinds = []AddressKind{AddressOccupation, AddressCurrent, AddressParental}

func (k AddressKind) Valid() bool {
	switch k {
	case AddressOccupation, AddressCurrent, AddressParental:
		return true
	}
	return false
}

// Address is a three-level location plus a free-text village. A non-empty
// code means the name was taken from the reference list at selection time.
type Address struct {
	State        string `json:"state"`
	StateCode    string `json:"stateCode"`
	District     string `json:"district"`
	DistrictCode string `json:"districtCode"`
	City         string `json:"city"`
	CityCode     string `json:"cityCode"`
	Village      string `json:"village"`
}

// Addresses groups the three addresses collected by the wizard.
type Addresses struct {
	Occupation Address `json:"occupation"`
	Current    Address `json:"current"`
	Parental   Address `json:"parental"`
}

// Get returns a pointer to the address of the given kind, or nil.
func (a *Addresses) Get(kind AddressKind) *Address {
	switch kind {
	case AddressOccupation:
		return &a.Occupation
	case AddressCurrent:
		return &a.Current
	case AddressParental:
		return &a.Parental
	}
	return nil
}

// Level is a tier of the reference hierarchy.
type Level string

const (
	LevelState    Level = "state"
	LevelDistrict Level = "district"
	LevelCity     Level = "city"
	LevelGotra    Level = "gotra"
)

func (l Level) Valid() bool {
	switch l {
	case LevelState, LevelDistrict, LevelCity, LevelGotra:
		return true
	}
	return false
}

// Parent returns the level whose code scopes l, or "" for top levels.
func (l Level) Parent() Level {
	switch l {
	case LevelDistrict:
		return LevelState
	case LevelCity:
		return LevelDistrict
	}
	return ""
}

// ReferenceEntry is one row of the reference dataset. Name is keyed by
// language tag ("en", "hi").
type ReferenceEntry struct {
	Code string            `json:"code"`
	Name map[string]string `json:"name"`
}

// Label returns the name in lang, falling back to English and then to any
// available translation.
func (e ReferenceEntry) Label(lang string) string {
	if v := e.Name[lang]; v != "" {
		return v
	}
	if v := e.Name["en"]; v != "" {
		return v
	}
	for _, v := range e.Name {
		if v != "" {
			return v
		}
	}
	return e.Code
}
