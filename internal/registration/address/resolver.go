// Package address keeps the three-level state → district → city selection of
// an address consistent with the reference dataset.
package address

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"

	"membership/internal/registration/models"
)

// Resolver applies cascade selections and reconciles legacy name-only
// addresses with reference codes. It holds no per-session state.
type Resolver struct {
	lang string
}

// NewResolver builds a resolver that writes names in lang (falls back to English).
func NewResolver(lang string) *Resolver {
	if lang == "" {
		lang = "en"
	}
	return &Resolver{lang: lang}
}

// SelectState sets the state from the reference list and clears everything below it.
// An empty code clears the state.
func (r *Resolver) SelectState(addr *models.Address, code string, states []models.ReferenceEntry) error {
	code = strings.TrimSpace(code)
	if code == "" {
		ClearState(addr)
		return nil
	}
	entry, ok := find(states, code)
	if !ok {
		return models.ErrUnknownReference
	}
	addr.State = entry.Label(r.lang)
	addr.StateCode = entry.Code
	clearDistrict(addr)
	return nil
}

// SelectDistrict sets the district and clears the city. It requires a selected state.
func (r *Resolver) SelectDistrict(addr *models.Address, code string, districts []models.ReferenceEntry) error {
	if addr.StateCode == "" {
		return models.ErrParentNotSelected
	}
	code = strings.TrimSpace(code)
	if code == "" {
		clearDistrict(addr)
		return nil
	}
	entry, ok := find(districts, code)
	if !ok {
		return models.ErrUnknownReference
	}
	addr.District = entry.Label(r.lang)
	addr.DistrictCode = entry.Code
	clearCity(addr)
	return nil
}

// SelectCity sets the city from a reference code or, for a custom selection,
// from free text. It requires a selected district.
func (r *Resolver) SelectCity(addr *models.Address, sel models.Selection, customText string, cities []models.ReferenceEntry) error {
	if addr.DistrictCode == "" {
		return models.ErrParentNotSelected
	}
	if sel.IsCustom() {
		addr.City = strings.TrimSpace(customText)
		addr.CityCode = ""
		return nil
	}
	code, ok := sel.Code()
	if !ok {
		clearCity(addr)
		return nil
	}
	entry, ok := find(cities, code)
	if !ok {
		return models.ErrUnknownReference
	}
	addr.City = entry.Label(r.lang)
	addr.CityCode = entry.Code
	return nil
}

// ClearState removes the state and cascades to district and city.
func ClearState(addr *models.Address) {
	addr.State = ""
	addr.StateCode = ""
	clearDistrict(addr)
}

func clearDistrict(addr *models.Address) {
	addr.District = ""
	addr.DistrictCode = ""
	clearCity(addr)
}

func clearCity(addr *models.Address) {
	addr.City = ""
	addr.CityCode = ""
}

// Attempts remembers which (address, level, name, list version) tuples were
// already reconciled so a pass never loops on an unresolvable name.
type Attempts map[string]struct{}

func (a Attempts) seen(key string) bool {
	_, ok := a[key]
	return ok
}

func (a Attempts) Clone() Attempts {
	out := make(Attempts, len(a))
	for k := range a {
		out[k] = struct{}{}
	}
	return out
}

// Unresolved reports whether some level of addrs has a name without a code
// while its parent code is known, i.e. Reconcile could still fill it in.
func Unresolved(addrs models.Addresses) bool {
	for _, kind := range models.AddressKinds {
		addr := addrs.Get(kind)
		for _, level := range levels {
			if pending(addr, level) {
				return true
			}
		}
	}
	return false
}

var levels = []models.Level{models.LevelState, models.LevelDistrict, models.LevelCity}

func pending(addr *models.Address, level models.Level) bool {
	name, code, parentCode := fields(addr, level)
	if name == nil || *code != "" || strings.TrimSpace(*name) == "" {
		return false
	}
	return level == models.LevelState || parentCode != ""
}

// Reconcile backfills the code of level from its stored name when the code is
// empty and the name matches an entry of list in any language, ignoring case.
// The first match in list order wins. A code the user already set is never
// overwritten. Each tuple is attempted once; the return value reports whether
// a code was written.
func (r *Resolver) Reconcile(addr *models.Address, kind models.AddressKind, level models.Level, list []models.ReferenceEntry, version string, attempts Attempts) bool {
	if !pending(addr, level) {
		return false
	}
	name, code, _ := fields(addr, level)
	key := string(kind) + "|" + string(level) + "|" + strings.ToLower(strings.TrimSpace(*name)) + "|" + version
	if attempts.seen(key) {
		return false
	}
	attempts[key] = struct{}{}

	entry, ok := matchName(list, *name)
	if !ok {
		return false
	}
	*code = entry.Code
	return true
}

// ReconcileAll runs Reconcile for every level in parent-first order. lists
// supplies the reference list for a level given the parent code and is only
// called for levels that still need a code; a nil list means the data is not
// available yet, and that level is retried on the next pass.
func (r *Resolver) ReconcileAll(addr *models.Address, kind models.AddressKind, attempts Attempts, lists func(level models.Level, parentCode string) []models.ReferenceEntry) bool {
	changed := false
	for _, level := range levels {
		_, _, parentCode := fields(addr, level)
		if level != models.LevelState && parentCode == "" {
			break
		}
		if !pending(addr, level) {
			continue
		}
		list := lists(level, parentCode)
		if list == nil {
			continue
		}
		if r.Reconcile(addr, kind, level, list, ListVersion(list), attempts) {
			changed = true
		}
	}
	return changed
}

func fields(addr *models.Address, level models.Level) (name, code *string, parentCode string) {
	switch level {
	case models.LevelState:
		return &addr.State, &addr.StateCode, ""
	case models.LevelDistrict:
		return &addr.District, &addr.DistrictCode, addr.StateCode
	case models.LevelCity:
		return &addr.City, &addr.CityCode, addr.DistrictCode
	}
	return nil, nil, ""
}

func find(list []models.ReferenceEntry, code string) (models.ReferenceEntry, bool) {
	for _, e := range list {
		if e.Code == code {
			return e, true
		}
	}
	return models.ReferenceEntry{}, false
}

func matchName(list []models.ReferenceEntry, name string) (models.ReferenceEntry, bool) {
	name = strings.TrimSpace(name)
	for _, e := range list {
		for _, localized := range e.Name {
			if strings.EqualFold(strings.TrimSpace(localized), name) {
				return e, true
			}
		}
	}
	return models.ReferenceEntry{}, false
}

// ListVersion fingerprints a reference list by content.
func ListVersion(list []models.ReferenceEntry) string {
	h := fnv.New64a()
	for _, e := range list {
		_, _ = h.Write([]byte(e.Code))
		_, _ = h.Write([]byte{0})
		langs := make([]string, 0, len(e.Name))
		for lang := range e.Name {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		for _, lang := range langs {
			_, _ = h.Write([]byte(lang))
			_, _ = h.Write([]byte{1})
			_, _ = h.Write([]byte(e.Name[lang]))
			_, _ = h.Write([]byte{2})
		}
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
