// Package kinship resolves the four gotra slots, each either a reference
// value or free text.
package kinship

import (
	"fmt"
	"strings"

	"membership/internal/registration/models"
)

// SetSlot stores sel in slot. Choosing custom re-shows any text typed
// earlier for the slot; choosing a predefined value leaves that text in place
// but unused.
func SetSlot(set *models.KinshipSet, slot models.Slot, sel models.Selection) error {
	if !slot.Valid() {
		return fmt.Errorf("unknown kinship slot %q", slot)
	}
	set.Put(slot, sel)
	return nil
}

// SetCustomText records free text for slot without changing its selection.
func SetCustomText(set *models.KinshipSet, slot models.Slot, text string) error {
	if !slot.Valid() {
		return fmt.Errorf("unknown kinship slot %q", slot)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		delete(set.Custom, slot)
		if len(set.Custom) == 0 {
			set.Custom = nil
		}
		return nil
	}
	if set.Custom == nil {
		set.Custom = make(map[models.Slot]string, 1)
	}
	set.Custom[slot] = text
	return nil
}

// CustomText returns the free text remembered for slot.
func CustomText(set models.KinshipSet, slot models.Slot) string {
	return set.Custom[slot]
}

// Resolve returns the value submitted for slot: the reference code when one
// is selected, the free text when the slot is custom, else "".
func Resolve(set models.KinshipSet, slot models.Slot) string {
	sel := set.Get(slot)
	if code, ok := sel.Code(); ok {
		return code
	}
	if sel.IsCustom() {
		return set.Custom[slot]
	}
	return ""
}

// ResolveAll resolves every slot.
func ResolveAll(set models.KinshipSet) map[models.Slot]string {
	out := make(map[models.Slot]string, len(models.Slots))
	for _, slot := range models.Slots {
		out[slot] = Resolve(set, slot)
	}
	return out
}

// Validate requires the self slot; the other slots are optional.
func Validate(set models.KinshipSet) []models.FieldError {
	if Resolve(set, models.SlotSelf) == "" {
		msg := "select your gotra"
		if set.Self.IsCustom() {
			msg = "enter your gotra"
		}
		return []models.FieldError{{Field: "kinship.self", Message: msg}}
	}
	return nil
}
