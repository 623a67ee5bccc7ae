package models

// Slot names one of the four kinship labels collected by the wizard.
type Slot string

const (
	SlotSelf   Slot = "self"
	SlotMother Slot = "mother"
	SlotDadi   Slot = "dadi"
	SlotNani   Slot = "nani"
)

// Slots lists the kinship slots in display order.
var Slots = []Slot{SlotSelf, SlotMother, SlotDadi, SlotNani}

func (s Slot) Valid() bool {
	switch s {
	case SlotSelf, SlotMother, SlotDadi, SlotNani:
		return true
	}
	return false
}

// KinshipSet holds the four gotra selections. Free text for custom slots
// lives in Custom, keyed by slot, so that switching a slot back to a
// predefined value never drops what the user typed.
type KinshipSet struct {
	Self   Selection       `json:"self"`
	Mother Selection       `json:"mother"`
	Dadi   Selection       `json:"dadi"`
	Nani   Selection       `json:"nani"`
	Custom map[Slot]string `json:"custom,omitempty"`
}

// Get returns the selection held in slot.
func (k *KinshipSet) Get(slot Slot) Selection {
	if p := k.ref(slot); p != nil {
		return *p
	}
	return Selection{}
}

// Put stores sel in slot. Unknown slots are ignored.
func (k *KinshipSet) Put(slot Slot, sel Selection) {
	if p := k.ref(slot); p != nil {
		*p = sel
	}
}

func (k *KinshipSet) ref(slot Slot) *Selection {
	switch slot {
	case SlotSelf:
		return &k.Self
	case SlotMother:
		return &k.Mother
	case SlotDadi:
		return &k.Dadi
	case SlotNani:
		return &k.Nani
	}
	return nil
}

func (k KinshipSet) clone() KinshipSet {
	out := k
	if k.Custom != nil {
		out.Custom = make(map[Slot]string, len(k.Custom))
		for slot, text := range k.Custom {
			out.Custom[slot] = text
		}
	}
	return out
}
