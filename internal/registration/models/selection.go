package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CustomSentinel is the wire marker clients send to pick free text over a
// reference value. It never appears inside a Selection.
const CustomSentinel = "CUSTOM"

// SelectionKind tags a Selection.
type SelectionKind uint8

const (
	SelectionUnset SelectionKind = iota
	SelectionPredefined
	SelectionCustom
)

// Selection is either a predefined reference code or a marker that the value
// is free text held elsewhere. The zero value is unset.
type Selection struct {
	kind SelectionKind
	code string
}

// Predefined selects a reference code. An empty code yields an unset selection.
func Predefined(code string) Selection {
	code = strings.TrimSpace(code)
	if code == "" {
		return Selection{}
	}
	return Selection{kind: SelectionPredefined, code: code}
}

// Custom marks the selection as free text.
func Custom() Selection {
	return Selection{kind: SelectionCustom}
}

// ParseSelection converts a wire value (code, sentinel or empty) into a Selection.
func ParseSelection(value string) Selection {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, CustomSentinel) {
		return Custom()
	}
	return Predefined(value)
}

func (s Selection) Kind() SelectionKind { return s.kind }

func (s Selection) IsSet() bool { return s.kind != SelectionUnset }

func (s Selection) IsCustom() bool { return s.kind == SelectionCustom }

// Code returns the reference code when the selection is predefined.
func (s Selection) Code() (string, bool) {
	if s.kind != SelectionPredefined {
		return "", false
	}
	return s.code, true
}

type selectionJSON struct {
	Kind string `json:"kind"`
	Code string `json:"code,omitempty"`
}

func (s Selection) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case SelectionPredefined:
		return json.Marshal(selectionJSON{Kind: "predefined", Code: s.code})
	case SelectionCustom:
		return json.Marshal(selectionJSON{Kind: "custom"})
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts the tagged form and the legacy bare string form
// ("CUSTOM" or a code).
func (s *Selection) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Selection{}
		return nil
	}
	var legacy string
	if err := json.Unmarshal(data, &legacy); err == nil {
		*s = ParseSelection(legacy)
		return nil
	}
	var tagged selectionJSON
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("decode selection: %w", err)
	}
	switch tagged.Kind {
	case "predefined":
		*s = Predefined(tagged.Code)
	case "custom":
		*s = Custom()
	case "":
		*s = Selection{}
	default:
		return fmt.Errorf("decode selection: unknown kind %q", tagged.Kind)
	}
	return nil
}
