package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Property types accepted by POST /property-search.
const (
	PropertyTypeUrban = "urban"
	PropertyTypeRural = "rural"

	PartyTypeName    = "name"
	PartyTypeAddress = "address"
)

// Form field names understood by the site adapters.
const (
	FieldPartyName = "party_name"
	FieldSRO       = "sro"
	FieldRegYear   = "reg_year"
	FieldAddress   = "address"
	FieldDistrict  = "district"
	FieldDivision  = "division"
	FieldVillage   = "village"
	FieldRectangle = "rectangle"
	FieldKhasra    = "khasra"
)

// SearchRequest is the payload for POST /property-search.
//
// The body is a flat JSON object; PropertyType and PartyType are lifted out
// and every other scalar member is kept in Fields as text so adapters can
// pick the subset they understand.
type SearchRequest struct {
	// PropertyType is "urban" or "rural" (case-insensitive). Required.
	PropertyType string

	// PartyType selects the urban search mode: "address" or anything else
	// (including empty) for search by name.
	PartyType string

	// Fields maps form field name to its raw string value.
	Fields map[string]string
}

// ParseSearchRequest builds a SearchRequest from a decoded JSON object.
// String members are kept verbatim, numbers keep their literal text and
// booleans are rendered as "true"/"false". Nulls, arrays and objects are
// ignored. A falsy property_type (0, false, "", null, [] or {}) counts as
// missing; any other non-string one is kept as its JSON text so it can be
// echoed back in the validation error.
func ParseSearchRequest(body map[string]json.RawMessage) *SearchRequest {
	req := &SearchRequest{Fields: make(map[string]string, len(body))}
	for key, raw := range body {
		v, ok := scalarText(raw)
		switch key {
		case "property_type":
			switch {
			case IsFalsyJSON(raw):
				// missing
			case ok:
				req.PropertyType = v
			default:
				req.PropertyType = strings.TrimSpace(string(raw))
			}
		case "party_type":
			req.PartyType = v
		default:
			if ok {
				req.Fields[key] = v
			}
		}
	}
	return req
}

// Field returns the named field or "" if it was not supplied.
func (r *SearchRequest) Field(name string) string {
	return r.Fields[name]
}

// IsUrban reports whether the property type is urban (case-insensitive).
func (r *SearchRequest) IsUrban() bool {
	return strings.EqualFold(r.PropertyType, PropertyTypeUrban)
}

// IsRural reports whether the property type is rural (case-insensitive).
func (r *SearchRequest) IsRural() bool {
	return strings.EqualFold(r.PropertyType, PropertyTypeRural)
}

// ByAddress reports whether an urban search should go by address.
func (r *SearchRequest) ByAddress() bool {
	return strings.EqualFold(r.PartyType, PartyTypeAddress)
}

// IsFalsyJSON reports whether raw is null, false, zero, an empty string, an
// empty array or an empty object. Invalid JSON is not falsy.
func IsFalsyJSON(raw json.RawMessage) bool {
	var v any
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

func scalarText(raw json.RawMessage) (string, bool) {
	var v any
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}
