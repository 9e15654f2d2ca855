// Package export flattens every canvas and ships the images, together with
// the survey form, to the document generation service.
package export

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// ChargersField is always sent with ChargersValue and cannot be overridden.
const (
	ChargersField = "noofchargers"
	ChargersValue = "2"
)

// Metadata is the survey form. Field tags are the wire names.
type Metadata struct {
	BuildingName           string `form:"building_name" json:"building_name"`
	Address                string `form:"address" json:"address"`
	SurveyDate             string `form:"survey_date" json:"survey_date"`
	PreparedBy             string `form:"prepared_by" json:"prepared_by"`
	PreparedDate           string `form:"prepared_date" json:"prepared_date"`
	TypeBuilding           string `form:"type_building" json:"type_building"`
	BuildingManagerName    string `form:"building_manager_name" json:"building_manager_name"`
	BuildingManagerEmail   string `form:"building_manager_email" json:"building_manager_email"`
	BuildingManagerPhone   string `form:"building_manager_phone" json:"building_manager_phone"`
	BuildingManagerCompany string `form:"building_manager_company" json:"building_manager_company"`
	OTIC                   string `form:"otic" json:"otic"`
	TapNewOrSpare          string `form:"tap_new_or_spare" json:"tap_new_or_spare"`
	TappingLocation        string `form:"tapping_location" json:"tapping_location"`
	TappingLocationLevel   string `form:"tapping_location_level" json:"tapping_location_level"`
	SiteAssessmentMCCB     string `form:"site_assessment_mccb" json:"site_assessment_mccb"`
	TNBMeter               string `form:"tnb_meter" json:"tnb_meter"`
	TNBNA                  string `form:"tnb_na" json:"tnb_na"`
	ParkingLocation        string `form:"parking_location" json:"parking_location"`
	EVChargerModel         string `form:"ev_charger_model" json:"ev_charger_model"`
	NetworkStrength        string `form:"network_strength" json:"network_strength"`

	// Extra carries additional form fields the service may accept.
	Extra map[string]string `form:"-" json:"extra,omitempty"`
}

// Field is one text part of the request.
type Field struct {
	Name  string
	Value string
}

// FieldNames lists the survey field wire names in form order.
func FieldNames() []string {
	typ := reflect.TypeOf(Metadata{})
	var names []string
	for i := 0; i < typ.NumField(); i++ {
		if tag := typ.Field(i).Tag.Get("form"); tag != "" && tag != "-" {
			names = append(names, tag)
		}
	}
	return names
}

// Set assigns a field by wire name. Unknown names go to Extra; the fixed
// charger count is rejected.
func (m *Metadata) Set(name, value string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("empty field name")
	}
	if name == ChargersField {
		return fmt.Errorf("field %s is fixed at %s", ChargersField, ChargersValue)
	}
	val := reflect.ValueOf(m).Elem()
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		if typ.Field(i).Tag.Get("form") == name {
			val.Field(i).SetString(value)
			return nil
		}
	}
	if m.Extra == nil {
		m.Extra = map[string]string{}
	}
	m.Extra[name] = value
	return nil
}

// Fields returns every text part: survey fields in form order with values
// trimmed, then extras sorted by name, then the charger count.
func (m Metadata) Fields() []Field {
	val := reflect.ValueOf(m)
	typ := val.Type()
	out := make([]Field, 0, typ.NumField()+len(m.Extra)+1)
	known := map[string]bool{ChargersField: true}
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("form")
		if tag == "" || tag == "-" {
			continue
		}
		known[tag] = true
		out = append(out, Field{Name: tag, Value: strings.TrimSpace(val.Field(i).String())})
	}
	var extras []string
	for name := range m.Extra {
		if !known[name] {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	for _, name := range extras {
		out = append(out, Field{Name: name, Value: strings.TrimSpace(m.Extra[name])})
	}
	return append(out, Field{Name: ChargersField, Value: ChargersValue})
}
