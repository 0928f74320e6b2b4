package domain

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
)

// Messages reported for rejected design input.
const (
	MsgFoundationType = "Foundation type is required and must be a string."
	MsgElevation      = "Elevation height is required and must be a valid number."
	MsgMaterials      = "Materials must be an array and cannot be empty."
	MsgFeatures       = "Flood mitigation features must be an array and cannot be empty."
	MsgMalformed      = "Request body must be a JSON object."
)

// DesignInput is a building design as submitted by a caller. ElevationHeight
// is a pointer so a missing value can be told apart from zero.
type DesignInput struct {
	FoundationType     string   `json:"foundationType"`
	ElevationHeight    *float64 `json:"elevationHeight"`
	Materials          []string `json:"materials"`
	MitigationFeatures []string `json:"floodMitigationFeatures"`
}

// ValidationError describes why a design input was rejected. Message is safe
// to return to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validate checks the required fields and returns the design they describe.
func (in DesignInput) Validate() (BuildingDesign, error) {
	switch {
	case in.FoundationType == "":
		return BuildingDesign{}, &ValidationError{Field: "foundationType", Message: MsgFoundationType}
	case in.ElevationHeight == nil || math.IsNaN(*in.ElevationHeight) || math.IsInf(*in.ElevationHeight, 0):
		return BuildingDesign{}, &ValidationError{Field: "elevationHeight", Message: MsgElevation}
	case len(in.Materials) == 0:
		return BuildingDesign{}, &ValidationError{Field: "materials", Message: MsgMaterials}
	case len(in.MitigationFeatures) == 0:
		return BuildingDesign{}, &ValidationError{Field: "floodMitigationFeatures", Message: MsgFeatures}
	}

	return BuildingDesign{
		FoundationType:     in.FoundationType,
		ElevationHeight:    *in.ElevationHeight,
		Materials:          in.Materials,
		MitigationFeatures: in.MitigationFeatures,
	}, nil
}

// DecodeError maps a JSON decoding error to a ValidationError. A wrongly typed
// field reports that field's message; anything else is a malformed document.
func DecodeError(err error) *ValidationError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field, _, _ := strings.Cut(typeErr.Field, ".")
		switch field {
		case "foundationType":
			return &ValidationError{Field: field, Message: MsgFoundationType}
		case "elevationHeight":
			return &ValidationError{Field: field, Message: MsgElevation}
		case "materials":
			return &ValidationError{Field: field, Message: MsgMaterials}
		case "floodMitigationFeatures":
			return &ValidationError{Field: field, Message: MsgFeatures}
		}
	}
	return &ValidationError{Message: MsgMalformed}
}
