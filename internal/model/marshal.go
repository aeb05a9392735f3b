package model

import (
	"encoding/json"
	"fmt"
)

// mitigatorRecord is the versioned wire form of a fitted mitigator.
type mitigatorRecord struct {
	SchemaVersion string          `json:"schema_version"`
	Method        Method          `json:"method"`
	UnitCount     int             `json:"unit_count"`
	UnitLabels    []string        `json:"unit_labels"`
	Warnings      []string        `json:"warnings,omitempty"`
	Model         json.RawMessage `json:"model"`
}

// MarshalJSON serializes the mitigator as a versioned record. The model
// payload is the single variant matching Method.
func (m *Mitigator) MarshalJSON() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("marshal mitigator: %w", err)
	}
	var payload any
	switch m.Method {
	case MethodComplete:
		payload = m.Complete
	case MethodTensored:
		payload = m.Tensored
	case MethodCTMP:
		payload = m.CTMP
	}
	modelBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal mitigator model: %w", err)
	}
	return json.Marshal(mitigatorRecord{
		SchemaVersion: SchemaVersion,
		Method:        m.Method,
		UnitCount:     m.NumUnits,
		UnitLabels:    m.UnitLabels,
		Warnings:      m.Warnings,
		Model:         modelBytes,
	})
}

// UnmarshalJSON parses a versioned mitigator record and validates the
// reconstructed model.
func (m *Mitigator) UnmarshalJSON(data []byte) error {
	var rec mitigatorRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("unmarshal mitigator: %w", err)
	}
	if rec.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unmarshal mitigator: unsupported schema version %q (want %q)", rec.SchemaVersion, SchemaVersion)
	}
	out := Mitigator{
		Method:     rec.Method,
		NumUnits:   rec.UnitCount,
		UnitLabels: rec.UnitLabels,
		Warnings:   rec.Warnings,
	}
	switch rec.Method {
	case MethodComplete:
		out.Complete = &AssignmentMatrix{}
		if err := json.Unmarshal(rec.Model, out.Complete); err != nil {
			return fmt.Errorf("unmarshal assignment matrix: %w", err)
		}
	case MethodTensored:
		out.Tensored = &TensoredMatrices{}
		if err := json.Unmarshal(rec.Model, out.Tensored); err != nil {
			return fmt.Errorf("unmarshal tensored matrices: %w", err)
		}
	case MethodCTMP:
		out.CTMP = &CTMPGenerator{}
		if err := json.Unmarshal(rec.Model, out.CTMP); err != nil {
			return fmt.Errorf("unmarshal ctmp generator: %w", err)
		}
	default:
		return fmt.Errorf("unmarshal mitigator: unknown method %q", rec.Method)
	}
	if err := out.Validate(); err != nil {
		return fmt.Errorf("unmarshal mitigator: %w", err)
	}
	*m = out
	return nil
}
