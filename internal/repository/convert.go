package repository

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/vladimiradmaev/profile-switcher/internal/database"
	"github.com/vladimiradmaev/profile-switcher/internal/domain"
)

func marshalBlocks(v any) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode blocks: %w", err)
	}
	return datatypes.JSON(data), nil
}

func unmarshalBlocks(data datatypes.JSON, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode blocks: %w", err)
	}
	return nil
}

func toSwitchRow(r *domain.SwitchRecord) (*database.ProfileSwitch, error) {
	row := &database.ProfileSwitch{
		RecordID:          r.ID,
		Timestamp:         r.Timestamp,
		ProfileName:       r.ProfileName,
		GlucoseUnit:       string(r.GlucoseUnit),
		Percentage:        r.Percentage,
		TimeShiftHours:    r.TimeShiftHours,
		DurationMillis:    r.DurationMillis,
		InsulinLabel:      r.Insulin.Label,
		InsulinEndMillis:  r.Insulin.EndMillis,
		InsulinPeakMillis: r.Insulin.PeakMillis,
	}

	var err error
	if row.BasalBlocks, err = marshalBlocks(r.BasalBlocks); err != nil {
		return nil, err
	}
	if row.ISFBlocks, err = marshalBlocks(r.ISFBlocks); err != nil {
		return nil, err
	}
	if row.ICBlocks, err = marshalBlocks(r.ICBlocks); err != nil {
		return nil, err
	}
	if row.TargetBlocks, err = marshalBlocks(r.TargetBlocks); err != nil {
		return nil, err
	}
	return row, nil
}

func fromSwitchRow(row *database.ProfileSwitch) (*domain.SwitchRecord, error) {
	r := &domain.SwitchRecord{
		ID:             row.RecordID,
		Timestamp:      row.Timestamp,
		ProfileName:    row.ProfileName,
		GlucoseUnit:    domain.GlucoseUnit(row.GlucoseUnit),
		Percentage:     row.Percentage,
		TimeShiftHours: row.TimeShiftHours,
		DurationMillis: row.DurationMillis,
		Insulin: domain.InsulinConfiguration{
			Label:      row.InsulinLabel,
			EndMillis:  row.InsulinEndMillis,
			PeakMillis: row.InsulinPeakMillis,
		},
	}

	if err := unmarshalBlocks(row.BasalBlocks, &r.BasalBlocks); err != nil {
		return nil, err
	}
	if err := unmarshalBlocks(row.ISFBlocks, &r.ISFBlocks); err != nil {
		return nil, err
	}
	if err := unmarshalBlocks(row.ICBlocks, &r.ICBlocks); err != nil {
		return nil, err
	}
	if err := unmarshalBlocks(row.TargetBlocks, &r.TargetBlocks); err != nil {
		return nil, err
	}
	return r, nil
}

func toDefinitionRow(def *domain.ProfileDefinition) (*database.ProfileDefinition, error) {
	row := &database.ProfileDefinition{
		Name:        def.Name,
		GlucoseUnit: string(def.GlucoseUnit),
		DIA:         def.DIA,
	}

	var err error
	if row.BasalBlocks, err = marshalBlocks(def.BasalBlocks); err != nil {
		return nil, err
	}
	if row.ISFBlocks, err = marshalBlocks(def.ISFBlocks); err != nil {
		return nil, err
	}
	if row.ICBlocks, err = marshalBlocks(def.ICBlocks); err != nil {
		return nil, err
	}
	if row.TargetBlocks, err = marshalBlocks(def.TargetBlocks); err != nil {
		return nil, err
	}
	return row, nil
}

func fromDefinitionRow(row *database.ProfileDefinition) (*domain.ProfileDefinition, error) {
	def := &domain.ProfileDefinition{
		Name:        row.Name,
		GlucoseUnit: domain.GlucoseUnit(row.GlucoseUnit),
		DIA:         row.DIA,
	}

	if err := unmarshalBlocks(row.BasalBlocks, &def.BasalBlocks); err != nil {
		return nil, err
	}
	if err := unmarshalBlocks(row.ISFBlocks, &def.ISFBlocks); err != nil {
		return nil, err
	}
	if err := unmarshalBlocks(row.ICBlocks, &def.ICBlocks); err != nil {
		return nil, err
	}
	if err := unmarshalBlocks(row.TargetBlocks, &def.TargetBlocks); err != nil {
		return nil, err
	}
	return def, nil
}
