package dbmodels

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"
)

type EntityChanges struct {
	Description string         `json:"description"` // comment
	Data        []FieldChanges `json:"data"`        // changed fields
}

type FieldChanges struct {
	Field    string `json:"field"`     // changed field
	OldValue any    `json:"old_value"` // value before
	NewValue any    `json:"new_value"` // value after
}

func (j EntityChanges) Value() (driver.Value, error) {
	valueString, err := json.Marshal(j)
	return string(valueString), err
}

func (j *EntityChanges) Scan(value any) error {
	data, err := jsonbBytes(value)
	if err != nil || data == nil {
		return err
	}
	return json.Unmarshal(data, &j)
}

// JSONMap free-form jsonb object
type JSONMap map[string]any

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	valueString, err := json.Marshal(j)
	return string(valueString), err
}

func (j *JSONMap) Scan(value any) error {
	data, err := jsonbBytes(value)
	if err != nil || data == nil {
		return err
	}
	result := map[string]any{}
	if err = json.Unmarshal(data, &result); err != nil {
		return err
	}
	*j = result
	return nil
}

func jsonbBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, errors.Errorf("unsupported jsonb value type %T", value)
}
