package models

import (
	"strconv"
	"time"
)

// Well-known setting keys.
const (
	SettingAnthropicAPIKey = "anthropic_api_key"
	SettingAIModel         = "ai_model"
	SettingAITemperature   = "ai_temperature"
	SettingAIMaxTokens     = "ai_max_tokens"
)

// AppSetting is one key/value row of app_settings.
type AppSetting struct {
	Key         string       `json:"key"`
	Value       SettingValue `json:"value"`
	Description string       `json:"description,omitempty"`
	UpdatedAt   *time.Time   `json:"updated_at,omitempty"`
}

// IsSecret reports whether the value should be masked when displayed.
func (s AppSetting) IsSecret() bool {
	return s.Key == SettingAnthropicAPIKey
}

// SettingValue is the textual value of a setting. Numbers and booleans
// stored in the value column are read as their decimal text.
type SettingValue string

func (v *SettingValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = ""
	case string:
		*v = SettingValue(x)
	case float64:
		*v = SettingValue(strconv.FormatFloat(x, 'f', -1, 64))
	case bool:
		*v = SettingValue(strconv.FormatBool(x))
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return err
		}
		*v = SettingValue(b)
	}
	return nil
}
