package models

import "time"

type SystemSetting struct {
	ID              int       `json:"id"`
	SettingKey      string    `json:"setting_key"`
	SettingValue    string    `json:"setting_value"`
	Description     string    `json:"description"`
	UpdatedAt       time.Time `json:"updated_at"`
	UpdatedByUserID int       `json:"updated_by_user_id"`
}

type UpdateSettingRequest struct {
	SettingValue string `json:"setting_value"`
}

// Setting keys for per-entry-type stake caps. A missing or blank value
// means the type has no cap.
const (
	SettingMaxAmountOpen   = "max_amount_open"
	SettingMaxAmountAkra   = "max_amount_akra"
	SettingMaxAmountRing   = "max_amount_ring"
	SettingMaxAmountPacket = "max_amount_packet"
)
