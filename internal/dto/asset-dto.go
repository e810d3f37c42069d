package dto

type CreateAssetDTO struct {
	Name      string                 `json:"name" validate:"required"`
	Type      string                 `json:"type" validate:"required,asset_type"`
	Area      string                 `json:"area"`
	TotalKeys *int                   `json:"totalKeys,omitempty"`
	QRCode    string                 `json:"qrCode,omitempty"`
	MetaData  map[string]interface{} `json:"metaData,omitempty"`
}

type UpdateAssetDTO struct {
	Name     *string                `json:"name,omitempty"`
	Area     *string                `json:"area,omitempty"`
	QRCode   *string                `json:"qrCode,omitempty"`
	MetaData map[string]interface{} `json:"metaData,omitempty"`
}
