package dto

type ImportErrorDTO struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResultDTO — итог массового импорта. Ошибки копятся построчно,
// импорт не прерывается на первой: частичный успех должен быть виден.
type ImportResultDTO struct {
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	Errors  []ImportErrorDTO `json:"errors,omitempty"`
}
