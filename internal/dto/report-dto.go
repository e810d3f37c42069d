package dto

import "github.com/aarondl/null/v8"

// LoanRowDTO — одна строка отчёта "кто что держит".
type LoanRowDTO struct {
	AssetID      string      `json:"assetId"`
	AssetName    string      `json:"assetName"`
	Type         string      `json:"type"`
	Status       string      `json:"status"`
	Holder       string      `json:"holder"`
	Company      null.String `json:"company,omitempty"`
	CheckedOutAt null.Time   `json:"checkedOutAt,omitempty"`
	DueDate      null.Time   `json:"dueDate,omitempty"`
	Overdue      bool        `json:"overdue"`
}

type HolderGroupDTO struct {
	Holder string       `json:"holder"`
	Count  int          `json:"count"`
	Assets []LoanRowDTO `json:"assets"`
}
