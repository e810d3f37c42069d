package dto

import "time"

type CheckOutDTO struct {
	Recipient string     `json:"recipient" validate:"required"`
	Company   string     `json:"company,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
	LoanType  string     `json:"loanType,omitempty"`
}

type CheckInDTO struct {
	Notes string `json:"notes,omitempty"`
}

type ReportMissingDTO struct {
	Reason string `json:"reason" validate:"required"`
}
