package models

import "time"

// ResponseTypeAnalysis tags exchanges produced by the analysis responder.
const ResponseTypeAnalysis = "analysis_response"

// ChatExchange stores one user message and the reply it received.
// Exchanges are append-only.
type ChatExchange struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Message   string    `json:"message" gorm:"type:text"`
	Reply     string    `json:"reply" gorm:"type:text"`
	Type      string    `json:"type" gorm:"type:varchar(64);default:analysis_response"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
