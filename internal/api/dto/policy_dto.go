package dto

// PolicyRequest payload for create and update.
type PolicyRequest struct {
	ChannelID   *string `json:"channel_id"`
	ComplaintID string  `json:"complaint_id"`
	Service     *string `json:"service"`
	SlaHours    int     `json:"sla_hours"`
	UicID       string  `json:"uic_id"`
	Description string  `json:"description"`
}

// PolicyResponse is one policy row.
type PolicyResponse struct {
	ID          int64   `json:"id"`
	ChannelID   *string `json:"channel_id"`
	ComplaintID string  `json:"complaint_id"`
	Service     *string `json:"service"`
	SlaHours    int     `json:"sla_hours"`
	UicID       string  `json:"uic_id"`
	Description string  `json:"description"`
}
