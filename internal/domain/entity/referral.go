package entity

type Referral struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	EventID         string  `json:"event_id"`
	Code            string  `json:"code"`
	Earnings        float64 `json:"earnings"`
	ConversionCount int     `json:"conversion_count"`
	CreatedAt       int64   `json:"created_at"`
}
