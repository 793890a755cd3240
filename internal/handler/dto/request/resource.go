package request

type CreateResourceRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	HourlyRate  *float64 `json:"hourly_rate"`
	DailyRate   *float64 `json:"daily_rate"`
	WeeklyRate  *float64 `json:"weekly_rate"`
	MonthlyRate *float64 `json:"monthly_rate"`
	Deposit     float64  `json:"deposit" binding:"min=0"`
	Currency    string   `json:"currency"`
	Delivery    bool     `json:"delivery_available"`
	DeliveryFee float64  `json:"delivery_fee" binding:"min=0"`
}

type UpdateTiersRequest struct {
	HourlyRate  *float64 `json:"hourly_rate"`
	DailyRate   *float64 `json:"daily_rate"`
	WeeklyRate  *float64 `json:"weekly_rate"`
	MonthlyRate *float64 `json:"monthly_rate"`
	Deposit     float64  `json:"deposit" binding:"min=0"`
	Currency    string   `json:"currency"`
}
