package model

// UserProfile 是经理名片信息，整体透传给远端后端保存。
type UserProfile struct {
	ManagerName string `json:"manager_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
}

// CurrencyRate 是汇率接口的返回值。
type CurrencyRate struct {
	Currency string  `json:"currency"`
	Rate     float64 `json:"rate"`
	Source   string  `json:"source"`
}
