package models

// PaymentMethod is a simulated stored card. Nothing about it is persisted or charged.
type PaymentMethod struct {
	Brand     string `json:"brand"`
	Holder    string `json:"holder"`
	Last4     string `json:"last4"`
	Exp       string `json:"exp"`
	IsDefault bool   `json:"is_default"`
}
