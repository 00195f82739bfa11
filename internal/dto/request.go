package dto

type OpenSessionRequest struct {
	Form string `json:"form"`
}

type CreateBookingRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	BusinessName string `json:"business_name"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Timezone     string `json:"timezone"`
	BotField     string `json:"bot_field"`
}

type CreateContactRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Message  string `json:"message"`
	BotField string `json:"bot_field"`
}
