package dto

import "time"

type SendChatRequest struct {
	Message      string `json:"message" validate:"required,max=4000"`
	EmployeeId   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
}

type SendChatResponse struct {
	EmployeeId string    `json:"employee_id"`
	Response   string    `json:"response"`
	Timestamp  time.Time `json:"timestamp"`
}

type ChatHistoryItem struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type GetChatHistoryResponse struct {
	EmployeeId string            `json:"employee_id"`
	Messages   []ChatHistoryItem `json:"messages"`
}
