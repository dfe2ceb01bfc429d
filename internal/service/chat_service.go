package service

import (
	"context"
	"strings"
	"time"

	"virtual-hr-be/internal/dto"
	"virtual-hr-be/pkg/apperror"
	"virtual-hr-be/pkg/store"
)

type IChatService interface {
	SendChat(ctx context.Context, employeeId, employeeName string, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	GetChatHistory(ctx context.Context, employeeId string) (*dto.GetChatHistoryResponse, error)
	ClearChatHistory(ctx context.Context, employeeId string) error
}

// ChatDispatcher is the orchestration entry point the chat API drives.
type ChatDispatcher interface {
	HandleMessage(ctx context.Context, employeeID, employeeName, message string) (string, error)
	History(ctx context.Context, employeeID string) ([]store.Message, error)
	Reset(ctx context.Context, employeeID string) error
}

type chatService struct {
	dispatcher ChatDispatcher
	now        func() time.Time
}

func NewChatService(dispatcher ChatDispatcher) IChatService {
	return &chatService{dispatcher: dispatcher, now: time.Now}
}

func (cs *chatService) SendChat(ctx context.Context, employeeId, employeeName string, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	if strings.TrimSpace(request.Message) == "" {
		return nil, apperror.NewValidationError("message", "must not be empty")
	}

	reply, err := cs.dispatcher.HandleMessage(ctx, employeeId, employeeName, request.Message)
	if err != nil {
		return nil, err
	}

	return &dto.SendChatResponse{
		EmployeeId: employeeId,
		Response:   reply,
		Timestamp:  cs.now(),
	}, nil
}

func (cs *chatService) GetChatHistory(ctx context.Context, employeeId string) (*dto.GetChatHistoryResponse, error) {
	messages, err := cs.dispatcher.History(ctx, employeeId)
	if err != nil {
		return nil, err
	}

	res := &dto.GetChatHistoryResponse{
		EmployeeId: employeeId,
		Messages:   make([]dto.ChatHistoryItem, 0, len(messages)),
	}
	for _, m := range messages {
		res.Messages = append(res.Messages, dto.ChatHistoryItem{
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}
	return res, nil
}

func (cs *chatService) ClearChatHistory(ctx context.Context, employeeId string) error {
	return cs.dispatcher.Reset(ctx, employeeId)
}
