package service

import (
	"context"

	"virtual-hr-be/internal/dto"
	"virtual-hr-be/pkg/agent/feedback"
	"virtual-hr-be/pkg/agent/leave"
)

type IHRService interface {
	LeaveHistory(ctx context.Context, employeeId string) ([]*dto.LeaveRecordResponse, error)
	LeaveBalance(ctx context.Context, employeeId string) ([]*dto.LeaveBalanceResponse, error)
	UpdateLeaveStatus(ctx context.Context, isHR bool, request *dto.UpdateLeaveStatusRequest) (*dto.LeaveRecordResponse, error)
	FeedbackTrends(ctx context.Context, isHR bool) (*dto.FeedbackTrendsResponse, error)
	QueueDocument(ctx context.Context, request *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error)
}

type hrService struct {
	leaveAgent    *leave.Agent
	feedbackAgent *feedback.Agent
	publisher     IPublisherService
}

func NewHRService(leaveAgent *leave.Agent, feedbackAgent *feedback.Agent, publisher IPublisherService) IHRService {
	return &hrService{
		leaveAgent:    leaveAgent,
		feedbackAgent: feedbackAgent,
		publisher:     publisher,
	}
}

func (s *hrService) LeaveHistory(ctx context.Context, employeeId string) ([]*dto.LeaveRecordResponse, error) {
	records, err := s.leaveAgent.History(ctx, employeeId)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.LeaveRecordResponse, 0, len(records))
	for _, r := range records {
		res = append(res, toLeaveRecordResponse(r))
	}
	return res, nil
}

func (s *hrService) LeaveBalance(ctx context.Context, employeeId string) ([]*dto.LeaveBalanceResponse, error) {
	lines, err := s.leaveAgent.Balance(ctx, employeeId)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.LeaveBalanceResponse, 0, len(lines))
	for _, l := range lines {
		res = append(res, &dto.LeaveBalanceResponse{
			LeaveType:   string(l.Type),
			Entitlement: l.Entitlement,
			Used:        l.Used,
			Pending:     l.Pending,
			Remaining:   l.Remaining,
		})
	}
	return res, nil
}

func (s *hrService) UpdateLeaveStatus(ctx context.Context, isHR bool, request *dto.UpdateLeaveStatusRequest) (*dto.LeaveRecordResponse, error) {
	rec, err := s.leaveAgent.UpdateStatus(ctx, leave.Decision{
		EmployeeID: request.EmployeeId,
		Status:     leave.Status(request.Status),
		Reason:     request.Reason,
		StartDate:  request.StartDate,
		ByHR:       isHR,
	})
	if err != nil {
		return nil, err
	}
	return toLeaveRecordResponse(rec), nil
}

func (s *hrService) FeedbackTrends(ctx context.Context, isHR bool) (*dto.FeedbackTrendsResponse, error) {
	t, err := s.feedbackAgent.Trends(ctx, isHR)
	if err != nil {
		return nil, err
	}
	return &dto.FeedbackTrendsResponse{
		Total:             t.Total,
		Positive:          t.Positive,
		Neutral:           t.Neutral,
		Negative:          t.Negative,
		RecentActionItems: t.RecentActionItems,
		Summary:           t.Summary(),
	}, nil
}

func (s *hrService) QueueDocument(ctx context.Context, request *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error) {
	source := request.Source
	if source == "" {
		source = request.DocumentId
	}

	err := s.publisher.SendIngestDocument(ctx, dto.PublishIngestDocumentMessage{
		DocumentId: request.DocumentId,
		Source:     source,
		Content:    request.Content,
	})
	if err != nil {
		return nil, err
	}
	return &dto.IngestDocumentResponse{DocumentId: request.DocumentId, Queued: true}, nil
}

func toLeaveRecordResponse(r leave.Record) *dto.LeaveRecordResponse {
	return &dto.LeaveRecordResponse{
		RequestId:    r.RequestID,
		EmployeeId:   r.EmployeeID,
		EmployeeName: r.EmployeeName,
		LeaveType:    string(r.Type),
		StartDate:    r.StartDate,
		EndDate:      r.EndDate,
		NumDays:      r.Days,
		Status:       string(r.Status),
		RequestedOn:  r.RequestedOn,
		DecidedOn:    r.DecidedOn,
		Comments:     r.Comments,
	}
}
