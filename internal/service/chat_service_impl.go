package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/skillcycle/internal/assessment"
	"github.com/alexanderramin/skillcycle/internal/chat"
	"github.com/alexanderramin/skillcycle/internal/db"
	"github.com/alexanderramin/skillcycle/internal/domain"
	"github.com/alexanderramin/skillcycle/internal/repository"
	"github.com/google/uuid"
)

type chatService struct {
	sender        Sender
	conversations repository.ConversationRepo
	answers       repository.AnswerRepo
	uow           db.UnitOfWork
	observer      UseCaseObserver
	now           func() time.Time
}

func NewChatService(
	sender Sender,
	conversations repository.ConversationRepo,
	answers repository.AnswerRepo,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) ChatService {
	return &chatService{
		sender:        sender,
		conversations: conversations,
		answers:       answers,
		uow:           uow,
		observer:      useCaseObserverOrNoop(observers),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *chatService) Ask(ctx context.Context, req AskRequest) (conv *domain.Conversation, err error) {
	startedAt := s.now()
	fields := map[string]any{"kind": string(domain.ConversationAsk)}
	defer func() {
		s.observeExchange(ctx, "ask", startedAt, fields, conv, err)
	}()

	if req.Query == "" {
		return nil, fmt.Errorf("query is required")
	}

	conv, err = s.exchange(ctx, exchange{
		kind:           domain.ConversationAsk,
		query:          req.Query,
		conversationID: req.ConversationID,
		newSession:     req.NewSession,
		onFragment:     req.OnFragment,
		onAttempt:      req.OnAttempt,
	})
	return conv, err
}

func (s *chatService) Assess(ctx context.Context, req AssessRequest) (conv *domain.Conversation, err error) {
	startedAt := s.now()
	fields := map[string]any{
		"kind":    string(domain.ConversationAssessment),
		"answers": len(req.Answers),
	}
	defer func() {
		s.observeExchange(ctx, "assess", startedAt, fields, conv, err)
	}()

	if len(req.Answers) == 0 {
		return nil, fmt.Errorf("assessment has no answers: %w", assessment.ErrIncomplete)
	}

	var query string
	query, err = assessment.FormatQuery(req.Answers)
	if err != nil {
		return nil, err
	}

	conv, err = s.exchange(ctx, exchange{
		kind:       domain.ConversationAssessment,
		query:      query,
		newSession: req.NewSession,
		answers:    req.Answers,
		onFragment: req.OnFragment,
		onAttempt:  req.OnAttempt,
	})
	return conv, err
}

type exchange struct {
	kind           domain.ConversationKind
	query          string
	conversationID string
	newSession     bool
	answers        []assessment.Answer
	onFragment     chat.FragmentFunc
	onAttempt      func(chat.Endpoint, int)
}

func (s *chatService) exchange(ctx context.Context, ex exchange) (*domain.Conversation, error) {
	remoteID, err := s.resolveRemoteID(ctx, ex)
	if err != nil {
		return nil, err
	}

	start := s.now()
	res := s.sender.Send(ctx, chat.Request{
		ConversationID: remoteID,
		Query:          ex.query,
		OnFragment:     ex.onFragment,
		OnAttempt:      ex.onAttempt,
	})

	conv := &domain.Conversation{
		ID:        uuid.New().String(),
		Kind:      ex.kind,
		Query:     ex.query,
		Success:   res.Success,
		Endpoint:  res.Endpoint,
		LatencyMs: s.now().Sub(start).Milliseconds(),
		CreatedAt: s.now(),
	}
	if res.Success {
		conv.Content = res.Content
		conv.RemoteID = res.ConversationID
		// The service does not always repeat the ID of a continued session.
		if conv.RemoteID == "" {
			conv.RemoteID = remoteID
		}
	} else {
		conv.Error = res.ErrorMessage()
	}

	if err := s.store(ctx, conv, ex.answers); err != nil {
		return conv, err
	}
	return conv, nil
}

func (s *chatService) resolveRemoteID(ctx context.Context, ex exchange) (string, error) {
	if ex.conversationID != "" || ex.newSession {
		return ex.conversationID, nil
	}
	latest, err := s.conversations.LatestResumable(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("finding previous session: %w", err)
	}
	return latest.RemoteID, nil
}

func (s *chatService) store(ctx context.Context, conv *domain.Conversation, answers []assessment.Answer) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLiteConversationRepo(tx).Create(ctx, conv); err != nil {
			return err
		}
		if len(answers) == 0 {
			return nil
		}
		rows := make([]domain.AssessmentAnswer, 0, len(answers))
		for _, a := range answers {
			rows = append(rows, domain.AssessmentAnswer{
				ConversationID: conv.ID,
				QuestionID:     a.QuestionID,
				Question:       a.Question,
				SelectedOption: a.SelectedOption,
			})
		}
		return repository.NewSQLiteAnswerRepo(tx).CreateBatch(ctx, rows)
	})
}

func (s *chatService) observeExchange(ctx context.Context, name string, startedAt time.Time, fields map[string]any, conv *domain.Conversation, err error) {
	success := err == nil
	if conv != nil {
		fields["endpoint"] = conv.Endpoint
		fields["remote_id"] = conv.RemoteID
		success = success && conv.Success
		if err == nil && !conv.Success {
			err = errors.New(conv.Error)
		}
	}
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  s.now().Sub(startedAt),
		Success:   success,
		Err:       err,
		Fields:    fields,
	})
}

func (s *chatService) Get(ctx context.Context, id string) (*domain.Conversation, error) {
	return s.conversations.GetByID(ctx, id)
}

func (s *chatService) Answers(ctx context.Context, conversationID string) ([]domain.AssessmentAnswer, error) {
	return s.answers.ListByConversation(ctx, conversationID)
}

func (s *chatService) History(ctx context.Context, limit int) ([]*domain.Conversation, error) {
	return s.conversations.ListRecent(ctx, limit)
}

func (s *chatService) Delete(ctx context.Context, id string) error {
	return s.conversations.Delete(ctx, id)
}
