package conversations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/law23sum/trader-exchange/pkg/auth"
	"github.com/law23sum/trader-exchange/pkg/db/models"
	"github.com/law23sum/trader-exchange/pkg/enums"
	pkgerrors "github.com/law23sum/trader-exchange/pkg/errors"
	"github.com/law23sum/trader-exchange/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type providerChecker interface {
	Exists(ctx context.Context, tx *gorm.DB, providerID uuid.UUID) (bool, error)
}

type traderLister interface {
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Account, error)
}

type interactionRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, accountID, providerID uuid.UUID, kind enums.InteractionKind) error
}

// Service manages message threads between customers and traders.
type Service interface {
	Create(ctx context.Context, actor *auth.Identity, input CreateInput) (*ConversationDTO, error)
	List(ctx context.Context, actor *auth.Identity) ([]ConversationDTO, error)
	Get(ctx context.Context, actor *auth.Identity, id uuid.UUID) (*Thread, error)
	PostMessage(ctx context.Context, actor *auth.Identity, id uuid.UUID, input MessageInput) (*MessageDTO, error)
}

type ServiceParams struct {
	Repo         *Repository
	Tx           txRunner
	Providers    providerChecker
	Traders      traderLister
	Interactions interactionRecorder
	Logger       *logger.Logger
}

type service struct {
	repo         *Repository
	tx           txRunner
	providers    providerChecker
	traders      traderLister
	interactions interactionRecorder
	logg         *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("conversations repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Providers == nil {
		return nil, fmt.Errorf("provider checker required")
	}
	if params.Traders == nil {
		return nil, fmt.Errorf("trader lister required")
	}
	if params.Interactions == nil {
		return nil, fmt.Errorf("interaction recorder required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:         params.Repo,
		tx:           params.Tx,
		providers:    params.Providers,
		traders:      params.Traders,
		interactions: params.Interactions,
		logg:         params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, actor *auth.Identity, input CreateInput) (*ConversationDTO, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = defaultTitle
	}

	members := []uuid.UUID{actor.AccountID}
	if input.ProviderID != nil {
		traders, err := s.traders.ListByProvider(ctx, *input.ProviderID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list provider accounts")
		}
		for _, t := range traders {
			if t.ID != actor.AccountID {
				members = append(members, t.ID)
			}
		}
	}

	conversation := &models.Conversation{
		ID:         uuid.New(),
		Kind:       enums.ConversationKindChat,
		Title:      title,
		ProviderID: input.ProviderID,
		CreatedBy:  actor.AccountID,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if input.ProviderID != nil {
			ok, err := s.providers.Exists(ctx, tx, *input.ProviderID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check provider")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "provider not found")
			}
		}
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, conversation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create conversation")
		}
		if err := repo.AddMembers(ctx, conversation.ID, members); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add conversation members")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := conversationFromModel(conversation)
	return &dto, nil
}

func (s *service) List(ctx context.Context, actor *auth.Identity) ([]ConversationDTO, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListForAccount(ctx, actor.AccountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list conversations")
	}
	out := make([]ConversationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, conversationFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, actor *auth.Identity, id uuid.UUID) (*Thread, error) {
	conversation, err := s.authorize(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	messages, err := s.repo.ListMessages(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list messages")
	}
	thread := &Thread{
		Conversation: conversationFromModel(conversation),
		Messages:     make([]MessageDTO, 0, len(messages)),
	}
	for i := range messages {
		thread.Messages = append(thread.Messages, messageFromModel(&messages[i]))
	}
	return thread, nil
}

func (s *service) PostMessage(ctx context.Context, actor *auth.Identity, id uuid.UUID, input MessageInput) (*MessageDTO, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "text is required")
	}
	conversation, err := s.authorize(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		ID:             uuid.New(),
		ConversationID: id,
		SenderID:       actor.AccountID,
		SenderName:     senderName(actor),
		Text:           text,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).AppendMessage(ctx, message); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "conversation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append message")
		}
		if conversation.ProviderID != nil && !actor.OwnsProvider(*conversation.ProviderID) {
			if err := s.interactions.Record(ctx, tx, actor.AccountID, *conversation.ProviderID, enums.InteractionKindMessage); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record interaction")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Debug(s.logg.WithField(ctx, "conversation_id", id.String()), "conversation.message_posted")
	dto := messageFromModel(message)
	return &dto, nil
}

// authorize loads the conversation and checks membership. Admins read every thread.
func (s *service) authorize(ctx context.Context, actor *auth.Identity, id uuid.UUID) (*models.Conversation, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	conversation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "conversation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load conversation")
	}
	if actor.IsAdmin() {
		return conversation, nil
	}
	member, err := s.repo.IsMember(ctx, id, actor.AccountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}
	if !member {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no access")
	}
	return conversation, nil
}

func senderName(actor *auth.Identity) string {
	if name := strings.TrimSpace(actor.Name); name != "" {
		return name
	}
	if email := strings.TrimSpace(actor.Email); email != "" {
		return email
	}
	return "Member"
}

func requireActor(actor *auth.Identity) error {
	if actor == nil || actor.AccountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return nil
}
