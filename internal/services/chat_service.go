package services

import (
	"log"
	"strings"
	"time"

	"analyst/internal/models"
	"analyst/internal/repositories"
	"analyst/pkg/apierr"
	"analyst/pkg/events"
	"analyst/pkg/responder"
)

// fallbackReply covers responder outages so a chat request never fails on
// the collaborator's account.
const fallbackReply = "AI service error, please try again later."

// ChatReply is the response to one chat turn.
type ChatReply struct {
	Reply     string    `json:"reply"`
	Timestamp time.Time `json:"timestamp"`
	MessageID int64     `json:"messageId"`
	Type      string    `json:"type"`
}

// ChatService forwards messages to a responder and records each exchange.
type ChatService struct {
	chatRepo  repositories.ChatRepository
	responder responder.Responder
	mqClient  *events.Client
}

// NewChatService creates a new ChatService. The event client may be nil.
func NewChatService(chatRepo repositories.ChatRepository, r responder.Responder, mqClient *events.Client) *ChatService {
	return &ChatService{
		chatRepo:  chatRepo,
		responder: r,
		mqClient:  mqClient,
	}
}

// Send forwards the message, persists the exchange, and returns the reply
// with a server timestamp and generated message identifier.
func (s *ChatService) Send(message string) (*ChatReply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, apierr.BadRequest("Message is required")
	}

	reply, err := s.responder.Respond(message)
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			log.Printf("Responder error: %v", err)
		}
		reply = fallbackReply
	}

	exchange := &models.ChatExchange{
		Message: message,
		Reply:   reply,
		Type:    models.ResponseTypeAnalysis,
	}
	if err := s.chatRepo.Create(exchange); err != nil {
		return nil, apierr.Internal("Something went wrong while saving the exchange", err)
	}

	if s.mqClient != nil {
		event := map[string]interface{}{
			"exchangeID": exchange.ID,
			"type":       exchange.Type,
		}
		if err := s.mqClient.PublishChatExchange(event); err != nil {
			log.Printf("Warning: failed to publish chat exchange event for %s: %v", exchange.ID, err)
		}
	}

	now := time.Now()
	return &ChatReply{
		Reply:     reply,
		Timestamp: now,
		MessageID: now.UnixNano(),
		Type:      models.ResponseTypeAnalysis,
	}, nil
}

// History returns all stored exchanges, newest first.
func (s *ChatService) History() ([]models.ChatExchange, error) {
	exchanges, err := s.chatRepo.GetAll()
	if err != nil {
		return nil, apierr.Internal("Something went wrong while fetching chat history", err)
	}
	return exchanges, nil
}
