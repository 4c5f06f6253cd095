package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quizzit/quizzit/internal/quiz"
)

// Transport delivers quiz engine output over WebSocket frames. Message IDs
// are generated here so edits can reference earlier frames; clients replace
// the frame named by edits_id in place.
type Transport struct {
	cm *ConnectionManager
}

// NewTransport wraps a connection manager as the quiz engine's transport.
func NewTransport(cm *ConnectionManager) *Transport {
	return &Transport{cm: cm}
}

// SendMessage broadcasts text to the whole chat.
func (t *Transport) SendMessage(ctx context.Context, chatID, text string) (string, error) {
	frame := ChatFrame{
		ID:        uuid.New().String(),
		ChatID:    chatID,
		Kind:      FrameMessage,
		Timestamp: time.Now().UTC(),
		Text:      text,
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return "", fmt.Errorf("marshal message frame: %w", err)
	}
	t.cm.BroadcastToChat(chatID, data)
	return frame.ID, nil
}

// SendMedia broadcasts a media reference with a caption.
func (t *Transport) SendMedia(ctx context.Context, chatID string, mediaType quiz.QuestionType, ref, caption string) error {
	frame := ChatFrame{
		ID:        uuid.New().String(),
		ChatID:    chatID,
		Kind:      FrameMedia,
		Timestamp: time.Now().UTC(),
		Text:      caption,
		MediaType: string(mediaType),
		MediaRef:  ref,
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal media frame: %w", err)
	}
	t.cm.BroadcastToChat(chatID, data)
	return nil
}

// SendDirect pushes text only to one participant's connections. The chat is
// resolved from the participant's open connections.
func (t *Transport) SendDirect(ctx context.Context, participantID, text string) error {
	chats := t.cm.ParticipantChats(participantID)
	if len(chats) == 0 {
		return fmt.Errorf("participant %s has no open connection", participantID)
	}
	for _, chatID := range chats {
		frame := ChatFrame{
			ID:        uuid.New().String(),
			ChatID:    chatID,
			Kind:      FrameDirect,
			Timestamp: time.Now().UTC(),
			Text:      text,
		}
		data, err := json.Marshal(frame)
		if err != nil {
			return fmt.Errorf("marshal direct frame: %w", err)
		}
		t.cm.SendToParticipant(chatID, participantID, data)
	}
	return nil
}

// EditMessage broadcasts a replacement for an earlier frame.
func (t *Transport) EditMessage(ctx context.Context, chatID, messageID, text string) error {
	frame := ChatFrame{
		ID:        uuid.New().String(),
		ChatID:    chatID,
		Kind:      FrameEdit,
		Timestamp: time.Now().UTC(),
		Text:      text,
		EditsID:   messageID,
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal edit frame: %w", err)
	}
	t.cm.BroadcastToChat(chatID, data)
	return nil
}
