package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/quizzit/quizzit/internal/quiz"
)

// Router turns inbound client frames into quiz operations. Plain text is an
// answer submission; text starting with "/" is a command. Each frame is
// handled in its own goroutine so a slow round transition never stalls the
// read pump.
type Router struct {
	app       *quiz.App
	transport *Transport
}

// NewRouter wires the command surface behind a transport.
func NewRouter(app *quiz.App, transport *Transport) *Router {
	return &Router{app: app, transport: transport}
}

// Handle is the connection manager's InboundHandler.
func (r *Router) Handle(chatID, participantID, displayName string, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Debug().Err(err).Str("chat_id", chatID).Msg("discarding malformed client frame")
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	from := quiz.Participant{ID: participantID, DisplayName: displayName}
	go r.dispatch(context.Background(), chatID, from, text)
}

func (r *Router) dispatch(ctx context.Context, chatID string, from quiz.Participant, text string) {
	if !strings.HasPrefix(text, "/") {
		r.app.ObserveMessage(chatID, from)
		r.app.Submit(ctx, chatID, from, text)
		return
	}

	fields := strings.Fields(text)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	var err error
	switch cmd {
	case "/quiz":
		err = r.app.StartRound(ctx, chatID, from)
	case "/stopquiz":
		err = r.app.StopRound(ctx, chatID, from)
	case "/shuffleteams":
		reset := len(args) > 0 && strings.EqualFold(args[0], "reset")
		err = r.app.FormTeams(ctx, chatID, from, reset)
	case "/teams":
		err = r.app.ShowTeams(ctx, chatID)
	case "/scores":
		err = r.app.ShowScores(ctx, chatID)
	case "/hint":
		err = r.app.PrivateHint(ctx, chatID, from)
	case "/silence":
		err = r.app.Silence(ctx, chatID, from)
	case "/grantmute":
		err = r.grantMute(ctx, chatID, from, args)
	case "/double":
		err = r.double(ctx, chatID, from, args)
	default:
		err = errors.New("unknown command")
	}

	if err != nil {
		r.reply(ctx, from.ID, renderError(err))
	}
}

func (r *Router) grantMute(ctx context.Context, chatID string, from quiz.Participant, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: /grantmute <A|B> <uses>")
	}
	team := quiz.TeamLabel(strings.ToUpper(args[0]))
	uses, err := strconv.Atoi(args[1])
	if err != nil || uses < 0 {
		return errors.New("usage: /grantmute <A|B> <uses>")
	}
	return r.app.GrantMute(ctx, chatID, from, team, uses)
}

func (r *Router) double(ctx context.Context, chatID string, from quiz.Participant, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: /double <A|B> <tag> [remove]")
	}
	team := quiz.TeamLabel(strings.ToUpper(args[0]))
	add := !(len(args) > 2 && strings.EqualFold(args[2], "remove"))
	return r.app.TagDouble(ctx, chatID, from, team, args[1], add)
}

func (r *Router) reply(ctx context.Context, participantID, text string) {
	if err := r.transport.SendDirect(ctx, participantID, text); err != nil {
		log.Debug().Err(err).Str("participant_id", participantID).Msg("failed to deliver command reply")
	}
}

// renderError maps the engine's sentinel errors to user-facing text.
func renderError(err error) string {
	switch {
	case errors.Is(err, quiz.ErrPermissionDenied):
		return "You are not allowed to do that."
	case errors.Is(err, quiz.ErrNoActiveRound):
		return "No quiz is running right now."
	case errors.Is(err, quiz.ErrNoQuestions):
		return "The question bank is empty."
	case errors.Is(err, quiz.ErrNoTeams):
		return "Teams have not been formed yet. Try /shuffleteams."
	case errors.Is(err, quiz.ErrNotEnoughPlayers):
		return "Not enough known players to form teams. Say something in chat first!"
	case errors.Is(err, quiz.ErrUnknownTeam):
		return "Unknown team. Use A or B."
	case errors.Is(err, quiz.ErrNotOnTeam):
		return "You are not on a team."
	case errors.Is(err, quiz.ErrMuteNotGranted):
		return "Your team does not have the silence ability."
	case errors.Is(err, quiz.ErrMuteExhausted):
		return "Your team has no silence uses left."
	case errors.Is(err, quiz.ErrNoScores):
		return "No scores yet."
	default:
		return err.Error()
	}
}
