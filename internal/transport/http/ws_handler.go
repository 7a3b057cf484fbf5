package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"cerdas-quiz-service/internal/app"
	"cerdas-quiz-service/internal/domain"

	"github.com/gorilla/websocket"
)

// WSHandler runs one quiz session per websocket connection: the client picks
// a level and name up front, then drives the session with answer, navigate,
// visibility and finish messages.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Option domain.OptionKey `json:"option"`
}

type navigatePayload struct {
	Index     *int   `json:"index,omitempty"`
	Direction string `json:"direction,omitempty"`
}

type visibilityPayload struct {
	Visible bool `json:"visible"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// questionView is the client-facing question shape. The correct option is
// withheld; correctness only flows back through answer results.
type questionView struct {
	ID       int64            `json:"id"`
	Text     string           `json:"questionText"`
	Subject  string           `json:"subject"`
	OptionA  string           `json:"optionA"`
	OptionB  string           `json:"optionB"`
	OptionC  string           `json:"optionC"`
	OptionD  string           `json:"optionD"`
	Selected domain.OptionKey `json:"selected,omitempty"`
}

type startedPayload struct {
	Session   app.Snapshot   `json:"session"`
	Questions []questionView `json:"questions"`
}

type answerResultPayload struct {
	QuestionID  int64            `json:"questionId"`
	Selected    domain.OptionKey `json:"selected"`
	TimeSpent   int              `json:"timeSpent"`
	AllAnswered bool             `json:"allAnswered"`
	WillAdvance bool             `json:"willAdvance"`
	Locked      bool             `json:"locked"`
	// set only with instant correction on
	Correct           *bool            `json:"correct,omitempty"`
	CorrectAnswer     domain.OptionKey `json:"correctAnswer,omitempty"`
	CorrectAnswerText string           `json:"correctAnswerText,omitempty"`
}

type finishedPayload struct {
	Result domain.QuizResult `json:"result"`
	Saved  bool              `json:"saved"`
	Label  string            `json:"label"`
}

// ServeWS upgrades the request and runs the session loop. Missing or invalid
// entry parameters reject the request before any session is created, the
// server-side equivalent of the entry-screen redirect.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	level := domain.Level(r.URL.Query().Get("level"))
	name := r.URL.Query().Get("name")
	instantCorrection := r.URL.Query().Get("instantCorrection") == "true"

	session, err := h.service.StartSession(r.Context(), app.SessionConfig{
		PlayerName:        name,
		Level:             level,
		InstantCorrection: instantCorrection,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer h.service.CloseSession(session.ID())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if session.State() == app.StateEmpty {
		// Unplayable: the load came back empty (or failed, already logged).
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "empty", Payload: errorPayload{Message: "no questions available for level " + string(level)}})
		return
	}

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	advanceDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// The auto-advance alarm fires on its own goroutine; funnel its snapshots
	// through a buffered channel so a dying connection never blocks it.
	advances := make(chan app.Snapshot, 4)
	session.OnAdvance(func(snap app.Snapshot) {
		select {
		case advances <- snap:
		default:
		}
	})

	go func() {
		defer close(advanceDone)
		for {
			select {
			case snap := <-advances:
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: snap}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "started", Payload: startedPayload{
		Session:   session.Snapshot(),
		Questions: questionViews(session),
	}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid answer payload")
				continue
			}
			outcome, err := session.SelectAnswer(payload.Option)
			if err != nil {
				send <- errMsg(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "answerResult", Payload: answerResultView(session, outcome)}
		case "navigate":
			var payload navigatePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid navigate payload")
				continue
			}
			snap, err := h.navigate(session, payload)
			if err != nil {
				send <- errMsg(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "state", Payload: snap}
		case "visibility":
			var payload visibilityPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid visibility payload")
				continue
			}
			session.SetVisible(payload.Visible)
		case "finish":
			result, saved, err := h.service.Finish(r.Context(), session.ID())
			if err != nil {
				send <- errMsg(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "finished", Payload: finishedPayload{
				Result: result,
				Saved:  saved,
				Label:  domain.ScoreMessage(result.Score, result.TotalQuestions),
			}}
		default:
			send <- errMsg("unsupported message type")
		}
	}

	close(closeSignals)
	<-advanceDone
	close(send)
	<-writerDone
}

func (h *WSHandler) navigate(session *app.Session, payload navigatePayload) (app.Snapshot, error) {
	if payload.Index != nil {
		return session.Navigate(*payload.Index)
	}
	switch payload.Direction {
	case "next":
		return session.Next()
	case "prev":
		return session.Prev()
	}
	return app.Snapshot{}, errors.New("navigate needs an index or a direction")
}

func errMsg(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}

func questionViews(session *app.Session) []questionView {
	questions := session.Questions()
	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		view := questionView{
			ID:      q.ID,
			Text:    q.Text,
			Subject: q.Subject,
			OptionA: q.OptionA,
			OptionB: q.OptionB,
			OptionC: q.OptionC,
			OptionD: q.OptionD,
		}
		if answer, ok := session.Answer(q.ID); ok {
			view.Selected = answer.Selected
		}
		views = append(views, view)
	}
	return views
}

func answerResultView(session *app.Session, outcome app.AnswerOutcome) answerResultPayload {
	payload := answerResultPayload{
		QuestionID:  outcome.QuestionID,
		Selected:    outcome.Selected,
		TimeSpent:   outcome.TimeSpent,
		AllAnswered: outcome.AllAnswered,
		WillAdvance: outcome.WillAdvance,
		Locked:      outcome.Locked,
	}
	if session.Config().InstantCorrection {
		correct := outcome.Correct
		payload.Correct = &correct
		payload.CorrectAnswer = outcome.CorrectOption
		payload.CorrectAnswerText = outcome.CorrectText
	}
	return payload
}
