package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-core/api/responses"
	"github.com/angelmondragon/storefront-core/api/validators"
	"github.com/angelmondragon/storefront-core/internal/helpchat"
	"github.com/angelmondragon/storefront-core/pkg/logger"
)

type chatMessageRequest struct {
	Text string `json:"text" validate:"notblank,max=1000"`
}

func ChatGet(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, scope.Chat.View())
	}
}

// ChatSend posts a user message and answers with the bot reply.
func ChatSend(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		var payload chatMessageRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reply, err := scope.Chat.Send(payload.Text)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, reply)
	}
}

func ChatQuestions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, helpchat.ReadyQuestions)
	}
}

func ChatReset(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		scope.Chat.Reset()
		responses.WriteNoContent(w)
	}
}
