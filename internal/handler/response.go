package handler

import (
	"net/http"
	"time"

	"github.com/reelway/media-server-go/internal/httputil"
	"github.com/reelway/media-server-go/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func formatUser(user *model.User) map[string]any {
	out := map[string]any{"id": user.ID}
	if user.Name != nil {
		out["name"] = *user.Name
	}
	if user.Email != nil {
		out["email"] = *user.Email
	}
	return out
}
