package middleware

import (
	"net/http"

	"github.com/foundernet/chat-server-go/internal/httputil"
)

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}
