package gateway

import (
	_ "embed"
	"net/http"
)

//go:embed ui/index.html
var indexHTML []byte

func (g *Gateway) handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(indexHTML)
	}
}
