package handler

import (
	"net/http"

	"github.com/garrettladley/inbox/internal/version"
	"github.com/garrettladley/inbox/internal/xhttp"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	xhttp.WriteOK(w, healthResponse{Status: "ok", Version: version.Get()})
}
