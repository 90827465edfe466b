package gtfsroutes

import (
	"net/http"
)

type healthResponse struct {
	Status string `json:"status"`
	Source string `json:"source"`
	Routes int    `json:"routes"`
	Errors int    `json:"errors"`
	Error  string `json:"error,omitempty"`
}

func (a *routesAPI) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.count("health")
	resp := healthResponse{
		Status: "ok",
		Source: a.ds.Result.SourceDescription,
		Routes: len(a.ds.Routes),
		Errors: len(a.ds.Result.Errors),
		Error:  a.ds.Error,
	}
	if a.ds.Error != "" {
		resp.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, resp)
}
