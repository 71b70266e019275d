package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/scrimspace/scrim-server/internals/apperr"
)

var (
	ErrCouldNotParseBody = errors.New("could not parse request body")
	ErrCouldNotReadBody  = errors.New("could not read request body")
)

type httpResp struct {
	Status  int         `json:"status"`
	IsError bool        `json:"is_error"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func getBody(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return ErrCouldNotReadBody
	}
	err = json.Unmarshal(body, v)
	if err != nil {
		return ErrCouldNotParseBody
	}
	return nil
}

func sendResponse(rw http.ResponseWriter, resp httpResp) {
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(resp.Status)
	out, err := json.Marshal(resp)
	if err != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		rw.Write([]byte(`{"status": 500, "is_error": true, "error": "could not marshal response"}`))
		return
	}
	rw.Write(out)
}

// sendError maps error kinds to statuses. Rule violations and check
// failures go to the user verbatim; not-found is generic; anything else is
// logged and reported as a generic failure.
func sendError(rw http.ResponseWriter, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindRule:
		sendResponse(rw, httpResp{Status: http.StatusUnprocessableEntity, IsError: true, Error: err.Error()})
	case apperr.KindCheck:
		sendResponse(rw, httpResp{Status: http.StatusForbidden, IsError: true, Error: err.Error()})
	case apperr.KindNotFound:
		sendResponse(rw, httpResp{Status: http.StatusNotFound, IsError: true, Error: "not found"})
	default:
		log.Printf("unexpected error: %v", err)
		sendResponse(rw, httpResp{Status: http.StatusInternalServerError, IsError: true, Error: "something went wrong"})
	}
}
