package api

import (
	"net/http"
)

type bearerOpt struct {
	token string
}

// Bearer authorizes a request with a portal api key.
func Bearer(token string) *bearerOpt {
	return &bearerOpt{token: "Bearer " + token}
}

func (opt *bearerOpt) Do(client defaultClient, req *http.Request) {
	req.Header.Set("Authorization", opt.token)
}
