package utils

import "github.com/valyala/fasthttp"

type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// WriteError replaces the response with a non-cacheable JSON error body and
// echoes the caller's X-Request-ID.
func WriteError(ctx *fasthttp.RequestCtx, status int, err error) {
	ctx.Response.Reset()
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")

	ctx.Response.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if requestID := ctx.Request.Header.Peek("X-Request-ID"); len(requestID) > 0 {
		ctx.Response.Header.SetBytesV("X-Request-ID", requestID)
	}

	message := fasthttp.StatusMessage(status)
	if err != nil {
		message = err.Error()
	}

	body, mErr := Marshal(ErrorResponse{Error: message, Status: status})
	if mErr != nil {
		ctx.SetBodyString(`{"error":"Internal Server Error","status":500}`)
		return
	}

	ctx.SetBody(body)
}
