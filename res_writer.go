package main

import (
	"encoding/json"
	"fmt"

	"github.com/valyala/fasthttp"

	"reqecho/inspect"
)

type responseWriter interface {
	WriteRequest(ctx *fasthttp.RequestCtx, req *inspect.Request) error
}

////////////////////////////////
// jsonResponseWriter

type jsonResponseWriter struct{}

func (w jsonResponseWriter) WriteRequest(ctx *fasthttp.RequestCtx, req *inspect.Request) error {
	body, err := inspect.RenderJSON(req)
	if err != nil {
		return fmt.Errorf("render json: %w", err)
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType(inspect.ContentTypeJSON)
	ctx.SetBody(body)
	return nil
}

////////////////////////////////
// rawResponseWriter

type rawResponseWriter struct {
	selector inspect.Selector
}

func (w rawResponseWriter) WriteRequest(ctx *fasthttp.RequestCtx, req *inspect.Request) error {
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType(inspect.ContentTypeRaw)
	ctx.SetBodyString(inspect.RenderRaw(req, w.selector))
	return nil
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v interface{}) {
	bts, err := json.Marshal(v)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetContentType(inspect.ContentTypeRaw)
		ctx.SetBodyString(err.Error())
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType(inspect.ContentTypeJSON)
	ctx.SetBody(bts)
}
