package gateway

import (
	"context"
	"net/http"
)

func (g *Gateway) Get(ctx context.Context, path string) (*Response, error) {
	return g.Send(ctx, Request{Method: http.MethodGet, Path: path})
}

func (g *Gateway) Post(ctx context.Context, path string, body any) (*Response, error) {
	return g.Send(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

func (g *Gateway) Put(ctx context.Context, path string, body any) (*Response, error) {
	return g.Send(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

func (g *Gateway) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return g.Send(ctx, Request{Method: http.MethodPatch, Path: path, Body: body})
}

func (g *Gateway) Delete(ctx context.Context, path string) (*Response, error) {
	return g.Send(ctx, Request{Method: http.MethodDelete, Path: path})
}

// DoJSON sends req, turns a non-2xx status into an *apierrors.APIError and
// decodes a successful body into out (which may be nil).
func (g *Gateway) DoJSON(ctx context.Context, req Request, out any) error {
	resp, err := g.Send(ctx, req)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	return resp.DecodeJSON(out)
}
