package router

import (
	"encoding/json"
	"net/http"

	"github.com/mitchellh/mapstructure"
	"github.com/proofdrop-lab/backend/pkg/errorx"
	"github.com/proofdrop-lab/backend/pkg/xcontext"
)

func wrapHandler[Request, Response any](
	r *Router,
	method string,
	handler HandlerFunc[Request, Response],
) http.HandlerFunc {
	return func(w http.ResponseWriter, httpReq *http.Request) {
		if httpReq.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if httpReq.Method != method {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		ctx := r.newRequestContext(httpReq, w)

		defer func() {
			for _, closer := range r.closers {
				closer(ctx)
			}
		}()

		for _, m := range r.befores {
			newCtx, err := m(ctx)
			if err != nil {
				xcontext.SetError(ctx, err)
				return
			}
			ctx = newCtx
		}

		var req Request
		if err := bindRequest(httpReq, method, &req); err != nil {
			xcontext.Logger(ctx).Debugf("Cannot bind the request: %v", err)
			xcontext.SetError(ctx, errorx.New(errorx.BadRequest, "Invalid request"))
			return
		}

		resp, err := handler(ctx, &req)
		if err != nil {
			xcontext.SetError(ctx, err)
			return
		}

		xcontext.SetResponse(ctx, resp)

		for _, m := range r.afters {
			newCtx, err := m(ctx)
			if err != nil {
				xcontext.SetError(ctx, err)
				return
			}
			ctx = newCtx
		}
	}
}

func bindRequest(httpReq *http.Request, method string, req any) error {
	if method == http.MethodPost {
		if httpReq.Body == nil {
			return nil
		}

		return json.NewDecoder(httpReq.Body).Decode(req)
	}

	values := map[string]any{}
	for key, value := range httpReq.URL.Query() {
		if len(value) > 0 {
			values[key] = value[0]
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           req,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(values)
}
