package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-handle/chain"
	"github.com/saiset-co/sai-handle/registry"
	"github.com/saiset-co/sai-handle/server"
	"github.com/saiset-co/sai-handle/types"
	"github.com/saiset-co/sai-handle/utils"
)

const metricsPath = "/metrics"

type reply struct {
	Pass   string `json:"pass"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

// respond writes a JSON description of the request and keeps delegating.
var respond = types.HandlerFunc[server.Context, error](func(cx *server.Context) *types.Future[error] {
	body, err := utils.Marshal(reply{
		Pass:   cx.Pass(),
		Method: string(cx.Method()),
		Path:   string(cx.Path()),
	})
	if err != nil {
		return types.Ready(err)
	}

	cx.SetContentType("application/json")
	cx.SetBody(body)

	return cx.Next()
})

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve HTTP requests through the configured chain",
		Action: func(c *cli.Context) error {
			cfg, log, err := setup(c)
			if err != nil {
				return err
			}

			order, err := chain.ParseOrder(cfg.Chain.Order)
			if err != nil {
				return err
			}

			h, err := requestHandler(cfg, log, order)
			if err != nil {
				return err
			}

			srv := server.NewServer(cfg.Server, log, h)
			if err = srv.Start(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			return srv.Stop()
		},
	}
}

func requestHandler(cfg *types.Config, log types.Logger, order chain.Order) (fasthttp.RequestHandler, error) {
	r, err := registry.New[server.Context, error](log)
	if err != nil {
		return nil, err
	}

	if err = registry.RegisterBuiltins(r, server.Delegate, cfg.Handlers, registry.Deps{Logger: log}); err != nil {
		return nil, err
	}

	if err = r.Register("respond", 1000, respond); err != nil {
		return nil, err
	}

	if err = r.Finalize(); err != nil {
		return nil, err
	}

	hs, err := r.Handlers()
	if err != nil {
		return nil, err
	}

	chained := server.Handler(hs, server.Options{
		Logger: log,
		Order:  order,
		OnError: func(cx *server.Context, err error) {
			log.Warn("Request failed", zap.String("pass", cx.Pass()), zap.Error(err))
			utils.WriteError(cx.RequestCtx, statusOf(err), err)
		},
	})
	metrics := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())

	return func(rc *fasthttp.RequestCtx) {
		if string(rc.Path()) == metricsPath {
			metrics(rc)
			return
		}
		chained(rc)
	}, nil
}

func statusOf(err error) int {
	switch {
	case types.IsError(err, types.ErrRateLimited):
		return fasthttp.StatusTooManyRequests
	case types.IsError(err, context.DeadlineExceeded):
		return fasthttp.StatusGatewayTimeout
	default:
		return fasthttp.StatusInternalServerError
	}
}
