package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

// A tiny health sidecar that answers liveness probes without touching the
// main server's request path. Useful when the API sits behind a rate
// limiter that would otherwise throttle orchestrator probes.
func main() {
	addr := flag.String("addr", ":8081", "listen address for the health sidecar")
	ver := flag.String("version", "dev", "version string to return")
	flag.Parse()

	h := func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/health", "/healthz":
			ctx.Response.Header.Set("Content-Type", "application/json")
			ctx.SetStatusCode(fasthttp.StatusOK)
			_, _ = ctx.WriteString(fmt.Sprintf("{\"status\":\"ok\",\"version\":\"%s\"}", *ver))
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}
	}

	fmt.Printf("health sidecar listening on %s\n", *addr)
	srv := &fasthttp.Server{
		Handler:            h,
		Name:               "venuedir-health",
		ReadTimeout:        5 * time.Second,
		WriteTimeout:       5 * time.Second,
		MaxRequestBodySize: 1 << 20,
	}
	if err := srv.ListenAndServe(*addr); err != nil {
		fmt.Printf("health sidecar exit: %v\n", err)
	}
}
