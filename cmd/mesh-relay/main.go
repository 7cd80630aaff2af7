package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"

	"github.com/golang/glog"

	"github.com/robotalks/vndmesh/pkg/framework"
	"github.com/robotalks/vndmesh/pkg/mesh/bearer/relay"
)

var (
	tcpAddr = ":7070"
	wsAddr  = ":8080"
	wsPath  = "/mesh"
)

func init() {
	flag.StringVar(&tcpAddr, "tcp", tcpAddr, "Listen address for stream peers, empty to disable.")
	flag.StringVar(&wsAddr, "ws", wsAddr, "Listen address for WebSocket peers, empty to disable.")
	flag.StringVar(&wsPath, "ws-path", wsPath, "HTTP path of WebSocket endpoint.")
}

func serveHTTP(ctx context.Context, hub *relay.Hub) error {
	mux := http.NewServeMux()
	mux.Handle(wsPath, hub.WebsocketHandler(ctx))
	server := &http.Server{Addr: wsAddr, Handler: mux}
	glog.Infof("websocket peers on %s%s", wsAddr, wsPath)
	err := framework.RunWithContextCancel(ctx, func() { server.Close() }, server.ListenAndServe)
	if errors.Is(err, http.ErrServerClosed) {
		return ctx.Err()
	}
	return err
}

func main() {
	flag.Parse()

	hub := relay.NewHub()
	runner := framework.NewRunner().HandleSignals()
	if tcpAddr != "" {
		ln, err := net.Listen("tcp", tcpAddr)
		if err != nil {
			log.Fatalln(err)
		}
		glog.Infof("stream peers on %s", ln.Addr())
		runner.Go(framework.RunFunc(func(ctx context.Context) error {
			return hub.ServeTCP(ctx, ln)
		}))
	}
	if wsAddr != "" {
		runner.Go(framework.RunFunc(func(ctx context.Context) error {
			return serveHTTP(ctx, hub)
		}))
	}
	if len(runner.Runners) == 0 {
		log.Fatalln("nothing to serve")
	}
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
