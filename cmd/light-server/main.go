package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	"github.com/robotalks/vndmesh/pkg/app"
	"github.com/robotalks/vndmesh/pkg/board"
	"github.com/robotalks/vndmesh/pkg/env"
	"github.com/robotalks/vndmesh/pkg/framework"
	"github.com/robotalks/vndmesh/pkg/vendor"
)

func init() {
	env.SetDefaultAddr(0x0001)
	env.SetupFlags()
}

func main() {
	flag.Parse()

	conf := env.NewConfig()
	e := conf.MustNewEnv(conf.ServerModel())
	var opts []vendor.ServerOption
	if e.Settings != nil {
		opts = append(opts, vendor.WithStore(e.Settings))
	}
	srv, err := app.NewLightServer(board.NewLEDs(board.DefaultCount), opts...)
	if err != nil {
		log.Fatalln(err)
	}
	srv.Attach(e.Model)

	if err := framework.NewRunner().HandleSignals().Go(framework.NewLoop().Add(e)).Wait(); err != nil {
		log.Fatalln(err)
	}
}
