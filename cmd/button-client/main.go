package main

import (
	"github.com/robotalks/vndmesh/pkg/board/joystick"
	"github.com/robotalks/vndmesh/pkg/cli/sh"
	"github.com/robotalks/vndmesh/pkg/env"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetDefaultAddr(0x0002)
	env.SetupFlags()
	joystick.SetupFlags()
}

func main() {
	sh.Main()
}
