package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/robotalks/vndmesh/pkg/env"
	"github.com/robotalks/vndmesh/pkg/framework"
	"github.com/robotalks/vndmesh/pkg/mesh"
	"github.com/robotalks/vndmesh/pkg/mesh/bearer/mqtt"
	"github.com/robotalks/vndmesh/pkg/vendor"
)

var (
	bearerURL = "mqtt://localhost:1883/vndmesh/"
)

func init() {
	if val := os.Getenv("VNDMESH_BEARER"); val != "" {
		bearerURL = val
	}
	flag.StringVar(&bearerURL, "bearer", bearerURL, "Bearer URL.")
}

func formatPDU(pkt []byte) string {
	pdu, err := mesh.DecodePDU(pkt)
	if err != nil {
		return fmt.Sprintf("bad PDU: %v", err)
	}
	head := fmt.Sprintf("%s -> %s net=%d app=%d ttl=%d seq=%d",
		mesh.Address(pdu.Src), mesh.Address(pdu.Dst), pdu.NetIdx, pdu.AppIdx, pdu.TTL, pdu.Seq)
	op, params, err := mesh.ParseOpcode(pdu.Access)
	if err != nil {
		return fmt.Sprintf("%s: %v", head, err)
	}
	if !op.IsVendor() || op.CompanyID() != vendor.CompanyID {
		return fmt.Sprintf("%s: %s [% x]", head, op, params)
	}
	p, err := vendor.Decode(op, params)
	if err != nil {
		return fmt.Sprintf("%s: %s %v", head, vendor.OpName(op), err)
	}
	return fmt.Sprintf("%s: %s %+v", head, vendor.OpName(op), p)
}

func monitor(ctx context.Context, rw mesh.PacketReader) error {
	fn := func() error {
		for {
			pkt, err := rw.ReadPacket()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
			log.Println(formatPDU(pkt))
		}
	}
	if closer, ok := rw.(io.Closer); ok {
		return framework.RunWithContextCloser(ctx, closer, fn)
	}
	return framework.RunWithContextCancel(ctx, nil, fn)
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	rw, err := env.NewBearer(bearerURL, uuid.New())
	if err != nil {
		log.Fatalln(err)
	}
	runner := framework.NewRunner().HandleSignals()
	if b, ok := rw.(*mqtt.Bearer); ok {
		b.Queue.Sub(mqtt.NodesTopic+"+", func(topic string, payload []byte) {
			if len(payload) == 0 {
				log.Printf("%s: gone", topic)
				return
			}
			log.Printf("%s: %s", topic, string(payload))
		})
		runner.Go(b)
	}
	runner.Go(framework.RunFunc(func(ctx context.Context) error {
		return monitor(ctx, rw)
	}))
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
