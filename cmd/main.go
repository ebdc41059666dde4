package main

import (
	"net"
	"os"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/alanwang67/catalog_client/client"
	"github.com/alanwang67/catalog_client/config"
	"github.com/alanwang67/catalog_client/protocol"
	"github.com/alanwang67/catalog_client/server"
	"github.com/alanwang67/catalog_client/workload"
)

func main() {
	log.SetLevel(log.DebugLevel)

	if len(os.Args) < 2 {
		log.Fatalf("usage: %s client|server [args]", os.Args[0])
	}

	switch os.Args[1] {
	case "client":
		runClient()
	case "server":
		runServer()
	default:
		log.Fatalf("unknown role %q", os.Args[1])
	}
}

func runClient() {
	cfg := config.Default()
	if len(os.Args) > 3 {
		var err error
		cfg, err = config.Load(os.Args[3])
		if err != nil {
			log.Fatalf("trouble loading config: %s", err)
		}
	}

	addr := "localhost:1234"
	if len(os.Args) > 2 {
		addr = os.Args[2]
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		log.Fatalf("trouble parsing address %s: %s", addr, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		log.Fatalf("trouble parsing port %s: %s", portStr, err)
	}

	c := client.New(cfg)
	err = c.Start(client.StaticEndpoint{
		NodeHost:    host,
		NodeAddress: host,
		NodePort:    uint16(port),
	})
	if err != nil {
		log.Fatalf("trouble starting client: %s", err)
	}
	defer c.Shutdown()

	if err := c.Run(workload.NewGenerator().Generate()); err != nil {
		log.Fatalf("workload failed: %s", err)
	}
	log.Infof("workload complete")
}

func runServer() {
	addr := "localhost:1234"
	if len(os.Args) > 2 {
		addr = os.Args[2]
	}

	s := server.New(1, &protocol.Connection{Network: "tcp", Address: addr}, 0)
	s.MarkInitDbDone()
	if err := s.Start(); err != nil {
		log.Fatalf("trouble starting server: %s", err)
	}
}
