package main

import (
	"flag"
	"log"
	"net"
	"os"

	"github.com/dmitrijs2005/authserver/internal/client/cli"
)

func main() {

	addr := flag.String("a", "localhost:7777", "auth server address")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		log.Fatalf("cannot connect to %s: %v", *addr, err)
	}
	defer conn.Close()

	app := cli.NewApp(conn, os.Stdin, os.Stdout)
	if err := app.Run(); err != nil {
		log.Printf("%v", err)
	}
}
