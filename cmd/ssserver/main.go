// Command ssserver serves a workbook over HTTP and WebSocket so that
// browser clients can read, write, and watch cells recalculate live.
package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/nachocheesedog/ssengine"
	"github.com/nachocheesedog/ssengine/server"
)

func main() {
	addr := flag.String("addr", ":8080", "address to listen on")
	flag.Parse()

	sheet := ssengine.NewSafe()
	srv := server.New(sheet)

	log.Printf("ssserver listening on %s", *addr)
	if err := http.ListenAndServe(*addr, srv.Mux()); err != nil {
		log.Fatal(err)
	}
}
