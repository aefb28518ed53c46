// Command statusd runs a read-only HTTP introspection server over a
// message factory and muter, for an operator to poll pool occupancy and
// mute state without instrumenting the pipeline process itself.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"audiopipeline/internal/diag"
	"audiopipeline/msg"
	"audiopipeline/mute"
)

func main() {
	addr := flag.String("addr", ":8090", "status server listen address")
	flag.Parse()

	factory := msg.NewFactory(msg.DefaultPoolSizes())
	muter := mute.New(factory)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		log.Println("[statusd] shutting down...")
		cancel()
	}()

	go diag.RunPeriodicLog(ctx, factory, muter, 5*time.Second)

	srv := New(factory, muter)
	log.Printf("[statusd] instance %s listening on %s", srv.InstanceID(), *addr)
	if err := srv.Run(ctx, *addr); err != nil {
		log.Fatalf("[statusd] %v", err)
	}
}
