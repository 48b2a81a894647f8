// Command supersurf-extension is a reference/test implementation of the
// browser-extension peer (spec §4.12): it dials the broker, completes the
// handshake, and answers commands with a simulated single-tab sandbox
// instead of a real browser. It exists so the broker can be exercised
// end-to-end without a real browser extension installed.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/h8ngry/supersurf/internal/extension"
	"github.com/h8ngry/supersurf/internal/logging"
)

func main() {
	url := flag.String("url", "ws://127.0.0.1:5555/extension", "broker WebSocket URL")
	browser := flag.String("browser", "chrome", "browser name reported in the handshake")
	version := flag.String("browser-version", "1.0.0", "browser version reported in the handshake")
	statePath := flag.String("state-file", "", "path to persist session state across restarts (empty disables persistence)")
	humanize := flag.Bool("humanize", false, "enable idle-drift cursor motion once a tab is attached")
	flag.Parse()

	logger := logging.New("extension", logging.DebugOff, "")

	var storage extension.Storage
	if *statePath != "" {
		if abs, err := filepath.Abs(*statePath); err == nil {
			storage = extension.NewFileStorage(abs)
		}
	}

	sessions := extension.NewSessionStore(storage)
	scheduler := extension.NewRealScheduler()
	router := extension.NewRouter(logger, *url, *browser, *version, "", scheduler, sessions)

	peer := extension.NewPeer(sessions, scheduler)
	peer.SetHumanizationEnabled(*humanize)
	peer.RegisterHandlers(router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router.Connect(ctx)
	<-ctx.Done()
}
