package signals

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mudler/xlog"
)

var (
	signalHandlers      []func()
	signalHandlersMutex sync.Mutex
	signalHandlersOnce  sync.Once

	exit = os.Exit
)

// RegisterGracefulTerminationHandler adds fn to the functions run on the
// first SIGINT or SIGTERM. A second signal exits immediately.
func RegisterGracefulTerminationHandler(fn func()) {
	signalHandlersMutex.Lock()
	defer signalHandlersMutex.Unlock()
	signalHandlers = append(signalHandlers, fn)

	signalHandlersOnce.Do(func() {
		c := make(chan os.Signal, 2)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		go signalHandler(c)
	})
}

func signalHandler(c chan os.Signal) {
	s := <-c
	xlog.Info("Received signal, shutting down", "signal", s.String())

	signalHandlersMutex.Lock()
	handlers := append([]func(){}, signalHandlers...)
	signalHandlersMutex.Unlock()
	for _, fn := range handlers {
		fn()
	}

	s = <-c
	xlog.Warn("Received second signal, exiting", "signal", s.String())
	exit(1)
}
