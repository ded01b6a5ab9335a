/*
Command line entry point of the descriptor pooling testbed: runs the
headless frame-loop simulation and inspects its configuration.
*/
package main

import (
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spaghettifunk/anima-descriptors/cmd"
	"github.com/spaghettifunk/anima-descriptors/engine/core"
)

func main() {
	// dump every goroutine on SIGQUIT, handy when a frame never finishes
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGQUIT)
		for range sigCh {
			buf := make([]byte, 1<<20)
			n := runtime.Stack(buf, true)
			core.LogInfo("goroutine dump\n%s", buf[:n])
		}
	}()

	if err := cmd.RootCmd.Execute(); err != nil {
		core.LogFatal("error (%v)", err)
	}
}
