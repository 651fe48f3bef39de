package cli

import (
	"os"

	"go.uber.org/zap"
)

// shutdownOnSignal runs cleanup once for the first signal on sigCh and closes
// the returned channel when it has finished. A second signal calls exit(1)
// without waiting for cleanup.
func shutdownOnSignal(sigCh <-chan os.Signal, cleanup func(reason string), exit func(code int)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		sig := <-sigCh
		go func() {
			if _, ok := <-sigCh; ok {
				zap.L().Info("Second interrupt signal received. Exiting immediately.")
				exit(1)
			}
		}()
		cleanup(sig.String())
		close(done)
	}()
	return done
}
