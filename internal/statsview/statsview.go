// Package statsview serves runtime statistics over HTTP using
// github.com/go-echarts/statsview.
//
// Graphs are served at <addr>/debug/statsview and pprof data at
// <addr>/debug/pprof/.
package statsview

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const path = "/debug/statsview"

// Launch starts the stats server on addr in a new goroutine. The returned
// function stops it.
func Launch(addr string, logger *slog.Logger) (stop func()) {
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go func() {
		if err := mgr.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("stats server failed", "error", err)
		}
	}()
	logger.Info("stats server available", "url", "http://"+addr+path)
	return mgr.Stop
}
