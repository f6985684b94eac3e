package main

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/benkivuva/chunkdb/internal/config"
	"github.com/benkivuva/chunkdb/internal/engine"
	"go.uber.org/zap"
)

// queryHandler runs the statement in the "q" form value. The engine is
// single-threaded, so requests are serialized.
func queryHandler(e *engine.Engine) http.Handler {
	var mu sync.Mutex
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Only POST allowed", http.StatusMethodNotAllowed)
			return
		}
		query := r.FormValue("q")
		if query == "" {
			http.Error(w, "Missing 'q' parameter", http.StatusBadRequest)
			return
		}

		zap.L().Debug("received query", zap.String("query", query))
		mu.Lock()
		res, err := e.Execute(query)
		mu.Unlock()
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		fmt.Fprint(w, res.Format())
	})
}

func startServer(e *engine.Engine, cfg config.Config) error {
	mux := http.NewServeMux()
	mux.Handle("/query", queryHandler(e))
	zap.L().Info("server listening", zap.String("addr", cfg.ListenAddr))
	return http.ListenAndServe(cfg.ListenAddr, mux)
}
