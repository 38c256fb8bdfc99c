// Command echoserver hosts the inspect renderers on net/http. It exists as a
// dependency-light alternative to the fasthttp server for environments that
// embed handlers into an existing net/http mux.
package main

import (
	"flag"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"reqecho/inspect"
)

func main() {
	addr := flag.String("addr", ":5555", "listen address")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting echoserver.", zap.String("addr", *addr))

	if err := http.ListenAndServe(*addr, newMux(logger)); err != nil {
		logger.Fatal("", zap.Error(err))
	}
}

func newMux(logger *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	handleJSON := func(w http.ResponseWriter, r *http.Request) {
		body, err := inspect.RenderJSON(inspect.Normalize(inspect.FromHTTPRequest(r)))
		if err != nil {
			logger.Error("Failed to render request.", zap.Error(err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", inspect.ContentTypeJSON)
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}

	handleRaw := func(w http.ResponseWriter, r *http.Request) {
		suffix := strings.TrimPrefix(r.URL.Path, "/raw")
		suffix = strings.SplitN(strings.TrimPrefix(suffix, "/"), "/", 2)[0]

		req := inspect.Normalize(inspect.FromHTTPRequest(r))
		w.Header().Set("Content-Type", inspect.ContentTypeRaw)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(inspect.RenderRaw(req, inspect.SelectorFromSuffix(suffix))))
	}

	mux.HandleFunc("/json", handleJSON)
	mux.HandleFunc("/json/", handleJSON)
	mux.HandleFunc("/raw", handleRaw)
	mux.HandleFunc("/raw/", handleRaw)
	return mux
}
