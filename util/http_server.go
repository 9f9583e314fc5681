package util

import (
	"context"
	"net"
	"net/http"
)

// GoServeHTTP starts serving in the background until the context is done
func GoServeHTTP(ctx context.Context, logger *Logger, addr string, serveMux *http.ServeMux) {
	s := &http.Server{
		BaseContext: func(net.Listener) context.Context { return ctx },
		Addr:        addr,
		Handler:     serveMux,
	}
	lc := net.ListenConfig{}
	l, err := lc.Listen(ctx, "tcp", s.Addr)
	if err != nil {
		logger.PrintError("Error starting HTTP server on %s: %v", addr, err)
		return
	}
	logger.PrintVerbose("Serving metrics on %s", l.Addr())
	go func() {
		err := s.Serve(l)
		if err != http.ErrServerClosed {
			logger.PrintError("Error running HTTP server on %s: %v", addr, err)
		}
	}()
	go func() {
		<-ctx.Done()
		s.Close()
	}()
}
