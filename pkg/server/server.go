package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/boson-project/funck/pkg/funck"
)

// Server is the HTTP front end for the function lifecycle manager. It
// holds no deployment state of its own; every request is translated into
// a call against the wrapped Manager.
type Server struct {
	manager *funck.Manager
	tmpDir  string
	addr    string
	http    *http.Server
}

// New returns a Server bound to addr, routing requests to manager. tmpDir
// is where uploaded source bundles are staged before extraction; it should
// match the Manager's own Config.TmpDir.
func New(manager *funck.Manager, addr, tmpDir string) *Server {
	s := &Server{manager: manager, tmpDir: tmpDir, addr: addr}

	router := mux.NewRouter()
	router.HandleFunc("/_funck_add", s.handleAdd).Methods(http.MethodPost)
	router.HandleFunc("/_stat", s.handleStat).Methods(http.MethodGet)
	router.HandleFunc("/call/{tail:.*}", s.handleCall).Methods(http.MethodPost)

	s.http = &http.Server{
		Addr:           addr,
		Handler:        router,
		ReadTimeout:    1 * time.Minute,
		WriteTimeout:   1 * time.Minute,
		MaxHeaderBytes: 1 << 20,
	}
	return s
}

// Handler returns the underlying HTTP handler, primarily so tests can
// drive it directly via httptest without binding a real socket.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks serving HTTP until ctx is cancelled, at which point
// it shuts the server down gracefully and returns nil (http.ErrServerClosed
// is swallowed as the expected outcome of a clean shutdown).
func (s *Server) ListenAndServe(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		logrus.WithField("addr", s.addr).Info("funck server listening")
		serveErr <- s.http.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	return nil
}
