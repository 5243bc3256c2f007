package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/boson-project/funck/pkg/funck"
	"github.com/boson-project/funck/pkg/funck/abi"
)

// maxCallBodyBytes is the payload cap on POST /call/<name>.
const maxCallBodyBytes = 1024

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBundleBytes)
	if err := r.ParseMultipartForm(maxBundleBytes); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	file, header, err := r.FormFile("src")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer file.Close()

	if err := deployBundle(s.manager, s.tmpDir, header.Filename, file); err != nil {
		logrus.WithError(err).Warn("failed to deploy source bundle")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeOK(w)
}

// statusJSON renders a funck.StatusEntry as a bare phase name for every
// phase except Failed, which carries its reason nested under the key
// "Failed".
func statusJSON(entry funck.StatusEntry) any {
	if entry.Phase == funck.Failed {
		return map[string]string{"Failed": entry.Reason}
	}
	return entry.Phase.String()
}

func (s *Server) handleStat(w http.ResponseWriter, r *http.Request) {
	snapshot := s.manager.Stat()
	out := make(map[string]any, len(snapshot))
	for name, entry := range snapshot {
		out[name] = statusJSON(entry)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["tail"]

	if !s.manager.Has(name) {
		writeError(w, http.StatusNotFound, errNotFound(name))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCallBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp, err := s.manager.Call(name, abi.NewRequest(body, nil))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	for _, kv := range resp.Metadata {
		if !validHeaderToken(kv.Name) || !validHeaderValue(kv.Value) {
			logrus.WithFields(logrus.Fields{"name": kv.Name, "value": kv.Value}).
				Warn("skipped invalid response header")
			continue
		}
		w.Header().Set(kv.Name, kv.Value)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp.Body)
}

type errNotFound string

func (e errNotFound) Error() string { return "function not found: " + string(e) }

// validHeaderToken reports whether s is a valid HTTP header field name
// token per RFC 7230 §3.2.6.
func validHeaderToken(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune("!#$%&'*+-.^_`|~", c) &&
			!(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}

// validHeaderValue rejects control characters that would corrupt the
// response's header framing.
func validHeaderValue(s string) bool {
	for _, c := range s {
		if c == '\r' || c == '\n' || c == 0 {
			return false
		}
	}
	return true
}
