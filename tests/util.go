// Package testutil holds fixtures shared by the tests of several packages.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// Call is a request the fake church API received.
type Call struct {
	Method string
	Path   string
	Auth   string
	Tenant string
	Body   string
}

type answer struct {
	status int
	body   string
}

// ChurchAPI is a fake church API answering canned JSON per route.
// Unknown routes answer 404.
type ChurchAPI struct {
	srv *httptest.Server

	mu     sync.Mutex
	routes map[string]answer
	calls  []Call
}

func NewChurchAPI(t *testing.T) *ChurchAPI {
	t.Helper()
	api := &ChurchAPI{routes: make(map[string]answer)}
	api.srv = httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(api.srv.Close)
	return api
}

// Handle makes the API answer method path (e.g. "/api/users") with status and body.
func (api *ChurchAPI) Handle(method, path string, status int, body string) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.routes[method+" "+path] = answer{status: status, body: body}
}

func (api *ChurchAPI) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	api.mu.Lock()
	api.calls = append(api.calls, Call{
		Method: r.Method,
		Path:   r.URL.EscapedPath(),
		Auth:   r.Header.Get("Authorization"),
		Tenant: r.Header.Get("X-Tenant-ID"),
		Body:   string(body),
	})
	ans, ok := api.routes[r.Method+" "+r.URL.EscapedPath()]
	api.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message": "Not Found"}`)
		return
	}
	w.WriteHeader(ans.status)
	_, _ = io.WriteString(w, ans.body)
}

func (api *ChurchAPI) URL() string {
	return api.srv.URL
}

func (api *ChurchAPI) Port() string {
	u, _ := url.Parse(api.srv.URL)
	return u.Port()
}

// Calls returns the requests received so far.
func (api *ChurchAPI) Calls() []Call {
	api.mu.Lock()
	defer api.mu.Unlock()
	calls := make([]Call, len(api.calls))
	copy(calls, api.calls)
	return calls
}

// LastCall returns the latest request made to method path.
func (api *ChurchAPI) LastCall(method, path string) (Call, bool) {
	calls := api.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Method == method && calls[i].Path == path {
			return calls[i], true
		}
	}
	return Call{}, false
}

// CountCalls returns how many times method path was requested.
func (api *ChurchAPI) CountCalls(method, path string) int {
	var n int
	for _, c := range api.Calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

func MarshalJSON(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("MarshalJSON() failed: %v", err)
	}
	return data
}
