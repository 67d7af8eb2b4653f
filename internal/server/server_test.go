package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/formwizard/internal/records"
)

type fakeRecords struct {
	mu      sync.Mutex
	created []*records.Record
	listErr error
	saveErr error
}

func (f *fakeRecords) List(ctx context.Context) ([]records.Record, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []records.Record{{ID: "1", Name: "Alice"}}, nil
}

func (f *fakeRecords) Create(ctx context.Context, rec *records.Record) (*records.Record, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, rec)
	out := *rec
	out.ID = "ff80"
	return &out, nil
}

func newTestServer(t *testing.T, cfg *Config) (*Server, *httptest.Server) {
	t.Helper()
	if cfg == nil {
		cfg = &Config{}
	}
	srv, err := New(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Store().CloseAll()
		ts.Close()
	})
	return srv, ts
}

func do(t *testing.T, method, url string, body any, headers ...string) (*http.Response, []byte) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func createSession(t *testing.T, base, form string) Snapshot {
	t.Helper()
	resp, body := do(t, http.MethodPost, base+"/api/sessions", map[string]string{"form": form})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var snap Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	return snap
}

func setField(t *testing.T, base, id, group, field, value string) Snapshot {
	t.Helper()
	resp, body := do(t, http.MethodPut, base+"/api/sessions/"+id+"/fields",
		map[string]string{"group": group, "field": field, "value": value})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var snap Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	return snap
}

func post(t *testing.T, url string, out any) int {
	t.Helper()
	resp, body := do(t, http.MethodPost, url, nil)
	if out != nil {
		require.NoError(t, json.Unmarshal(body, out), string(body))
	}
	return resp.StatusCode
}

func TestHealthAndForms(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, body := do(t, http.MethodGet, ts.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)

	resp, body = do(t, http.MethodGet, ts.URL+"/api/forms", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var forms []formSummary
	require.NoError(t, json.Unmarshal(body, &forms))
	ids := make([]string, len(forms))
	for i, f := range forms {
		ids[i] = f.ID
	}
	assert.Equal(t, []string{"reactive-user", "registration", "skills", "user"}, ids)

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/forms/registration", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/forms/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateSession(t *testing.T) {
	srv, ts := newTestServer(t, nil)

	snap := createSession(t, ts.URL, "registration")

	assert.Len(t, snap.ID, 36)
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, 3, snap.Total)
	assert.True(t, snap.First)
	assert.False(t, snap.Valid)
	assert.Equal(t, "personal", snap.Groups[0].Name)
	assert.Equal(t, 1, srv.Store().Len())

	resp, _ := do(t, http.MethodPost, ts.URL+"/api/sessions", map[string]string{"form": "missing"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/sessions", map[string]string{"bogus": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateSession_DefaultForm(t *testing.T) {
	_, ts := newTestServer(t, &Config{DefaultForm: "reactive-user"})

	resp, body := do(t, http.MethodPost, ts.URL+"/api/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"form":"reactive-user"`)
}

func TestNew_UnknownDefaultForm(t *testing.T) {
	_, err := New(&Config{DefaultForm: "nope"})
	assert.Error(t, err)
}

func TestWizardFlow(t *testing.T) {
	_, ts := newTestServer(t, nil)
	id := createSession(t, ts.URL, "registration").ID
	base := ts.URL + "/api/sessions/" + id

	var move moveResponse
	require.Equal(t, http.StatusOK, post(t, base+"/advance", &move))
	assert.False(t, move.Moved)
	assert.Equal(t, 0, move.Snapshot.Index)
	for _, f := range move.Snapshot.Groups[0].Fields {
		assert.True(t, f.Touched, f.Name)
		assert.NotEmpty(t, f.Message, f.Name)
	}

	setField(t, ts.URL, id, "personal", "name", "Alice")
	snap := setField(t, ts.URL, id, "personal", "email", "a@b.com")
	assert.True(t, snap.Groups[0].Valid)

	post(t, base+"/advance", &move)
	assert.True(t, move.Moved)
	assert.Equal(t, 1, move.Snapshot.Index)

	// group may be omitted: the current group is used
	setField(t, ts.URL, id, "", "city", "Oslo")
	setField(t, ts.URL, id, "", "postalCode", "0150")
	post(t, base+"/advance", &move)
	require.True(t, move.Moved)

	setField(t, ts.URL, id, "account", "password", "hunter2")
	snap = setField(t, ts.URL, id, "account", "confirmPassword", "different")
	assert.Empty(t, snap.Groups[2].Fields[0].Value, "password values are not echoed")
	assert.True(t, snap.Groups[2].Fields[0].Filled)
	assert.True(t, snap.Last)

	var sub submitResponse
	require.Equal(t, http.StatusOK, post(t, base+"/submit", &sub))
	assert.True(t, sub.Accepted)
	assert.True(t, sub.Snapshot.Submitted)
	assert.Nil(t, sub.Record, "no record without ?send=true")

	post(t, base+"/retreat", &move)
	assert.True(t, move.Moved)
	assert.Equal(t, 1, move.Snapshot.Index)
}

func TestSubmit_InvalidIsInert(t *testing.T) {
	_, ts := newTestServer(t, nil)
	id := createSession(t, ts.URL, "registration").ID
	base := ts.URL + "/api/sessions/" + id

	setField(t, ts.URL, id, "personal", "name", "Alice")
	setField(t, ts.URL, id, "personal", "email", "a@b.com")
	var move moveResponse
	post(t, base+"/advance", &move)

	var sub submitResponse
	assert.Equal(t, http.StatusUnprocessableEntity, post(t, base+"/submit", &sub))
	assert.False(t, sub.Accepted)
	assert.Equal(t, 1, sub.Snapshot.Index)
	for _, g := range sub.Snapshot.Groups[1:] {
		for _, f := range g.Fields {
			assert.False(t, f.Touched, "%s.%s", g.Name, f.Name)
		}
	}
}

func TestSubmit_SendCreatesRecord(t *testing.T) {
	store := &fakeRecords{}
	_, ts := newTestServer(t, &Config{Records: store})
	id := createSession(t, ts.URL, "reactive-user").ID

	setField(t, ts.URL, id, "user", "name", "<b>Bob</b>")
	setField(t, ts.URL, id, "user", "email", "bob@example.com")

	var sub submitResponse
	require.Equal(t, http.StatusOK, post(t, ts.URL+"/api/sessions/"+id+"/submit?send=true", &sub))
	require.NotNil(t, sub.Record)
	assert.Equal(t, "ff80", sub.Record.ID)

	require.Len(t, store.created, 1)
	assert.Equal(t, "Bob", store.created[0].Data["user.name"])
	assert.Equal(t, "Reactive user form", store.created[0].Name)
}

func TestSubmit_SendFailureKeepsSubmission(t *testing.T) {
	store := &fakeRecords{saveErr: records.NewHTTPError(503, "down")}
	_, ts := newTestServer(t, &Config{Records: store})
	id := createSession(t, ts.URL, "user").ID

	var sub submitResponse
	require.Equal(t, http.StatusOK, post(t, ts.URL+"/api/sessions/"+id+"/submit?send=1", &sub))
	assert.True(t, sub.Accepted)
	assert.Equal(t, "Record store error (HTTP 503)", sub.RecordError)
}

func TestFormSubmitTouchesFields(t *testing.T) {
	_, ts := newTestServer(t, nil)
	id := createSession(t, ts.URL, "reactive-user").ID

	var sub submitResponse
	assert.Equal(t, http.StatusUnprocessableEntity, post(t, ts.URL+"/api/sessions/"+id+"/submit", &sub))
	for _, f := range sub.Snapshot.Groups[0].Fields {
		assert.True(t, f.Touched, f.Name)
	}
}

func TestSetField_Errors(t *testing.T) {
	_, ts := newTestServer(t, nil)
	id := createSession(t, ts.URL, "registration").ID

	resp, body := do(t, http.MethodPut, ts.URL+"/api/sessions/"+id+"/fields",
		map[string]string{"group": "nope", "field": "name", "value": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "unknown group")

	resp, _ = do(t, http.MethodPut, ts.URL+"/api/sessions/"+id+"/fields",
		map[string]string{"group": "personal", "field": "nope", "value": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPut, ts.URL+"/api/sessions/not-a-session/fields",
		map[string]string{"group": "personal", "field": "name", "value": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListEntries(t *testing.T) {
	_, ts := newTestServer(t, nil)
	id := createSession(t, ts.URL, "skills").ID
	base := ts.URL + "/api/sessions/" + id

	var added entryResponse
	require.Equal(t, http.StatusCreated, post(t, base+"/entries", &added))
	assert.Equal(t, 0, added.Index)
	post(t, base+"/entries", &added)
	assert.Equal(t, 1, added.Index)
	require.Len(t, added.Snapshot.List.Entries, 2)

	resp, _ := do(t, http.MethodPut, base+"/entries/0", map[string]string{"value": "Go"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := do(t, http.MethodDelete, base+"/entries/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Len(t, snap.List.Entries, 1)

	resp, _ = do(t, http.MethodDelete, base+"/entries/5", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, base+"/entries/x", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	setField(t, ts.URL, id, "profile", "name", "Ann")
	var sub submitResponse
	require.Equal(t, http.StatusOK, post(t, base+"/submit", &sub))
	assert.Equal(t, []any{"Go"}, sub.Values["skills"])

	other := createSession(t, ts.URL, "registration").ID
	assert.Equal(t, http.StatusConflict, post(t, ts.URL+"/api/sessions/"+other+"/entries", nil))
}

func TestDeleteSession(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	id := createSession(t, ts.URL, "user").ID

	resp, _ := do(t, http.MethodDelete, ts.URL+"/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, srv.Store().Len())

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecords_TokenGuard(t *testing.T) {
	_, ts := newTestServer(t, &Config{Token: "s3cret", Records: &fakeRecords{}})

	resp, _ := do(t, http.MethodGet, ts.URL+"/api/records", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), "Bearer")

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/records", nil, "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/records", nil, "Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"name":"Alice"`)
}

func TestRecords_Errors(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp, _ := do(t, http.MethodGet, ts.URL+"/api/records", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	_, ts = newTestServer(t, &Config{Records: &fakeRecords{listErr: &records.RecordError{Type: records.ErrTypeTimeout}}})
	resp, body := do(t, http.MethodGet, ts.URL+"/api/records", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, string(body), "timeout")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(ErrNotList))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("x")))
}

func TestStore_Sweep(t *testing.T) {
	srv, err := New(&Config{})
	require.NoError(t, err)

	st := NewStore(time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }

	def, _ := srv.config.Catalog.Lookup("user")
	old, err := st.Create(def)
	require.NoError(t, err)
	updates, _ := old.Subscribe()

	now = now.Add(50 * time.Second)
	fresh, err := st.Create(def)
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, st.Sweep())

	_, ok := st.Get(old.ID)
	assert.False(t, ok)
	_, ok = st.Get(fresh.ID)
	assert.True(t, ok)

	_, open := <-updates
	assert.False(t, open, "expired session closes its subscribers")

	assert.Equal(t, 0, NewStore(0).Sweep())
}

func TestSweepInterval(t *testing.T) {
	assert.Equal(t, time.Second, sweepInterval(time.Second))
	assert.Equal(t, 15*time.Second, sweepInterval(time.Minute))
	assert.Equal(t, time.Minute, sweepInterval(time.Hour))
}

func TestStartAndShutdown(t *testing.T) {
	srv, err := New(&Config{Host: "127.0.0.1", Port: 0})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Start(ctx) }()

	require.Eventually(t, func() bool { return srv.Addr() != "" }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, 0, srv.Store().Len())
}
