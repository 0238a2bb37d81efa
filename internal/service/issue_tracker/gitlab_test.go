package issue_tracker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/model"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/replay"
)

type recordedRequest struct {
	Method string
	Path   string
	Sudo   string
	Body   map[string]any
}

type gitlabAPIMock struct {
	server *httptest.Server

	mu         sync.Mutex
	requests   []recordedRequest
	nextIID    int64
	issues     map[int64]string
	users      []map[string]any
	milestones []map[string]any
	failStatus int
}

func newGitLabAPIMock() *gitlabAPIMock {
	return &gitlabAPIMock{nextIID: 1, issues: map[int64]string{}}
}

func (m *gitlabAPIMock) start() {
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
}

func (m *gitlabAPIMock) close() {
	m.server.Close()
}

func (m *gitlabAPIMock) record(r *http.Request) recordedRequest {
	rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Sudo: r.Header.Get("Sudo")}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &rec.Body)
	}
	m.requests = append(m.requests, rec)
	return rec
}

func (m *gitlabAPIMock) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.record(r)

	if m.failStatus != 0 {
		http.Error(w, `{"message":"boom"}`, m.failStatus)
		return
	}

	const prefix = "/api/v4/projects/42"
	path := strings.TrimPrefix(r.URL.Path, prefix)
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/api/v4/users" && r.Method == http.MethodGet:
		m.paginate(w, r, m.users)
	case !strings.HasPrefix(r.URL.Path, prefix):
		http.NotFound(w, r)
	case path == "/issues" && r.Method == http.MethodPost:
		iid := m.nextIID
		m.nextIID++
		desc, _ := rec.Body["description"].(string)
		m.issues[iid] = desc
		writeJSON(w, http.StatusCreated, map[string]any{"id": 1000 + iid, "iid": iid, "description": desc})
	case strings.HasPrefix(path, "/issues/") && strings.HasSuffix(path, "/notes"):
		writeJSON(w, http.StatusCreated, map[string]any{"id": 1, "body": rec.Body["body"]})
	case strings.HasPrefix(path, "/issues/") && strings.HasSuffix(path, "/subscribe"):
		writeJSON(w, http.StatusCreated, map[string]any{"id": 1})
	case strings.HasPrefix(path, "/issues/"):
		iid, _ := strconv.ParseInt(strings.TrimPrefix(path, "/issues/"), 10, 64)
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"id": 1000 + iid, "iid": iid, "description": m.issues[iid]})
		case http.MethodPut:
			if d, ok := rec.Body["description"].(string); ok {
				m.issues[iid] = d
			}
			writeJSON(w, http.StatusOK, map[string]any{"id": 1000 + iid, "iid": iid})
		case http.MethodDelete:
			delete(m.issues, iid)
			w.WriteHeader(http.StatusNoContent)
		}
	case path == "/milestones" && r.Method == http.MethodGet:
		m.paginate(w, r, m.milestones)
	case path == "/milestones" && r.Method == http.MethodPost:
		writeJSON(w, http.StatusCreated, map[string]any{"id": 77, "title": rec.Body["title"]})
	case strings.HasPrefix(path, "/milestones/") && r.Method == http.MethodPut:
		writeJSON(w, http.StatusOK, map[string]any{"id": 77, "state": "closed"})
	case path == "/uploads" && r.Method == http.MethodPost:
		writeJSON(w, http.StatusCreated, map[string]any{"markdown": "![f](/uploads/abc/f)"})
	case path == "/wikis" && r.Method == http.MethodPost:
		writeJSON(w, http.StatusCreated, map[string]any{"slug": rec.Body["title"]})
	case strings.HasPrefix(path, "/wikis/") && r.Method == http.MethodPut:
		writeJSON(w, http.StatusOK, map[string]any{"slug": strings.TrimPrefix(path, "/wikis/")})
	default:
		http.NotFound(w, r)
	}
}

func (m *gitlabAPIMock) paginate(w http.ResponseWriter, r *http.Request, items []map[string]any) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page == 0 {
		page = 1
	}
	if perPage == 0 {
		perPage = 100
	}
	start := min((page-1)*perPage, len(items))
	end := min(start+perPage, len(items))
	if end < len(items) {
		w.Header().Set("X-Next-Page", strconv.Itoa(page+1))
	}
	writeJSON(w, http.StatusOK, items[start:end])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (m *gitlabAPIMock) last() recordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

var _ = Describe("ParseProjectURL", func() {
	It("splits instance and project path", func() {
		base, project, err := ParseProjectURL("https://git.example.com/team/tracker")
		Expect(err).NotTo(HaveOccurred())
		Expect(base).To(Equal("https://git.example.com"))
		Expect(project).To(Equal("team/tracker"))
	})

	It("keeps subgroup prefixes in the instance url", func() {
		base, project, err := ParseProjectURL("http://localhost:8080/gitlab/team/tracker/")
		Expect(err).NotTo(HaveOccurred())
		Expect(base).To(Equal("http://localhost:8080/gitlab"))
		Expect(project).To(Equal("team/tracker"))
	})

	It("rejects urls without a project path", func() {
		_, _, err := ParseProjectURL("git.example.com")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("GitLab", func() {
	var (
		ctx  context.Context
		mock *gitlabAPIMock
		gl   *GitLab
	)

	BeforeEach(func() {
		ctx = context.Background()
		mock = newGitLabAPIMock()
		mock.start()
		DeferCleanup(mock.close)

		var err error
		gl, err = New(mock.server.URL+"/", "token", "42")
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates and deletes placeholders as the token owner", func() {
		ref, err := gl.CreatePlaceholder(ctx, "TMP")
		Expect(err).NotTo(HaveOccurred())
		Expect(ref).To(Equal(replay.Ref{ID: 1001, IID: 1}))
		Expect(mock.last().Sudo).To(BeEmpty())

		Expect(gl.DeleteIssue(ctx, ref)).To(Succeed())
		Expect(mock.last().Method).To(Equal(http.MethodDelete))
		Expect(mock.last().Path).To(Equal("/api/v4/projects/42/issues/1"))
	})

	It("creates issues under sudo", func() {
		created := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
		ref, err := gl.CreateIssue(ctx, 7, replay.CreateIssueParams{
			Title:       "Bug",
			Description: "text",
			AssigneeID:  ptr(int64(9)),
			CreatedAt:   &created,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(ref.IID).To(Equal(int64(1)))

		req := mock.last()
		Expect(req.Sudo).To(Equal("7"))
		Expect(req.Body).To(HaveKeyWithValue("title", "Bug"))
		Expect(req.Body).To(HaveKeyWithValue("assignee_ids", []any{float64(9)}))
		Expect(req.Body).To(HaveKey("created_at"))
	})

	It("sends only the changed fields on update", func() {
		err := gl.UpdateIssue(ctx, 3, replay.Ref{ID: 1005, IID: 5}, replay.UpdateIssueParams{
			AssigneeID: ptr(int64(0)),
			StateEvent: "close",
		})
		Expect(err).NotTo(HaveOccurred())

		req := mock.last()
		Expect(req.Method).To(Equal(http.MethodPut))
		Expect(req.Path).To(Equal("/api/v4/projects/42/issues/5"))
		Expect(req.Body).To(HaveKeyWithValue("state_event", "close"))
		Expect(req.Body).To(HaveKeyWithValue("assignee_ids", []any{float64(0)}))
		Expect(req.Body).NotTo(HaveKey("title"))
		Expect(req.Body).NotTo(HaveKey("description"))
	})

	It("reads back descriptions", func() {
		ref, err := gl.CreateIssue(ctx, 0, replay.CreateIssueParams{Title: "a", Description: "hello"})
		Expect(err).NotTo(HaveOccurred())

		desc, err := gl.GetDescription(ctx, ref)
		Expect(err).NotTo(HaveOccurred())
		Expect(desc).To(Equal("hello"))
	})

	It("posts notes with their original timestamp", func() {
		err := gl.CreateNote(ctx, 4, replay.Ref{IID: 2}, replay.NoteParams{Body: "hi", CreatedAt: time.Now()})
		Expect(err).NotTo(HaveOccurred())
		req := mock.last()
		Expect(req.Path).To(Equal("/api/v4/projects/42/issues/2/notes"))
		Expect(req.Sudo).To(Equal("4"))
		Expect(req.Body).To(HaveKeyWithValue("body", "hi"))
		Expect(req.Body).To(HaveKey("created_at"))
	})

	It("lists users and milestones across pages", func() {
		for i := 1; i <= 150; i++ {
			mock.users = append(mock.users, map[string]any{"id": i, "username": "user" + strconv.Itoa(i)})
		}
		mock.milestones = []map[string]any{{"id": 5, "title": "Release 1"}}

		users, err := gl.ListUsers(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(users).To(HaveLen(150))
		Expect(users).To(HaveKeyWithValue("user150", int64(150)))

		milestones, err := gl.ListMilestones(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(milestones).To(Equal(map[string]int64{"Release 1": 5}))
	})

	It("closes created milestones that were closed at the source", func() {
		id, err := gl.CreateMilestone(ctx, model.Milestone{Title: "Old", IsClosed: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(int64(77)))
		req := mock.last()
		Expect(req.Method).To(Equal(http.MethodPut))
		Expect(req.Body).To(HaveKeyWithValue("state_event", "close"))
	})

	It("uploads files and returns their markdown", func() {
		md, err := gl.UploadFile(ctx, "f", strings.NewReader("data"))
		Expect(err).NotTo(HaveOccurred())
		Expect(md).To(Equal("![f](/uploads/abc/f)"))

		req := mock.last()
		Expect(req.Method).To(Equal(http.MethodPost))
		Expect(req.Path).To(Equal("/api/v4/projects/42/uploads"))
	})

	It("writes wiki pages in markdown", func() {
		Expect(gl.CreateWikiPage(ctx, 2, "Home", "v1")).To(Succeed())
		req := mock.last()
		Expect(req.Body).To(HaveKeyWithValue("title", "Home"))
		Expect(req.Body).To(HaveKeyWithValue("format", "markdown"))
		Expect(req.Sudo).To(Equal("2"))

		Expect(gl.EditWikiPage(ctx, 2, "Home", "v2")).To(Succeed())
		Expect(mock.last().Path).To(Equal("/api/v4/projects/42/wikis/Home"))
	})

	It("does not retry failed requests", func() {
		mock.failStatus = http.StatusInternalServerError
		_, err := gl.CreatePlaceholder(ctx, "TMP")
		Expect(err).To(HaveOccurred())
		Expect(mock.requests).To(HaveLen(1))
	})
})

func ptr[T any](v T) *T { return &v }
