package registry_go

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registry-console/pkg/registry-go/model"
)

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

type loginRecorder struct {
	paths []string
}

func (r *loginRecorder) handler(path string) {
	r.paths = append(r.paths, path)
}

func newTestClient(t *testing.T, url string, token string, rec *loginRecorder) *RestClient {
	t.Helper()
	opts := []Option{WithTokenSource(staticToken(token))}
	if rec != nil {
		opts = append(opts, WithUnauthorizedHandler(rec.handler))
	}
	c, err := NewRestClient(&Config{ServerUrl: url, Username: "admin", Password: "Admin@123"}, opts...)
	require.NoError(t, err)
	return c
}

func TestNewRestClientRejectsBadUrl(t *testing.T) {
	_, err := NewRestClient(&Config{ServerUrl: "registry.local"})
	require.Error(t, err)
	assert.Equal(t, ErrorInvalid, CodeOf(err))
}

func TestSubmitWithoutTokenIsRejectedLocally(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	rec := &loginRecorder{}
	c := newTestClient(t, srv.URL, "", rec)

	_, err := c.ListNamespaces(context.Background(), model.Pagination{})
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.EqualValues(t, 0, atomic.LoadInt32(&hits))
	assert.Equal(t, []string{"namespaces/"}, rec.paths)
}

func TestLoginProceedsWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/users/login", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "Admin@123", pass)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1,"username":"admin","token":"a","refresh_token":"b"}`))
	}))
	defer srv.Close()

	rec := &loginRecorder{}
	c := newTestClient(t, srv.URL, "", rec)

	pair, err := c.Login(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "a", pair.Token)
	assert.Equal(t, "b", pair.RefreshToken)
	assert.Empty(t, rec.paths)
}

func TestSubmitAttachesStoredToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer stored", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"endpoint":"registry.example.com"}`))
	}))
	defer srv.Close()

	endpoint, err := newTestClient(t, srv.URL, "stored", nil).GetEndpoint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "registry.example.com", endpoint)
}

func TestSubmitKeepsCallerAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer refresh-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"token":"a","refresh_token":"b"}`))
	}))
	defer srv.Close()

	pair, err := newTestClient(t, srv.URL, "stored", nil).RefreshToken(context.Background(), "refresh-token")
	require.NoError(t, err)
	assert.Equal(t, "a", pair.Token)
}

func TestUnauthorizedResponseTriggersLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":401,"title":"Unauthorized","description":"token expired"}`))
	}))
	defer srv.Close()

	rec := &loginRecorder{}
	_, err := newTestClient(t, srv.URL, "expired", rec).Self(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, []string{"users/self"}, rec.paths)
}

func TestServerErrorCarriesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":500,"title":"Internal Server Error","description":"database is down"}`))
	}))
	defer srv.Close()

	rec := &loginRecorder{}
	_, err := newTestClient(t, srv.URL, "t", rec).ListUsers(context.Background(), model.Pagination{})
	require.Error(t, err)
	assert.True(t, IsInternal(err))

	var re RegistryError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "Internal Server Error", re.Title())
	assert.Equal(t, "database is down", re.Description())
	assert.Empty(t, rec.paths)
}

func TestClientErrorsResolveToTypedErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/namespaces/7":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":404,"title":"Not Found","description":"namespace 7 not found"}`))
		default:
			w.WriteHeader(http.StatusConflict)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "t", nil)

	_, err := c.GetNamespace(context.Background(), 7)
	assert.True(t, IsNotFound(err))

	_, err = c.CreateNamespace(context.Background(), model.NamespaceForm{Name: "library"})
	assert.True(t, IsConflict(err))
}

func TestSubmitRawResolvesNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "t", nil)
	res, err := c.client.Submit(context.Background(), RequestForm{Method: http.MethodGet, Path: "users/"})
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestListNamespacesSendsPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/namespaces/", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "created_at", q.Get("sort"))
		assert.Equal(t, "desc", q.Get("method"))
		_, _ = w.Write([]byte(`{"items":[{"id":1,"name":"library","visibility":"public","size":1024,"size_limit":0}],"total":11}`))
	}))
	defer srv.Close()

	list, err := newTestClient(t, srv.URL, "t", nil).ListNamespaces(context.Background(), model.Pagination{
		Page: 2, Limit: 10, Sort: "created_at", Method: model.SortDesc,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 11, list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "library", list.Items[0].Name)
	assert.Equal(t, model.VisibilityPublic, list.Items[0].Visibility)
}

func TestCreateRepositorySendsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/namespaces/library/repositories/", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var form model.RepositoryForm
		require.NoError(t, json.NewDecoder(r.Body).Decode(&form))
		assert.Equal(t, "library/busybox", form.Name)
		require.NotNil(t, form.SizeLimit)
		assert.EqualValues(t, 1<<30, *form.SizeLimit)
		assert.Nil(t, form.TagLimit)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":42}`))
	}))
	defer srv.Close()

	id, err := newTestClient(t, srv.URL, "t", nil).CreateRepository(context.Background(), "library", model.RepositoryForm{
		Name: "library/busybox", SizeLimit: model.Limit(1 << 30),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
}

func TestListTagsDecodesArtifact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/namespaces/library/tags/", r.URL.Path)
		assert.Equal(t, "library/busybox", r.URL.Query().Get("repository"))
		_, _ = w.Write([]byte(`{"items":[{"id":3,"name":"latest","artifact":{"digest":"sha256:abc","blob_size":2048}}],"total":1}`))
	}))
	defer srv.Close()

	list, err := newTestClient(t, srv.URL, "t", nil).ListTags(context.Background(), "library", "library/busybox", model.Pagination{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "latest", list.Items[0].Name)
	assert.Equal(t, "sha256:abc", list.Items[0].Artifact.Digest)
	assert.EqualValues(t, 2048, list.Items[0].Artifact.BlobSize)
}

func TestFindNamespaceByName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "lib", r.URL.Query().Get("name"))
		_, _ = w.Write([]byte(`{"items":[{"id":1,"name":"library"},{"id":2,"name":"lib"}],"total":2}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "t", nil)
	ns, err := c.FindNamespace(context.Background(), "lib")
	require.NoError(t, err)
	assert.EqualValues(t, 2, ns.Id)

	_, err = c.FindNamespace(context.Background(), "missing")
	assert.Error(t, err)
}

func TestValidatePasswordReportsPolicy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/validators/password", r.URL.Path)
		if r.URL.Query().Get("password") == "weak" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":400,"title":"Bad Request","description":"password too short"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "t", nil)
	require.NoError(t, c.ValidatePassword(context.Background(), "Str0ng!pass"))

	err := c.ValidatePassword(context.Background(), "weak")
	require.Error(t, err)
	assert.Equal(t, ErrorBadRequest, CodeOf(err))
	assert.Contains(t, err.Error(), "password too short")
}

func TestFindNamespaceWalksPages(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		pages = append(pages, q.Get("page"))
		assert.Equal(t, "100", q.Get("limit"))
		list := model.NamespaceList{Total: 150}
		if q.Get("page") == "1" {
			for i := 0; i < 100; i++ {
				list.Items = append(list.Items, model.Namespace{Id: int64(i), Name: fmt.Sprintf("team-%d", i)})
			}
		} else {
			list.Items = []model.Namespace{{Id: 120, Name: "team"}}
		}
		_ = json.NewEncoder(w).Encode(list)
	}))
	defer srv.Close()

	ns, err := newTestClient(t, srv.URL, "t", nil).FindNamespace(context.Background(), "team")
	require.NoError(t, err)
	assert.EqualValues(t, 120, ns.Id)
	assert.Equal(t, []string{"1", "2"}, pages)
}

func TestFindStopsAfterLastPage(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"items":[{"id":1,"username":"ci_bot_2"}],"total":1}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, "t", nil).FindUser(context.Background(), "ci_bot")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGetAndUpdateRepository(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/namespaces/library/repositories/9", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"id":9,"name":"library/busybox","size":4096,"tag_count":3,"tag_limit":10}`))
		case http.MethodPut:
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.JSONEq(t, `{"name":"library/busybox","tag_limit":0}`, string(body))
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "t", nil)
	repo, err := c.GetRepository(context.Background(), "library", 9)
	require.NoError(t, err)
	assert.Equal(t, "library/busybox", repo.Name)
	assert.EqualValues(t, 3, repo.TagCount)

	err = c.UpdateRepository(context.Background(), "library", 9, model.RepositoryForm{
		Name: "library/busybox", TagLimit: model.Limit(0),
	})
	require.NoError(t, err)
}

func TestUpdateUserSendsChangedFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/users/4", r.URL.Path)
		require.Equal(t, http.MethodPut, r.Method)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"role":"Admin","namespace_limit":0}`, string(body))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newTestClient(t, srv.URL, "t", nil).UpdateUser(context.Background(), 4, model.UserUpdateForm{
		Role: model.RoleAdmin, NamespaceLimit: model.Limit(0),
	})
	require.NoError(t, err)
}

func TestValidateReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/validators/reference", r.URL.Path)
		if r.URL.Query().Get("reference") == "library/busybox:latest" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":400,"title":"Bad Request","description":"invalid reference"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "t", nil)
	require.NoError(t, c.ValidateReference(context.Background(), "library/busybox:latest"))

	err := c.ValidateReference(context.Background(), "library/busybox:")
	require.Error(t, err)
	assert.Equal(t, ErrorBadRequest, CodeOf(err))
}
