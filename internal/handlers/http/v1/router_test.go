package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/gfdmit/web-forum/feed-service/config"
	"github.com/gfdmit/web-forum/feed-service/internal/auth"
	"github.com/gfdmit/web-forum/feed-service/internal/repository/memory"
	"github.com/gfdmit/web-forum/feed-service/internal/service"
	"github.com/gfdmit/web-forum/feed-service/internal/storage"
	"github.com/gfdmit/web-forum/feed-service/internal/storage/local"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router http.Handler
	root   string
}

type image struct {
	name        string
	contentType string
	data        string
}

func testConfig(root string) config.Config {
	return config.Config{
		Media:      config.Media{Driver: "local", Root: root, Dir: "images"},
		Auth:       config.Auth{JWTSecret: "somesupersecretsecret", TokenTTL: 10 * time.Hour, BcryptCost: bcrypt.MinCost},
		Feed:       config.Feed{DefaultPage: 1, DefaultPerPage: 2, MaxPerPage: 100},
		HTTPServer: config.HTTPServer{RequestTimeout: 5 * time.Second, MaxUploadSize: 1 << 20},
	}
}

func testService(t *testing.T, conf config.Config) *service.Service {
	t.Helper()
	files, err := local.New(conf.Media)
	require.NoError(t, err)
	return service.New(memory.New(), files, auth.New(conf.Auth), conf.Feed)
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	root := t.TempDir()
	conf := testConfig(root)

	router, err := New(testService(t, conf), conf)
	require.NoError(t, err)
	return &testServer{router: router, root: root}
}

func (ts *testServer) do(t *testing.T, method, target, token string, body io.Reader, contentType string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	res := map[string]interface{}{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	}
	return rec, res
}

func (ts *testServer) doJSON(t *testing.T, method, target, token, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	return ts.do(t, method, target, token, strings.NewReader(body), "application/json")
}

func (ts *testServer) doForm(t *testing.T, method, target, token string, fields map[string]string, img *image) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if img != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, img.name))
		h.Set("Content-Type", img.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(img.data))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return ts.do(t, method, target, token, &buf, w.FormDataContentType())
}

func (ts *testServer) signupAndSignin(t *testing.T, email, name string) (token, id string) {
	t.Helper()

	rec, res := ts.doJSON(t, http.MethodPost, "/api/v1/auth/signup", "",
		fmt.Sprintf(`{"email":%q,"name":%q,"password":"password123"}`, email, name))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id = res["userId"].(string)

	rec, res = ts.doJSON(t, http.MethodPost, "/api/v1/auth/signin", "",
		fmt.Sprintf(`{"email":%q,"password":"password123"}`, email))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, id, res["userId"])
	return res["token"].(string), id
}

func (ts *testServer) images(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(ts.root, "images"))
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func (ts *testServer) createPost(t *testing.T, token string) map[string]interface{} {
	t.Helper()
	rec, res := ts.doForm(t, http.MethodPost, "/api/v1/feed/addpost", token,
		map[string]string{"title": "Post title", "content": "Post content"},
		&image{name: "img1.png", contentType: "image/png", data: "first"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return res["post"].(map[string]interface{})
}

func TestPing(t *testing.T) {
	ts := newTestServer(t)
	rec, _ := ts.do(t, http.MethodGet, "/api/v1/ping", "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSignup(t *testing.T) {
	ts := newTestServer(t)

	rec, res := ts.doJSON(t, http.MethodPost, "/api/v1/auth/signup", "", `{"email":"dummy@dummy.com","name":"dummy","password":"dummypassword"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "User created!", res["message"])
	assert.NotEmpty(t, res["userId"])

	rec, res = ts.doJSON(t, http.MethodPost, "/api/v1/auth/signup", "", `{"email":"dummy@dummy.com","name":"other","password":"otherpassword"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, service.MsgEmailTaken, res["message"])

	rec, res = ts.doJSON(t, http.MethodPost, "/api/v1/auth/signup", "", `{"email":"not-an-email","name":"","password":"abc"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Len(t, res["data"], 3)

	rec, _ = ts.doJSON(t, http.MethodPost, "/api/v1/auth/signup", "", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, res = ts.doJSON(t, http.MethodPost, "/api/v1/auth/signup", "",
		fmt.Sprintf(`{"email":"long@dummy.com","name":"long","password":%q}`, strings.Repeat("p", 80)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Len(t, res["data"], 1)
}

func TestSignin(t *testing.T) {
	ts := newTestServer(t)
	ts.signupAndSignin(t, "dummy@dummy.com", "dummy")

	rec, res := ts.doJSON(t, http.MethodPost, "/api/v1/auth/signin", "", `{"email":"dummy@dummy.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, service.MsgWrongPassword, res["message"])

	rec, res = ts.doJSON(t, http.MethodPost, "/api/v1/auth/signin", "", `{"email":"nobody@dummy.com","password":"password123"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, service.MsgUnknownEmail, res["message"])
}

func TestFeedRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	for _, token := range []string{"", "garbage"} {
		rec, res := ts.do(t, http.MethodGet, "/api/v1/feed/posts", token, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, service.MsgNotAuthenticated, res["message"])
	}

	token, _ := ts.signupAndSignin(t, "a@example.com", "Alice")
	for header, want := range map[string]int{
		"Bearer " + token: http.StatusOK,
		"bearer " + token: http.StatusOK,
		token:              http.StatusUnauthorized,
		"Token " + token:  http.StatusUnauthorized,
		"Bearer" + token:  http.StatusUnauthorized,
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/feed/posts", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		ts.router.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, header)
	}

	rec, _ := ts.doForm(t, http.MethodPost, "/api/v1/feed/addpost", "",
		map[string]string{"title": "Post title", "content": "Post content"},
		&image{name: "img.png", contentType: "image/png", data: "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, ts.images(t), "nothing is stored before authentication")
}

func TestCreatePost(t *testing.T) {
	ts := newTestServer(t)
	token, id := ts.signupAndSignin(t, "a@example.com", "Alice")

	rec, res := ts.doForm(t, http.MethodPost, "/api/v1/feed/addpost", token,
		map[string]string{"title": "  Post title  ", "content": "Post content"},
		&image{name: "img1.png", contentType: "image/png", data: "first"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Post created successfully!", res["message"])

	post := res["post"].(map[string]interface{})
	assert.Equal(t, "Post title", post["title"])
	assert.Equal(t, id, post["creator"])
	assert.Equal(t, map[string]interface{}{"_id": id, "name": "Alice"}, res["creator"])

	imageURL := post["imageUrl"].(string)
	assert.True(t, strings.HasPrefix(imageURL, "images/"))
	assert.True(t, strings.HasSuffix(imageURL, "-img1.png"))

	rec, _ = ts.do(t, http.MethodGet, "/"+imageURL, "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "first", rec.Body.String())
}

func TestCreatePost_RejectedUploadsAreRemoved(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.signupAndSignin(t, "a@example.com", "Alice")

	rec, res := ts.doForm(t, http.MethodPost, "/api/v1/feed/addpost", token,
		map[string]string{"title": "abc", "content": "Post content"},
		&image{name: "img1.png", contentType: "image/png", data: "first"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Validation failed, entered post data is incorrect.", res["message"])
	assert.Empty(t, ts.images(t))

	rec, res = ts.doForm(t, http.MethodPost, "/api/v1/feed/addpost", token,
		map[string]string{"title": "Post title", "content": "Post content"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, service.MsgNoImage, res["message"])
}

func TestCreatePost_DisallowedTypeIsIgnored(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.signupAndSignin(t, "a@example.com", "Alice")

	rec, res := ts.doForm(t, http.MethodPost, "/api/v1/feed/addpost", token,
		map[string]string{"title": "Post title", "content": "Post content"},
		&image{name: "notes.txt", contentType: "text/plain", data: "text"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, service.MsgNoImage, res["message"])
	assert.Empty(t, ts.images(t))
}

func TestGetPosts(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.signupAndSignin(t, "a@example.com", "Alice")
	for i := 0; i < 3; i++ {
		ts.createPost(t, token)
	}

	rec, res := ts.do(t, http.MethodGet, "/api/v1/feed/posts", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Fetched posts successfully.", res["message"])
	assert.Len(t, res["posts"], 2)
	assert.EqualValues(t, 3, res["postsCount"])

	rec, res = ts.do(t, http.MethodGet, "/api/v1/feed/posts?page=2&perPage=2", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, res["posts"], 1)

	rec, res = ts.do(t, http.MethodGet, "/api/v1/feed/posts?page=abc&perPage=xyz", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, res["posts"], 2)

	rec, res = ts.do(t, http.MethodGet, "/api/v1/feed/posts?page=9", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, res["posts"])
	assert.EqualValues(t, 3, res["postsCount"])
}

func TestGetPost(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.signupAndSignin(t, "a@example.com", "Alice")
	post := ts.createPost(t, token)

	rec, res := ts.do(t, http.MethodGet, "/api/v1/feed/post/"+post["_id"].(string), token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Post fetched.", res["message"])
	assert.Equal(t, post["_id"], res["post"].(map[string]interface{})["_id"])

	rec, res = ts.do(t, http.MethodGet, "/api/v1/feed/post/missing", token, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, service.MsgPostNotFound, res["message"])
}

func TestUpdatePost_NonCreator(t *testing.T) {
	ts := newTestServer(t)
	tokenA, _ := ts.signupAndSignin(t, "a@example.com", "Alice")
	tokenB, _ := ts.signupAndSignin(t, "b@example.com", "Bob")
	post := ts.createPost(t, tokenA)
	target := "/api/v1/feed/post/" + post["_id"].(string)

	rec, res := ts.doForm(t, http.MethodPut, target, tokenB,
		map[string]string{"title": "Hijacked title", "content": "Hijacked content"},
		&image{name: "evil.png", contentType: "image/png", data: "evil"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, service.MsgNotAuthorized, res["message"])
	assert.Len(t, ts.images(t), 1, "the rejected upload is removed and the original kept")

	rec, _ = ts.do(t, http.MethodDelete, target, tokenB, nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	_, res = ts.do(t, http.MethodGet, target, tokenA, nil, "")
	assert.Equal(t, "Post title", res["post"].(map[string]interface{})["title"])
}

func TestUpdateAndDelete_Missing(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.signupAndSignin(t, "a@example.com", "Alice")

	rec, _ := ts.doForm(t, http.MethodPut, "/api/v1/feed/post/missing", token,
		map[string]string{"title": "Some title", "content": "Some content"},
		&image{name: "img.jpg", contentType: "image/jpeg", data: "jpg"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, ts.images(t))

	rec, _ = ts.do(t, http.MethodDelete, "/api/v1/feed/post/missing", token, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.signupAndSignin(t, "a@example.com", "Alice")
	post := ts.createPost(t, token)
	target := "/api/v1/feed/post/" + post["_id"].(string)
	img1 := post["imageUrl"].(string)

	rec, res := ts.doForm(t, http.MethodPut, target, token,
		map[string]string{"title": "Edited title", "content": "Edited content"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Post updated!", res["message"])
	assert.Equal(t, img1, res["post"].(map[string]interface{})["imageUrl"])

	rec, res = ts.doForm(t, http.MethodPut, target, token,
		map[string]string{"title": "Edited again", "content": "Edited content"},
		&image{name: "img2.jpeg", contentType: "image/jpeg", data: "second"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	img2 := res["post"].(map[string]interface{})["imageUrl"].(string)
	assert.NotEqual(t, img1, img2)
	assert.Equal(t, []string{filepath.Base(img2)}, ts.images(t))

	rec, _ = ts.do(t, http.MethodGet, "/"+img1, "", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, res = ts.do(t, http.MethodDelete, target, token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Deleted post.", res["message"])
	assert.Empty(t, ts.images(t))

	rec, _ = ts.do(t, http.MethodGet, target, token, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeImage_RejectsEscapes(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(ts.root, "secret.txt"), []byte("secret"), 0o600))

	rec, _ := ts.do(t, http.MethodGet, "/images/..%2fsecret.txt", "", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestGraphQLRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.doJSON(t, http.MethodPost, "/api/v1/graphql", "", `{"query":"{ posts { postsCount } }"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, _ := ts.signupAndSignin(t, "a@example.com", "Alice")
	rec, _ = ts.doJSON(t, http.MethodPost, "/api/v1/graphql", token, `{"query":"{ posts { postsCount } }"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"posts":{"postsCount":0}}}`, rec.Body.String())
}

func TestPanicRemovesUpload(t *testing.T) {
	root := t.TempDir()
	conf := testConfig(root)
	h := &handler{svc: testService(t, conf), conf: conf.HTTPServer, media: conf.Media}

	router := gin.New()
	router.Group("/api/v1", h.apiMiddleware()...).POST("/boom", h.acceptImage, func(c *gin.Context) {
		panic("boom")
	})
	ts := &testServer{router: router, root: root}

	rec, res := ts.doForm(t, http.MethodPost, "/api/v1/boom", "",
		map[string]string{"title": "Post title", "content": "Post content"},
		&image{name: "img1.png", contentType: "image/png", data: "first"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, msgInternal, res["message"])
	assert.Empty(t, ts.images(t))
}

// brokenFiles opens every image as a stream that fails mid-read.
type brokenFiles struct {
	storage.FileStore
}

func (brokenFiles) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	return io.NopCloser(io.MultiReader(strings.NewReader("partial"), iotest.ErrReader(errors.New("disk gone")))), nil
}

func TestServeImage_LogsCopyFailure(t *testing.T) {
	conf := testConfig(t.TempDir())
	svc := service.New(memory.New(), brokenFiles{}, auth.New(conf.Auth), conf.Feed)
	router, err := New(svc, conf)
	require.NoError(t, err)

	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/a.png", nil))

	assert.Equal(t, "partial", rec.Body.String())
	assert.Contains(t, logs.String(), "[HTTP] serve image images/a.png")
	assert.Contains(t, logs.String(), "disk gone")
}
