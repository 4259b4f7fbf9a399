package acceptance

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/delivery-tracker-api/routes"
	"github.com/kendall-kelly/delivery-tracker-api/tests/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// envelope is the response shape shared by every endpoint
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e envelope) code() string {
	if e.Error == nil {
		return ""
	}
	return e.Error.Code
}

// startServer runs the full application router on a real listener
func startServer(t *testing.T) (*httptest.Server, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	testutil.MustSetTestEnvironment(t)

	cfg := testutil.Config()
	db := testutil.NewDB(t)

	router := gin.New()
	router.Use(gin.Recovery())
	routes.Setup(router, cfg)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, db
}

// client is one browser: it keeps its own session cookie between requests
type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, server *httptest.Server) *client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: server.URL, http: &http.Client{Jar: jar}}
}

func (c *client) send(req *http.Request) (int, envelope) {
	c.t.Helper()
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	var body envelope
	require.NoError(c.t, json.Unmarshal(raw, &body), string(raw))
	return resp.StatusCode, body
}

func (c *client) do(method, path string, payload interface{}) (int, envelope) {
	c.t.Helper()
	var body io.Reader = http.NoBody
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(c.t, err)
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, c.base+path, body)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	return c.send(req)
}

func (c *client) upload(path, field, filename string, content []byte) (int, envelope) {
	c.t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(c.t, err)
	_, err = part.Write(content)
	require.NoError(c.t, err)
	require.NoError(c.t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, c.base+path, body)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.send(req)
}

func (c *client) login(phone, password string) {
	c.t.Helper()
	status, body := c.do(http.MethodPost, "/api/login", map[string]string{"phone": phone, "password": password})
	require.Equal(c.t, http.StatusOK, status, "login as %s failed: %s", phone, body.code())
}

// decode reads the data member into out
func decode(t *testing.T, body envelope, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body.Data, out))
}
