//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxislabs/praxis/internal/api/handlers"
	"github.com/praxislabs/praxis/internal/openai"
	"github.com/praxislabs/praxis/internal/repository"
	"github.com/praxislabs/praxis/internal/server"
	"github.com/praxislabs/praxis/internal/service"
	"github.com/praxislabs/praxis/internal/storage"
	"github.com/praxislabs/praxis/internal/testutil"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	RustFSC      *testutil.RustFSContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	S3Client     *storage.S3Client
	OrgID        string
	APIKeyToken  string
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with containers and
// an in-process server wired against deterministic AI fakes.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-transcripts",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser := startServer(t, pool, s3Client, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		RustFSC:      s3C,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		S3Client:     s3Client,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// Bootstrap creates an organization and API key for testing
func (e *E2ETestEnv) Bootstrap() {
	orgResp, err := e.Post("/orgs", map[string]string{"name": "E2E Test Org"}, "")
	if err != nil {
		e.T.Fatalf("failed to create org: %v", err)
	}

	var orgData struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(orgResp.Data, &orgData); err != nil {
		e.T.Fatalf("failed to parse org response: %v", err)
	}
	e.OrgID = orgData.ID

	keyResp, err := e.Post("/apikeys", map[string]string{
		"org_id": e.OrgID,
		"name":   "e2e-test-key",
	}, "")
	if err != nil {
		e.T.Fatalf("failed to create API key: %v", err)
	}

	var keyData struct {
		Token string `json:"token"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(keyResp.Data, &keyData); err != nil {
		e.T.Fatalf("failed to parse key response: %v", err)
	}
	e.APIKeyToken = keyData.Token
}

// CreateTenant provisions an extra organization with its own API key,
// used by isolation tests.
func (e *E2ETestEnv) CreateTenant(name string) (orgID, token string) {
	orgResp, err := e.Post("/orgs", map[string]string{"name": name}, "")
	if err != nil {
		e.T.Fatalf("failed to create org %s: %v", name, err)
	}
	var orgData struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(orgResp.Data, &orgData); err != nil {
		e.T.Fatalf("failed to parse org response: %v", err)
	}

	keyResp, err := e.Post("/apikeys", map[string]string{
		"org_id": orgData.ID,
		"name":   name + "-key",
	}, "")
	if err != nil {
		e.T.Fatalf("failed to create key for %s: %v", name, err)
	}
	var keyData struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(keyResp.Data, &keyData); err != nil {
		e.T.Fatalf("failed to parse key response: %v", err)
	}
	return orgData.ID, keyData.Token
}

// ExecSQL runs a statement against the test database, failing the test
// on error. Tests use it to seed platform-owned tables the API does not
// expose writes for.
func (e *E2ETestEnv) ExecSQL(query string, args ...interface{}) {
	if _, err := e.Pool.Exec(e.Ctx, query, args...); err != nil {
		e.T.Fatalf("seed SQL failed: %v\nquery: %s", err, query)
	}
}

// CountRows returns the number of rows a query yields
func (e *E2ETestEnv) CountRows(query string, args ...interface{}) int {
	var n int
	if err := e.Pool.QueryRow(e.Ctx, query, args...).Scan(&n); err != nil {
		e.T.Fatalf("count query failed: %v\nquery: %s", err, query)
	}
	return n
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path, authToken string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil, authToken)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}, authToken string) (*APIResponse, error) {
	return e.doRequest("POST", path, body, authToken)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}, authToken string) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// fakeEmbeddingClient produces deterministic unit-length vectors from a
// text hash, so reindex runs are repeatable without a provider key.
type fakeEmbeddingClient struct{}

func (f *fakeEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, openai.DefaultEmbeddingDimensions)
	var norm float64
	for i := range vec {
		b := sum[(i*4)%len(sum):]
		v := float32(binary.BigEndian.Uint32(b[:4])%1000) / 1000.0
		vec[i] = v
		norm += float64(v) * float64(v)
	}
	scale := float32(1.0 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}

// fakeCompletionClient echoes the final user turn. Messages mentioning
// a preference get an insight block so capture paths can be exercised.
type fakeCompletionClient struct{}

func (f *fakeCompletionClient) Complete(ctx context.Context, model string, messages []openai.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages")
	}
	last := messages[len(messages)-1].Content
	reply := "fake answer"
	if strings.Contains(last, "prefer") {
		reply += " [INSIGHT]prefers video lessons[/INSIGHT]"
	}
	return reply, nil
}

// startServer wires the full service graph against the test database
// and starts an HTTP server on the given port.
func startServer(t *testing.T, pool *pgxpool.Pool, s3Client *storage.S3Client, port int) (string, func()) {
	courseRepo := repository.NewCourseRepository(pool)
	embeddingRepo := repository.NewEmbeddingRepository(pool)
	collectionRepo := repository.NewCollectionRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	groupRepo := repository.NewGroupRepository(pool)
	assignmentRepo := repository.NewAssignmentRepository(pool)
	resourceRepo := repository.NewResourceRepository(pool)
	progressRepo := repository.NewProgressRepository(pool)
	creditRepo := repository.NewCreditRepository(pool)
	conversationRepo := repository.NewConversationRepository(pool)
	agentConfigRepo := repository.NewAgentConfigRepository(pool)
	interactionRepo := repository.NewInteractionRepository(pool)
	indexJobRepo := repository.NewIndexJobRepository(pool)
	orgRepo := repository.NewOrgRepository(pool)
	apiKeyRepo := repository.NewAPIKeyRepository(pool)

	uuidGen := &service.DefaultUUIDGenerator{}
	embedder := &fakeEmbeddingClient{}
	completer := &fakeCompletionClient{}

	authSvc := service.NewAuthService(orgRepo, apiKeyRepo, uuidGen)
	indexerSvc := service.NewIndexerService(courseRepo, embeddingRepo, embedder, s3Client)
	evaluator := service.NewRuleEvaluator(profileRepo)
	teamSvc := service.NewTeamService(profileRepo, groupRepo, evaluator, progressRepo, conversationRepo, creditRepo)
	scopeResolver := service.NewScopeResolver(courseRepo, collectionRepo, profileRepo, teamSvc, embeddingRepo, embedder, s3Client)
	agentSvc := service.NewAgentService(agentConfigRepo, scopeResolver, completer, profileRepo, interactionRepo, conversationRepo)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, profileRepo, groupRepo, courseRepo, resourceRepo)
	courseSvc := service.NewCourseService(courseRepo, indexJobRepo)
	conversationSvc := service.NewConversationService(conversationRepo, profileRepo)

	router := server.NewRouter(server.RouterConfig{
		AuthValidator:       authSvc,
		AgentHandler:        handlers.NewAgentHandler(agentSvc),
		AssignmentHandler:   handlers.NewAssignmentHandler(assignmentSvc),
		TeamHandler:         handlers.NewTeamHandler(teamSvc),
		CourseHandler:       handlers.NewCourseHandler(courseSvc, indexerSvc),
		ConversationHandler: handlers.NewConversationHandler(conversationSvc),
		AuthHandler:         handlers.NewAuthHandler(authSvc),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not become ready within %s", timeout)
}

func getFreePort() (int, error) {
	l, err := net.Listen("tcp", ":0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
