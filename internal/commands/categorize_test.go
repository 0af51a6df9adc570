package commands_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastos-dev/gastos/internal/auditlog"
	"github.com/gastos-dev/gastos/internal/export"
	"github.com/gastos-dev/gastos/internal/model"
)

var replies = map[string]string{
	"MERCADO BOM PRECO": "Alimentação",
	"UBER TRIP":         "Transporte.",
	"FARMACIA SAO JOAO": "saude",
	"PIX MARIA SILVA":   "Transferência para terceiros",
	"ESCOLA IDIOMAS":    "Educação",
	"RESTAURANTE SABOR": "Não sei dizer",
}

// fakeModel serves OpenAI-compatible chat completions, answering from
// replies by the item named in the prompt. Items in fail get a 500.
func fakeModel(t *testing.T, calls *atomic.Int32, fail ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		body, _ := io.ReadAll(r.Body)
		if !assert.NoError(t, json.Unmarshal(body, &req)) || len(req.Messages) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		prompt := req.Messages[0].Content

		w.Header().Set("Content-Type", "application/json")
		for _, item := range fail {
			if strings.Contains(prompt, item) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
				return
			}
		}
		reply := "Outros"
		for item, label := range replies {
			if strings.Contains(prompt, item) {
				reply = label
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 0,
			"model":   "test",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// setupProject creates a project whose classifier points at baseURL and
// copies the valid statement fixtures into its input directory.
func setupProject(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	_, err := runGastos(t, nil, "init", dir)
	require.NoError(t, err)

	cfg := fmt.Sprintf("profile: interactive\nclassifier:\n  provider: groq\n  base_url: %s\n", baseURL)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gastos.yaml"), []byte(cfg), 0o644))

	for _, name := range []string{"extrato_marco.ofx", "extrato_abril.ofx", "cartao_maio.ofx"} {
		data, err := os.ReadFile(filepath.Join("..", "..", "testdata", name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "extratos", name), data, 0o644))
	}
	return dir
}

func categorize(t *testing.T, dir string, env []string, args ...string) (string, error) {
	t.Helper()
	env = append([]string{"GROQ_API_KEY=test-key"}, env...)
	args = append([]string{"categorize", "--config", filepath.Join(dir, "gastos.yaml")}, args...)
	return runGastos(t, env, args...)
}

func TestCategorize_EndToEnd(t *testing.T) {
	var calls atomic.Int32
	srv := fakeModel(t, &calls)
	dir := setupProject(t, srv.URL)

	out, err := categorize(t, dir, nil)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Wrote 6 transactions from 3 statement(s)")
	assert.Equal(t, int32(6), calls.Load())

	txns, err := export.ReadFile(filepath.Join(dir, "Planilha.csv"))
	require.NoError(t, err)
	require.Len(t, txns, 6)

	// Files are read in name order: cartao_maio, extrato_abril, extrato_marco.
	got := make([]string, len(txns))
	for i, txn := range txns {
		assert.True(t, txn.Amount.IsNegative(), "row %d should be a debit", i)
		got[i] = txn.Description + "=" + txn.Category
	}
	assert.Equal(t, []string{
		"RESTAURANTE SABOR=Outros",
		"FARMACIA SAO JOAO=Saúde",
		"PIX MARIA SILVA=Transferência para terceiros",
		"ESCOLA IDIOMAS=Educação",
		"MERCADO BOM PRECO=Alimentação",
		"UBER TRIP=Transporte",
	}, got)

	entries, err := auditlog.Read(filepath.Join(dir, "logs", "classificacao.csv"))
	require.NoError(t, err)
	require.Len(t, entries, 6)
	counts := auditlog.Summary(entries)
	assert.Equal(t, 1, counts[auditlog.OutcomeFallback])
	assert.Equal(t, 1, counts[auditlog.OutcomeNormalized])
	assert.Equal(t, 4, counts[auditlog.OutcomeExact])
	assert.Contains(t, out, "Outcomes: 4 exact, 1 normalized, 1 fallback, 0 resumed, 0 failed")

	sum, err := runGastos(t, nil, "summary", "--config", filepath.Join(dir, "gastos.yaml"))
	require.NoError(t, err, sum)
	assert.Contains(t, sum, "Transações (6)")
	assert.Contains(t, sum, "Classification log (6 entries). Outcomes: 4 exact, 1 normalized, 1 fallback")
}

func TestCategorize_MissingAPIKey(t *testing.T) {
	var calls atomic.Int32
	srv := fakeModel(t, &calls)
	dir := setupProject(t, srv.URL)

	out, err := categorize(t, dir, []string{"GROQ_API_KEY="})
	require.Error(t, err)
	assert.Contains(t, out, "GROQ_API_KEY")
	assert.Zero(t, calls.Load())
	assert.NoFileExists(t, filepath.Join(dir, "Planilha.csv"))
}

func TestCategorize_APIKeyFromEnvFile(t *testing.T) {
	var calls atomic.Int32
	srv := fakeModel(t, &calls)
	dir := setupProject(t, srv.URL)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "key.env"), []byte("GROQ_API_KEY=from-file\n"), 0o600))

	cmd := exec.Command(binaryPath, "categorize", "--config", filepath.Join(dir, "gastos.yaml"))
	cmd.Env = cleanEnv()
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	assert.Equal(t, int32(6), calls.Load())
}

func TestCategorize_ServiceFailureDiscardsRun(t *testing.T) {
	var calls atomic.Int32
	srv := fakeModel(t, &calls, "PIX MARIA SILVA")
	dir := setupProject(t, srv.URL)

	out, err := categorize(t, dir, nil)
	require.Error(t, err)
	assert.Contains(t, out, "PIX MARIA SILVA")
	assert.NoFileExists(t, filepath.Join(dir, "Planilha.csv"))
	// The sweep stops at the failing row.
	assert.Equal(t, int32(3), calls.Load())
}

func TestCategorize_KeepGoingThenResume(t *testing.T) {
	var calls atomic.Int32
	failing := fakeModel(t, &calls, "UBER TRIP")
	dir := setupProject(t, failing.URL)

	out, err := categorize(t, dir, []string{"GASTOS_CLASSIFIER_KEEP_GOING=true"})
	require.Error(t, err, "a partial run exits non-zero")
	assert.Contains(t, out, "1 transaction(s) left unclassified")

	txns, err := export.ReadFile(filepath.Join(dir, "Planilha.csv"))
	require.NoError(t, err)
	require.Len(t, txns, 6)
	last := txns[5]
	assert.Equal(t, "UBER TRIP", last.Description)
	assert.Equal(t, model.UnclassifiedLabel, last.Category)
	assert.True(t, last.Unclassified)

	// Only the unclassified row goes back to the model.
	var again atomic.Int32
	healthy := fakeModel(t, &again)
	cfg := fmt.Sprintf("profile: interactive\nclassifier:\n  base_url: %s\n", healthy.URL)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gastos.yaml"), []byte(cfg), 0o644))

	out, err = categorize(t, dir, nil, "--resume")
	require.NoError(t, err, out)
	assert.Equal(t, int32(1), again.Load())

	txns, err = export.ReadFile(filepath.Join(dir, "Planilha.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Transporte", txns[5].Category)

	entries, err := auditlog.Read(filepath.Join(dir, "logs", "classificacao.csv"))
	require.NoError(t, err)
	assert.Len(t, entries, 12)
	assert.Equal(t, 5, auditlog.Summary(entries)[auditlog.OutcomeResumed])
}

func TestCategorize_NoStatements(t *testing.T) {
	var calls atomic.Int32
	srv := fakeModel(t, &calls)
	dir := setupProject(t, srv.URL)
	empty := t.TempDir()

	out, err := categorize(t, dir, nil, "--dir", empty)
	require.Error(t, err)
	assert.Contains(t, out, "no statements found")
}

func TestCategorize_CorruptStatementAborts(t *testing.T) {
	var calls atomic.Int32
	srv := fakeModel(t, &calls)
	dir := setupProject(t, srv.URL)
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "corrompido.ofx"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extratos", "corrompido.ofx"), data, 0o644))

	out, err := categorize(t, dir, nil)
	require.Error(t, err)
	assert.Contains(t, out, "corrompido.ofx")
	assert.Zero(t, calls.Load())
}

func TestServe_Health(t *testing.T) {
	var calls atomic.Int32
	srv := fakeModel(t, &calls)
	dir := setupProject(t, srv.URL)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	cmd := exec.Command(binaryPath, "serve", "--config", filepath.Join(dir, "gastos.yaml"), "--addr", addr)
	cmd.Env = append(cleanEnv(), "GROQ_API_KEY=test-key")
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		_ = cmd.Process.Signal(os.Interrupt)
		_ = cmd.Wait()
	})

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + addr + "/health")
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
