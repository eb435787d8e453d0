package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PratikDhanave/returns-ledger-service/internal/models"
	"github.com/PratikDhanave/returns-ledger-service/internal/pipeline"
)

type fakeProcessor struct {
	bodies  [][]byte
	ctxErrs []error
	result  pipeline.Result
}

func (f *fakeProcessor) Process(ctx context.Context, body []byte) pipeline.Result {
	f.bodies = append(f.bodies, body)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return f.result
}

type outcomes []string

func (o *outcomes) ObserveWebhook(outcome string) { *o = append(*o, outcome) }

func serve(t *testing.T, proc Processor, rec WebhookRecorder, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterWebhookRoutes(r, "/webhook/retouren", proc, rec, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhook/retouren", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhook_AlwaysOK(t *testing.T) {
	cases := []struct {
		name    string
		result  pipeline.Result
		outcome string
	}{
		{"processed", pipeline.Result{ReturnID: "R1", Rows: make([]models.LedgerRow, 1), Appended: 1}, "processed"},
		{"skipped", pipeline.Result{ReturnID: "R1"}, "skipped"},
		{"invalid", pipeline.Result{Invalid: true}, "invalid"},
		{"append failed", pipeline.Result{ReturnID: "R1", Rows: make([]models.LedgerRow, 2), Failed: 2}, "append_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			proc := &fakeProcessor{result: tc.result}
			var rec outcomes

			w := serve(t, proc, &rec, `{"id":"R1"}`)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "OK", w.Body.String())
			assert.Equal(t, outcomes{tc.outcome}, rec)
			require.Len(t, proc.bodies, 1)
			assert.JSONEq(t, `{"id":"R1"}`, string(proc.bodies[0]))
		})
	}
}

func TestWebhook_PassesRawBody(t *testing.T) {
	proc := &fakeProcessor{}
	w := serve(t, proc, nil, `garbage`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "garbage", string(proc.bodies[0]))
}

func TestWebhook_ProcessingOutlivesSenderDisconnect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	proc := &fakeProcessor{result: pipeline.Result{ReturnID: "R1"}}
	r := gin.New()
	RegisterWebhookRoutes(r, "/webhook/retouren", proc, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/webhook/retouren", strings.NewReader(`{"id":"R1"}`)).WithContext(ctx)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, proc.ctxErrs, 1)
	assert.NoError(t, proc.ctxErrs[0])
}
