package hyperbench

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	fiber "github.com/gofiber/fiber/v3"
	"github.com/goccy/go-json"
	"github.com/longbridgeapp/assert"
	"github.com/shamaton/msgpack/v2"
)

// TestManagementHTTP_BasicEndpoints spins up the management HTTP server on an ephemeral port
// and validates the report endpoints.
func TestManagementHTTP_BasicEndpoints(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t, WithManagementHTTP("127.0.0.1:0"))

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		_ = s.Close(shutdownCtx)
	}()

	assert.Nil(t, s.AddTest("fast", constant(0.001)))
	assert.Nil(t, s.RunRandomTrials(ctx, 2))
	s.StartStep("warmup")
	s.FinishStep()
	s.Count("hits")

	// wait briefly for listener
	time.Sleep(30 * time.Millisecond)

	addr := s.ManagementHTTPAddress()
	assert.True(t, addr != "")

	client := &http.Client{Timeout: 2 * time.Second}
	get := func(path string) (*http.Response, []byte) {
		resp, err := client.Get("http://" + addr + path)
		assert.Nil(t, err)

		body, err := io.ReadAll(resp.Body)
		assert.NoError(t, err)
		_ = resp.Body.Close()

		return resp, body
	}

	// /health
	resp, body := get("/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	// /results
	resp, body = get("/results")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var results struct {
		Unit  string `json:"unit"`
		Tests []struct {
			Name string `json:"name"`
			Stat struct {
				Num int `json:"num"`
			} `json:"stat"`
		} `json:"tests"`
	}

	assert.NoError(t, json.Unmarshal(body, &results))
	assert.Equal(t, "ms", results.Unit)
	assert.Equal(t, "fast", results.Tests[0].Name)
	assert.Equal(t, 2, results.Tests[0].Stat.Num)

	// /steps
	resp, body = get("/steps")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var steps struct {
		Steps []struct {
			Name    string `json:"name"`
			Percent int    `json:"percent"`
		} `json:"steps"`
	}

	assert.NoError(t, json.Unmarshal(body, &steps))
	assert.Equal(t, "warmup", steps.Steps[0].Name)

	// /report in every format
	resp, body = get("/report")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var report Report

	assert.NoError(t, json.Unmarshal(body, &report))
	assert.Equal(t, "hits", report.Histogram[0].Key)

	resp, body = get("/report?format=msgpack")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/msgpack", resp.Header.Get("Content-Type"))

	report = Report{}

	assert.NoError(t, msgpack.Unmarshal(body, &report))
	assert.Equal(t, "fast", report.Tests[0].Name)

	resp, _ = get("/report?format=yaml")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// /histogram
	resp, body = get("/histogram?top=1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var hist struct {
		Top     int `json:"top"`
		Entries []struct {
			Key   string `json:"key"`
			Count int64  `json:"count"`
		} `json:"entries"`
	}

	assert.NoError(t, json.Unmarshal(body, &hist))
	assert.Equal(t, 1, hist.Top)
	assert.Equal(t, "hits", hist.Entries[0].Key)
	assert.Equal(t, int64(1), hist.Entries[0].Count)

	resp, _ = get("/histogram?top=-3")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestManagementHTTP_Auth(t *testing.T) {
	errDenied := errors.New("denied")
	deny := func(fiber.Ctx) error { return fiber.NewError(fiber.StatusUnauthorized, errDenied.Error()) }

	s, _ := newTestSession(t, WithManagementHTTP("127.0.0.1:0", WithMgmtAuth(deny)))

	defer func() { _ = s.Close(context.Background()) }()

	time.Sleep(30 * time.Millisecond)

	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get("http://" + s.ManagementHTTPAddress() + "/health")
	assert.Nil(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestManagementHTTP_ShutdownBeforeStart(t *testing.T) {
	srv := NewManagementHTTPServer("127.0.0.1:0")

	assert.Equal(t, "", srv.Address())
	assert.Nil(t, srv.Shutdown(context.Background()))
}
