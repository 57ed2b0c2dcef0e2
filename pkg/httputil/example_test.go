package httputil_test

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/wonny/auditready/pkg/config"
	"github.com/wonny/auditready/pkg/httputil"
	"github.com/wonny/auditready/pkg/logger"
)

// Example_apiKeyHeader demonstrates sending an API key as a header instead of in the URL
func Example_apiKeyHeader() {
	cfg := &config.Config{
		Env:      "production",
		LogLevel: "info",
	}
	log := logger.New(cfg)

	client := httputil.New(cfg, log).WithRetry(2, 500*time.Millisecond)

	header := http.Header{}
	header.Set("x-goog-api-key", "your-api-key")

	resp, err := client.PostJSONWithHeader(context.Background(), "https://api.example.com/plans", map[string]string{
		"outlet": "HSM Seremban",
	}, header)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	fmt.Printf("Status: %d\n", resp.StatusCode)
}
