package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	vegeta "github.com/tsenart/vegeta/v12/lib"
)

const (
	mockPort = 9091
	appPort  = 8081
)

var runsyncResp = []byte(`{"id":"bench-job","status":"COMPLETED","output":"https://cdn.bench.local/out.png"}`)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "Duration of the test")
	rate := flag.Int("rate", 50, "Requests per second")
	latency := flag.Duration("upstream-latency", 50*time.Millisecond, "Simulated runsync latency")
	chaos := flag.Bool("chaos", false, "Simulate random client disconnections")
	flag.Parse()

	var upstreamCalls atomic.Int64
	go startMockRunPod(*latency, &upstreamCalls)

	fmt.Println("Building application...")
	buildCmd := exec.Command("go", "build", "-o", "bin/server", "./cmd/server")
	buildCmd.Stdout = os.Stdout
	buildCmd.Stderr = os.Stderr
	if err := buildCmd.Run(); err != nil {
		log.Fatalf("Failed to build app: %v", err)
	}

	configFile := "bench_config.yaml"
	if err := os.WriteFile(configFile, []byte(benchConfig), 0o644); err != nil {
		log.Fatalf("Failed to write config: %v", err)
	}
	defer os.Remove(configFile)

	fmt.Println("Starting application...")
	cmd := exec.Command("./bin/server")
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("CONFIG_FILE=%s", configFile),
		fmt.Sprintf("SERVER_PORT=%d", appPort),
		"RUNPOD_API_KEY=bench-key",
		"RUNPOD_ENDPOINT_ID=bench-endpoint",
		"LOG_LEVEL=error",
	)

	logFile, _ := os.Create("bench_server.log")
	defer logFile.Close()
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}
	defer func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}()

	target := fmt.Sprintf("http://localhost:%d/api/generate", appPort)
	waitForApp(fmt.Sprintf("http://localhost:%d/health", appPort))

	done := make(chan struct{})
	if *chaos {
		concurrency := min(max(*rate/10, 5), 50)
		go startChaosMonkey(target, concurrency, done)
	}

	fmt.Printf("Running generate benchmark: %s duration, %d req/s, upstream latency %s\n", *duration, *rate, *latency)

	body := []byte(`{"prompt":"a lighthouse at dusk, oil painting","model_id":"z-image-turbo"}`)
	targeter := func(t *vegeta.Target) error {
		t.Method = http.MethodPost
		t.URL = target
		t.Body = body
		t.Header = http.Header{
			"Content-Type":      []string{"application/json"},
			"X-Benchmark-Start": []string{strconv.FormatInt(time.Now().UnixNano(), 10)},
		}
		return nil
	}

	attacker := vegeta.NewAttacker(vegeta.KeepAlive(true))
	var metrics vegeta.Metrics

	for res := range attacker.Attack(targeter, vegeta.Rate{Freq: *rate, Per: time.Second}, *duration, "Benchmark") {
		metrics.Add(res)
	}
	metrics.Close()
	close(done)

	fmt.Println("--------------------------------------------------")
	fmt.Println("99th percentile: ", metrics.Latencies.P99)
	fmt.Println("Mean:            ", metrics.Latencies.Mean)
	fmt.Println("Max:             ", metrics.Latencies.Max)
	fmt.Println("Relay overhead:  ", metrics.Latencies.Mean-*latency)
	fmt.Printf("Success:         %.2f%%\n", metrics.Success*100)
	fmt.Printf("Throughput:      %.2f req/s\n", metrics.Throughput)
	fmt.Printf("Upstream calls:  %d\n", upstreamCalls.Load())
	fmt.Println("--------------------------------------------------")

	if len(metrics.Errors) > 0 {
		fmt.Println("Error Set (first 5 unique):")
		seen := make(map[string]bool)
		for _, msg := range metrics.Errors {
			if !seen[msg] && len(seen) < 5 {
				fmt.Println(msg)
				seen[msg] = true
			}
		}
	}
}

func startChaosMonkey(url string, concurrency int, done chan struct{}) {
	fmt.Printf("Starting Chaos Monkey with %d concurrent disrupters (random disconnects 1-200ms)\n", concurrency)
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()
			client := &http.Client{}
			payload := `{"prompt":"chaos request"}`

			for {
				select {
				case <-done:
					return
				default:
					timeout := time.Duration(rand.Intn(200)+1) * time.Millisecond

					ctx, cancel := context.WithTimeout(context.Background(), timeout)
					req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(payload))
					req.Header.Set("Content-Type", "application/json")

					resp, err := client.Do(req)
					if err == nil {
						_ = resp.Body.Close()
					}
					cancel()

					time.Sleep(time.Duration(rand.Intn(50)) * time.Millisecond)
				}
			}
		}()
	}
	wg.Wait()
}

// startMockRunPod answers runsync and the balance query like the real API.
func startMockRunPod(latency time.Duration, calls *atomic.Int64) {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v2/{endpoint}/runsync", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if startStr := r.Header.Get("X-Benchmark-Start"); startStr != "" && rand.Intn(100) == 0 {
			start, _ := strconv.ParseInt(startStr, 10, 64)
			fmt.Printf("DEBUG: relay overhead: %v\n", time.Duration(time.Now().UnixNano()-start))
		}

		var req struct {
			Input struct {
				Prompt string `json:"prompt"`
			} `json:"input"`
		}
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil || req.Input.Prompt == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"No prompt provided"}`))
			return
		}

		time.Sleep(latency)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(runsyncResp)
	})

	mux.HandleFunc("POST /graphql", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"myself":{"clientBalance":42.0}}}`))
	})

	_ = http.ListenAndServe(fmt.Sprintf(":%d", mockPort), mux)
}

func waitForApp(url string) {
	for i := 0; i < 20; i++ {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	log.Fatal("App timed out")
}

var benchConfig = fmt.Sprintf(`
server:
  env: production
log:
  level: error
cache:
  driver: memory
rate_limit:
  enabled: false
runpod:
  base_url: "http://localhost:%d/v2"
  graphql_url: "http://localhost:%d/graphql"
`, mockPort, mockPort)
