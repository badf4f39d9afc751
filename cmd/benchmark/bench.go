package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

const (
	appPort   = 8081
	benchDB   = "bench.db"
	benchUser = "bench@canteen.local"
	benchPass = "bench-password"
)

var baseURL = fmt.Sprintf("http://localhost:%d", appPort)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "Duration of the test")
	rate := flag.Int("rate", 50, "Requests per second")
	writes := flag.Bool("writes", false, "Mix order toggles in with the analytics reads")
	flag.Parse()

	fmt.Println("Building application...")
	buildCmd := exec.Command("go", "build", "-o", "bin/server", "./cmd/server")
	buildCmd.Stdout = os.Stdout
	buildCmd.Stderr = os.Stderr
	if err := buildCmd.Run(); err != nil {
		log.Fatalf("Failed to build app: %v", err)
	}

	configFile := "bench_config.yaml"
	if err := os.WriteFile(configFile, []byte(benchConfig), 0644); err != nil {
		log.Fatalf("Failed to write config: %v", err)
	}
	defer os.Remove(configFile)

	fmt.Println("Starting application...")
	cmd := exec.Command("./bin/server")
	cmd.Env = append(os.Environ(), fmt.Sprintf("CONFIG_FILE=%s", configFile))
	cmd.Env = append(cmd.Env, "LOG_LEVEL=error")

	logFile, _ := os.Create("bench_server.log")
	defer logFile.Close()
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}
	defer func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
		os.Remove(benchDB)
	}()

	waitForApp(baseURL + "/health")

	token := bootstrap()
	orderIDs := createOrders(token, 20)

	mode := "read-only"
	if *writes {
		mode = "read/write"
	}
	fmt.Printf("Running %s benchmark: %s duration, %d req/s\n", mode, *duration, *rate)

	auth := "Bearer " + token
	var n uint64
	targeter := func(t *vegeta.Target) error {
		i := atomic.AddUint64(&n, 1)
		t.Header = http.Header{
			"Content-Type":  []string{"application/json"},
			"Authorization": []string{auth},
		}
		if *writes && i%4 == 0 {
			t.Method = http.MethodPatch
			t.URL = fmt.Sprintf("%s/api/day-orders/%s/toggle", baseURL, orderIDs[int(i)%len(orderIDs)])
			t.Body = []byte(`{"field":"ordered_lunch"}`)
			return nil
		}
		t.Method = http.MethodGet
		t.URL = baseURL + "/api/analytics/summary"
		t.Body = nil
		return nil
	}

	attacker := vegeta.NewAttacker(vegeta.KeepAlive(true))
	var metrics vegeta.Metrics

	for res := range attacker.Attack(targeter, vegeta.Rate{Freq: *rate, Per: time.Second}, *duration, "Benchmark") {
		metrics.Add(res)
	}
	metrics.Close()

	fmt.Println("--------------------------------------------------")
	fmt.Println("99th percentile: ", metrics.Latencies.P99)
	fmt.Println("Mean:            ", metrics.Latencies.Mean)
	fmt.Println("Max:             ", metrics.Latencies.Max)
	fmt.Printf("Success:         %.2f%%\n", metrics.Success*100)
	fmt.Printf("Throughput:      %.2f req/s\n", metrics.Throughput)
	fmt.Println("--------------------------------------------------")

	if len(metrics.Errors) > 0 {
		fmt.Println("Error Set (first 5 unique):")

		uniqueErrors := make(map[string]bool)
		count := 0
		for _, msg := range metrics.Errors {
			if !uniqueErrors[msg] && count < 5 {
				fmt.Println(msg)

				uniqueErrors[msg] = true
				count++
			}
		}
	}
}

// bootstrap creates the benchmark admin and returns its token.
func bootstrap() string {
	post("/api/admins/create-admin", "", map[string]string{
		"email": benchUser, "fullName": "Bench", "password": benchPass,
	}, nil)

	var login struct {
		Token string `json:"token"`
	}
	if code := post("/api/admins/login-admin", "", map[string]string{"email": benchUser, "password": benchPass}, &login); code != http.StatusOK {
		log.Fatalf("Login failed with status %d", code)
	}
	return login.Token
}

func createOrders(token string, count int) []string {
	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		var emp struct {
			ID string `json:"id"`
		}
		post("/api/employees", token, map[string]string{
			"name":  fmt.Sprintf("Bench %d", i),
			"email": fmt.Sprintf("bench-%d-%d@canteen.local", time.Now().UnixNano(), i),
		}, &emp)

		var order struct {
			ID string `json:"id"`
		}
		if code := post("/api/day-orders", token, map[string]string{"emp_id": emp.ID}, &order); code != http.StatusOK {
			log.Fatalf("Failed to create order: status %d", code)
		}
		ids = append(ids, order.ID)
	}
	return ids
}

func post(path, token string, payload, target interface{}) int {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, baseURL+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()

	if target != nil {
		_ = json.NewDecoder(resp.Body).Decode(target)
	}
	return resp.StatusCode
}

func waitForApp(url string) {
	for i := 0; i < 20; i++ {
		resp, err := http.Get(url)
		if err == nil && resp.StatusCode == 200 {
			resp.Body.Close()
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
	log.Fatal("App timed out")
}

var benchConfig = fmt.Sprintf(`
server:
  port: "%d"
  env: development
rate_limit:
  requests_per_second: 0
log:
  level: "error"
database:
  dsn: "file:%s?_journal_mode=WAL&_busy_timeout=5000"
auth:
  jwt_secret: "bench-secret"
`, appPort, benchDB)
