// Mock chain signing relay for local development and e2e runs. It accepts
// the contract calls the server mirrors (registerContent, vouchForContent,
// getContentDetails), keeps registrations in memory, and returns fabricated
// transaction receipts. No real chain is involved.
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	defaultPort      = "8090"
	defaultAPIKey    = "chain-relay-secret-key"
	defaultLatencyMs = "100"
)

type registration struct {
	ContentHash     string `json:"content_hash"`
	ContentURI      string `json:"content_uri"`
	CreationType    uint8  `json:"creation_type"`
	PlatformSource  string `json:"platform_source"`
	CreationContext string `json:"creation_context"`
}

type contentMetadata struct {
	Creator         string `json:"creator"`
	Timestamp       uint64 `json:"timestamp"`
	CreationType    uint8  `json:"creation_type"`
	Status          uint8  `json:"status"`
	CreationContext string `json:"creation_context"`
	VouchCount      uint64 `json:"vouch_count"`
	PlatformSource  string `json:"platform_source"`
	ContentURI      string `json:"content_uri"`
}

type receipt struct {
	TxHash string `json:"tx_hash"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

var (
	apiKey    = getEnv("API_KEY", defaultAPIKey)
	latencyMs = getEnvInt("LATENCY_MS", defaultLatencyMs)

	mu       sync.Mutex
	registry = map[string]*contentMetadata{}
	txSeq    int
)

func main() {
	port := getEnv("PORT", defaultPort)

	http.HandleFunc("/health", handleHealth)
	http.HandleFunc("/contract/registerContent", handleRegisterContent)
	http.HandleFunc("/contract/vouchForContent", handleVouchForContent)
	http.HandleFunc("/contract/getContentDetails", handleGetContentDetails)

	log.Printf("⛓️  Mock chain signing relay starting on port %s", port)
	log.Printf("📝 API Key: %s", apiKey)
	log.Printf("⏱️  Simulated latency: %dms", latencyMs)

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "chain-relay",
		"version": "1.0.0",
	})
}

func handleRegisterContent(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, http.MethodPost) {
		return
	}
	simulateLatency()

	var reg registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil || reg.ContentHash == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "content_hash is required")
		return
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[reg.ContentHash]; exists {
		writeError(w, http.StatusConflict, "already_registered", "content is already registered on chain")
		return
	}
	registry[reg.ContentHash] = &contentMetadata{
		Creator:         "0x" + shortHash("creator:"+reg.ContentHash),
		Timestamp:       uint64(time.Now().Unix()),
		CreationType:    reg.CreationType,
		Status:          1,
		CreationContext: reg.CreationContext,
		PlatformSource:  reg.PlatformSource,
		ContentURI:      reg.ContentURI,
	}
	writeJSON(w, http.StatusAccepted, nextReceipt())
}

func handleVouchForContent(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, http.MethodPost) {
		return
	}
	simulateLatency()

	var req struct {
		ContentHash string `json:"content_hash"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ContentHash == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "content_hash is required")
		return
	}

	mu.Lock()
	defer mu.Unlock()
	meta, exists := registry[req.ContentHash]
	if !exists {
		writeError(w, http.StatusNotFound, "not_registered", "content is not registered on chain")
		return
	}
	meta.VouchCount++
	if meta.VouchCount >= 3 {
		meta.Status = 2
	}
	writeJSON(w, http.StatusAccepted, nextReceipt())
}

func handleGetContentDetails(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, http.MethodGet) {
		return
	}
	simulateLatency()

	contentHash := r.URL.Query().Get("content_hash")
	if contentHash == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "content_hash is required")
		return
	}

	mu.Lock()
	defer mu.Unlock()
	meta, exists := registry[contentHash]
	if !exists {
		writeError(w, http.StatusNotFound, "not_registered", "content is not registered on chain")
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func authorize(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return false
	}
	if r.Header.Get("X-API-Key") != apiKey {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or missing API key")
		return false
	}
	return true
}

// nextReceipt fabricates a deterministic-looking transaction hash. Callers
// must hold mu.
func nextReceipt() receipt {
	txSeq++
	return receipt{TxHash: "0x" + shortHash("tx:"+strconv.Itoa(txSeq))}
}

func shortHash(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:8])
}

func simulateLatency() {
	if latencyMs > 0 {
		time.Sleep(time.Duration(latencyMs) * time.Millisecond)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message, Code: status})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key, defaultValue string) int {
	value := getEnv(key, defaultValue)
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid integer value for %s, using default: %s", key, defaultValue)
		intValue, _ = strconv.Atoi(defaultValue)
	}
	return intValue
}
