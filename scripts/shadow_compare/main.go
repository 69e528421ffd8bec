// Command shadow_compare replays read-only registrar requests against
// both the legacy dashboard backend and this API and reports response
// differences. It is meant to run in staging during the cutover; a
// breaking diff on a critical endpoint fails the run.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
)

type endpoint struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type manifest struct {
	Endpoints []endpoint `json:"endpoints"`
}

type result struct {
	Endpoint      endpoint
	LegacyStatus  int
	NewStatus     int
	LegacyLatency time.Duration
	NewLatency    time.Duration
	StatusMatch   bool
	BodyMatch     bool
	Err           error
}

func (r result) broken() bool {
	return r.Err != nil || !r.StatusMatch || !r.BodyMatch
}

func main() {
	var (
		newBase    string
		legacyBase string
		manifestFn string
		token      string
		timeout    time.Duration
	)
	flag.StringVar(&newBase, "new-base", "http://localhost:8080", "registrar API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:3000", "legacy dashboard API base URL")
	flag.StringVar(&manifestFn, "endpoints", filepath.Join("scripts", "shadow_compare", "endpoints.json"), "endpoint manifest path")
	flag.StringVar(&token, "token", os.Getenv("SHADOW_COMPARE_TOKEN"), "bearer token for authenticated routes")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "per-request timeout")
	flag.Parse()

	endpoints, err := loadManifest(manifestFn)
	if err != nil {
		log.Fatalf("load endpoint manifest: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var results []result
	breaking := 0

	for _, ep := range endpoints {
		res := compare(client, newBase, legacyBase, token, ep)
		if res.broken() && ep.Critical {
			breaking++
		}
		results = append(results, res)
	}

	report(results)
	fmt.Printf("checked %d endpoints, %d breaking\n", len(results), breaking)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadManifest(path string) ([]endpoint, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if len(m.Endpoints) == 0 {
		return nil, fmt.Errorf("%s lists no endpoints", path)
	}
	return m.Endpoints, nil
}

func compare(client *http.Client, newBase, legacyBase, token string, ep endpoint) result {
	res := result{Endpoint: ep}

	newStatus, newBody, newLatency, err := fetch(client, newBase, token, ep)
	if err != nil {
		res.Err = fmt.Errorf("registrar api: %w", err)
		return res
	}
	legacyStatus, legacyBody, legacyLatency, err := fetch(client, legacyBase, token, ep)
	if err != nil {
		res.Err = fmt.Errorf("legacy api: %w", err)
		return res
	}

	res.NewStatus = newStatus
	res.LegacyStatus = legacyStatus
	res.NewLatency = newLatency
	res.LegacyLatency = legacyLatency
	res.StatusMatch = newStatus == legacyStatus
	res.BodyMatch = equivalent(newBody, legacyBody)
	return res
}

func fetch(client *http.Client, base, token string, ep endpoint) (int, []byte, time.Duration, error) {
	method := strings.ToUpper(strings.TrimSpace(ep.Method))
	if method == "" {
		method = http.MethodGet
	}
	url := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ep.Path, "/")

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return 0, nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, 0, err
	}
	return resp.StatusCode, body, time.Since(start), nil
}

// equivalent compares bodies as JSON so formatting and key order do
// not count as diffs. Non-JSON bodies must match byte for byte.
func equivalent(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var av, bv interface{}
	if json.Unmarshal(a, &av) != nil || json.Unmarshal(b, &bv) != nil {
		return false
	}
	canonicalize(&av)
	canonicalize(&bv)
	return reflect.DeepEqual(av, bv)
}

// canonicalize folds whole-valued floats to int64 so 30 and 30.0
// compare equal across the two JSON encoders.
func canonicalize(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k, child := range val {
			canonicalize(&child)
			val[k] = child
		}
	case []interface{}:
		for i, child := range val {
			canonicalize(&child)
			val[i] = child
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func report(results []result) {
	fmt.Println("shadow compare")
	fmt.Println("--------------")
	for _, res := range results {
		verdict := "ok"
		switch {
		case res.Err != nil:
			verdict = "error"
		case res.broken():
			verdict = "diff"
		}
		fmt.Printf("[%-5s] %s %s\n", verdict, res.Endpoint.Method, res.Endpoint.Path)
		if res.Err != nil {
			fmt.Printf("        %v\n", res.Err)
			continue
		}
		fmt.Printf("        status %d/%d  latency %s/%s  critical=%t\n",
			res.NewStatus, res.LegacyStatus, res.NewLatency, res.LegacyLatency, res.Endpoint.Critical)
	}
}
