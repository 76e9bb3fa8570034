// Command incubatorctl drives a running Inception backend from the terminal:
// it starts an incubation session and follows it to the final business plan,
// or sends a single chat message.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

type startResponse struct {
	TaskID                   string `json:"task_id"`
	Status                   string `json:"status"`
	Message                  string `json:"message"`
	EstimatedDurationMinutes int    `json:"estimated_duration_minutes"`
}

type resultResponse struct {
	TaskID          string   `json:"task_id"`
	Status          string   `json:"status"`
	BusinessPlan    string   `json:"business_plan"`
	Error           string   `json:"error"`
	ProgressLog     []string `json:"progress_log"`
	DurationMinutes int      `json:"duration_minutes"`
	CompletedAgents int      `json:"completed_agents"`
	AgentInsights   []struct {
		Role    string `json:"role"`
		Name    string `json:"agent_name"`
		Status  string `json:"status"`
		Insight string `json:"insight"`
		Error   string `json:"error"`
	} `json:"agent_insights"`
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	base := flag.String("base", "http://127.0.0.1:3000", "backend base URL")
	idea := flag.String("idea", "", "business idea to incubate")
	chat := flag.String("chat", "", "send one chat message instead of incubating")
	poll := flag.Duration("poll", 5*time.Second, "result poll interval")
	timeout := flag.Duration("timeout", 65*time.Minute, "overall wait budget")
	flag.Parse()

	client := &http.Client{Timeout: 2 * time.Minute}
	baseURL := strings.TrimSuffix(*base, "/")

	switch {
	case *chat != "":
		runChat(client, baseURL, *chat)
	case *idea != "":
		runIncubation(client, baseURL, *idea, *poll, *timeout)
	default:
		flag.Usage()
		log.Fatal("provide -idea to start a session or -chat to send one message")
	}
}

func runChat(client *http.Client, baseURL, message string) {
	var reply struct {
		Response string `json:"response"`
	}
	if err := postJSON(client, baseURL+"/chat", map[string]string{"message": message}, &reply); err != nil {
		log.Fatalf("chat failed: %v", err)
	}
	fmt.Println(reply.Response)
}

func runIncubation(client *http.Client, baseURL, idea string, poll, timeout time.Duration) {
	var accepted startResponse
	if err := postJSON(client, baseURL+"/incubator", map[string]string{"business_idea": idea}, &accepted); err != nil {
		log.Fatalf("failed to start session: %v", err)
	}
	log.Printf("session %s accepted (estimated %d minutes)", accepted.TaskID, accepted.EstimatedDurationMinutes)

	deadline := time.Now().Add(timeout)
	printed := 0
	for {
		if time.Now().After(deadline) {
			log.Fatalf("gave up waiting for session %s after %s", accepted.TaskID, timeout)
		}
		time.Sleep(poll)

		var result resultResponse
		if err := getJSON(client, baseURL+"/incubator-result/"+accepted.TaskID, &result); err != nil {
			log.Fatalf("failed to poll session: %v", err)
		}

		if printed > len(result.ProgressLog) {
			printed = len(result.ProgressLog)
		}
		for _, line := range result.ProgressLog[printed:] {
			log.Print(line)
		}
		printed = len(result.ProgressLog)

		switch result.Status {
		case "completed":
			log.Printf("session completed in %d minutes, %d/%d agents contributed",
				result.DurationMinutes, result.CompletedAgents, len(result.AgentInsights))
			for _, insight := range result.AgentInsights {
				if insight.Status != "completed" {
					log.Printf("%s failed: %s", insight.Name, insight.Error)
				}
			}
			fmt.Println(result.BusinessPlan)
			return
		case "failed":
			log.Fatalf("session failed: %s", result.Error)
		}
	}
}

func postJSON(client *http.Client, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func getJSON(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return fmt.Errorf("%s: %s", resp.Status, payload.Error)
	}
	return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
}
