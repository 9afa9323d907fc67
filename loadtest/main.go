package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	BaseURL   = "http://localhost:8080"
	WSURL     = "ws://localhost:8080/ws"
	PairCount = 100 // Each pair is one team owner plus one member
	MsgCount  = 20  // Messages per user per direction
)

type authResponse struct {
	Token string `json:"access_token"`
	ID    string `json:"id"`
}

type wsEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func main() {
	log.Printf("Starting stress test: %d pairs, %d messages each way...", PairCount, MsgCount)
	var wg sync.WaitGroup

	for i := 0; i < PairCount; i++ {
		wg.Add(1)
		go func(pairID int) {
			defer wg.Done()
			runPair(pairID)
		}(i)
	}

	wg.Wait()
	log.Println("Load test complete")
}

func runPair(pairID int) {
	emailA := fmt.Sprintf("owner_%d@load.test", pairID)
	emailB := fmt.Sprintf("member_%d@load.test", pairID)
	pass := "password123"

	tokenA, idA := authenticate(emailA, pass)
	tokenB, _ := authenticate(emailB, pass)
	if tokenA == "" || tokenB == "" {
		return
	}

	// Owner A invites B so B's membership links on the next login.
	invite(tokenA, emailB)
	tokenB, idB := authenticate(emailB, pass)
	if tokenB == "" {
		return
	}

	var wsWg sync.WaitGroup
	wsWg.Add(2)
	go spamChat(&wsWg, tokenA, idA, idB, emailA)
	go spamChat(&wsWg, tokenB, idA, idA, emailB)
	wsWg.Wait()
}

// authenticate registers (ignoring already-exists) and logs in.
func authenticate(email, password string) (string, string) {
	body := map[string]string{"email": email, "password": password, "display_name": email}
	postJSON("/register", body)

	resp, err := postJSON("/login", map[string]string{"email": email, "password": password})
	if err != nil {
		log.Printf("login failed [%s]: %v", email, err)
		return "", ""
	}
	defer resp.Body.Close()

	var data authResponse
	json.NewDecoder(resp.Body).Decode(&data)
	return data.Token, data.ID
}

func invite(token, email string) {
	body, _ := json.Marshal(map[string]string{"email": email, "name": email})
	req, _ := http.NewRequest("POST", BaseURL+"/api/members", bytes.NewBuffer(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("invite failed: %v", err)
		return
	}
	resp.Body.Close()
}

// spamChat opens a websocket, joins the owner's team channel, then opens a
// DM with the peer and floods it.
func spamChat(wg *sync.WaitGroup, token, ownerID, peerID, user string) {
	defer wg.Done()

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("%s?token=%s", WSURL, token), nil)
	if err != nil {
		log.Printf("ws connect failed [%s]: %v", user, err)
		return
	}
	defer conn.Close()

	// Drain server events so the write side never stalls on backpressure.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(eventType string, data any) error {
		payload, _ := json.Marshal(data)
		return conn.WriteJSON(wsEvent{Type: eventType, Data: payload})
	}

	if err := send("join", map[string]string{"owner_id": ownerID}); err != nil {
		log.Printf("join failed [%s]: %v", user, err)
		return
	}
	if err := send("open_dm", map[string]string{"owner_id": ownerID, "peer_id": peerID}); err != nil {
		log.Printf("open_dm failed [%s]: %v", user, err)
		return
	}

	for i := 0; i < MsgCount; i++ {
		err := send("send", map[string]string{
			"body": fmt.Sprintf("load test message %d from %s", i, user),
		})
		if err != nil {
			log.Printf("send failed [%s]: %v", user, err)
			break
		}
		// Simulate real client pacing.
		time.Sleep(10 * time.Millisecond)
	}
	log.Printf("%s finished sending %d msgs", user, MsgCount)
}

func postJSON(endpoint string, data any) (*http.Response, error) {
	jsonData, _ := json.Marshal(data)
	return http.Post(BaseURL+endpoint, "application/json", bytes.NewBuffer(jsonData))
}
