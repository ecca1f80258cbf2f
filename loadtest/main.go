package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	BaseURL   = "http://localhost:8080"
	WSURL     = "ws://localhost:8080/ws"
	PairCount = 200 // ⚠️ Each pair is a seller + a buyer. Start small.
	MsgCount  = 20  // Replies per side after first contact.
)

// The migration only seeds roles, so run the server once and create a
// category as an admin before pointing this at it.
const CategoryID = 1

type AuthResponse struct {
	Token string `json:"access_token"`
	ID    int    `json:"id"`
	Login string `json:"login"`
}

type FlashResponse struct {
	Redirect string `json:"redirect"`
}

type ContactResponse struct {
	ConversationID int    `json:"conversation_id"`
	Redirect       string `json:"redirect"`
}

type AdvertPage struct {
	Items []struct {
		ID    int    `json:"id"`
		Topic string `json:"topic"`
	} `json:"items"`
}

func main() {
	log.Printf("🔥 STARTING STRESS TEST: %d Users, %d Messages each...", PairCount*2, MsgCount)
	var wg sync.WaitGroup

	// Pair 0: seller u_0_a lists an advert, buyer u_0_b contacts it. And so on.
	for i := 0; i < PairCount; i++ {
		wg.Add(1)
		go func(pairID int) {
			defer wg.Done()
			runPair(pairID)
		}(i)
	}

	wg.Wait()
	log.Println("✅ LOAD TEST COMPLETE")
}

func runPair(pairID int) {
	seller := fmt.Sprintf("u_%d_a", pairID)
	buyer := fmt.Sprintf("u_%d_b", pairID)
	pass := "password123"

	sellerAuth := authenticate(seller, pass)
	buyerAuth := authenticate(buyer, pass)
	if sellerAuth == nil || buyerAuth == nil {
		return
	}

	// Seller lists an advert, buyer finds it through search and opens the
	// conversation with a first message.
	// Trailing dot keeps the substring search exact: "item 1." never matches
	// "item 12.".
	topic := fmt.Sprintf("loadtest item %d.", pairID)
	advertID := createAdvert(sellerAuth.Token, topic)
	if advertID == 0 {
		return
	}

	convID := contactAdvert(buyerAuth.Token, advertID)
	if convID == 0 {
		return
	}

	var wsWg sync.WaitGroup
	wsWg.Add(2)

	go spamReplies(&wsWg, sellerAuth, convID)
	go spamReplies(&wsWg, buyerAuth, convID)

	wsWg.Wait()
}

// authenticate registers (ignores error if exists) and logs in
func authenticate(login, password string) *AuthResponse {
	postJSON("/register", "", map[string]string{
		"login":    login,
		"password": password,
		"name":     "Load",
		"surname":  "Test",
		"email":    login + "@loadtest.local",
	})

	resp, err := postJSON("/login", "", map[string]string{"login": login, "password": password})
	if err != nil {
		log.Printf("❌ Login Failed [%s]: %v", login, err)
		return nil
	}
	defer resp.Body.Close()

	var data AuthResponse
	json.NewDecoder(resp.Body).Decode(&data)
	if data.Token == "" {
		log.Printf("❌ Login Failed [%s]: status %d", login, resp.StatusCode)
		return nil
	}
	return &data
}

// createAdvert posts a new listing and finds its id back through search. The
// create route answers with a redirect to the listing, not the row, so the
// unique topic is the lookup key.
func createAdvert(token, topic string) int {
	resp, err := postJSON("/api/adverts", token, map[string]interface{}{
		"category_id": CategoryID,
		"topic":       topic,
		"city":        "Loadville",
		"price":       100,
		"type":        "sale",
	})
	if err != nil || resp.StatusCode != http.StatusCreated {
		log.Printf("❌ Create Advert Failed [%s]: %v", topic, err)
		return 0
	}
	resp.Body.Close()

	req, _ := http.NewRequest("GET", BaseURL+"/api/search?topic="+url.QueryEscape(topic), nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()

	var page AdvertPage
	json.NewDecoder(resp.Body).Decode(&page)
	for _, a := range page.Items {
		if a.Topic == topic {
			return a.ID
		}
	}
	return 0
}

// contactAdvert sends the first message and returns the conversation id, for
// either outcome: newly created (redirect in the flash body) or already open
// (conversation_id in the plain body).
func contactAdvert(token string, advertID int) int {
	resp, err := postJSON(fmt.Sprintf("/api/adverts/%d/contact", advertID), token, map[string]string{
		"content": "Is it still available?",
	})
	if err != nil {
		log.Printf("❌ Contact Failed [advert %d]: %v", advertID, err)
		return 0
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		var data FlashResponse
		json.NewDecoder(resp.Body).Decode(&data)
		var id int
		fmt.Sscanf(data.Redirect, "/api/conversations/%d", &id)
		return id
	case http.StatusOK:
		var data ContactResponse
		json.NewDecoder(resp.Body).Decode(&data)
		return data.ConversationID
	default:
		log.Printf("❌ Contact Failed [advert %d]: status %d", advertID, resp.StatusCode)
		return 0
	}
}

// spamReplies holds a websocket open for the live feed while replying over
// the REST route, like a real client would.
func spamReplies(wg *sync.WaitGroup, auth *AuthResponse, convID int) {
	defer wg.Done()

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("%s?token=%s", WSURL, auth.Token), nil)
	if err != nil {
		log.Printf("❌ WS Connect Fail [%s]: %v", auth.Login, err)
		return
	}
	defer conn.Close()

	// Drain the feed in the background so the server never sees us as slow.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for i := 0; i < MsgCount; i++ {
		resp, err := postJSON(fmt.Sprintf("/api/conversations/%d/messages", convID), auth.Token, map[string]string{
			"content": fmt.Sprintf("LoadTest Msg %d from %s", i, auth.Login),
		})
		if err != nil {
			log.Printf("❌ Send Fail [%s]: %v", auth.Login, err)
			break
		}
		resp.Body.Close()
		// Small sleep to prevent instant localhost bottleneck (simulate real network)
		time.Sleep(10 * time.Millisecond)
	}
	log.Printf("✅ %s finished sending %d msgs", auth.Login, MsgCount)
}

func postJSON(endpoint, token string, data interface{}) (*http.Response, error) {
	jsonData, _ := json.Marshal(data)
	req, err := http.NewRequest("POST", BaseURL+endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return http.DefaultClient.Do(req)
}
