package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"auction-bidsync/internal/auctionapi"
	model "auction-bidsync/internal/models"
	"auction-bidsync/internal/push"
	"auction-bidsync/internal/reconciler"
	"auction-bidsync/internal/server"
	"auction-bidsync/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testAuctionID = "march-madness"
	testViewerID  = int64(5)
)

// pusherHub is a minimal Pusher Channels server: it accepts clients, records
// their subscriptions and fans published events out to them.
type pusherHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]map[string]bool
	url     string
	joined  chan struct{}
}

func newPusherHub(t *testing.T) *pusherHub {
	t.Helper()
	hub := &pusherHub{clients: map[*websocket.Conn]map[string]bool{}, joined: make(chan struct{}, 64)}
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.serve(conn)
	}))
	t.Cleanup(func() {
		hub.dropAll()
		srv.Close()
	})
	hub.url = "ws" + strings.TrimPrefix(srv.URL, "http") + "/app/test-key?protocol=7"
	return hub
}

func (h *pusherHub) serve(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = map[string]bool{}
	err := conn.WriteJSON(map[string]any{
		"event": "pusher:connection_established",
		"data":  `{"socket_id":"1.1","activity_timeout":120}`,
	})
	h.mu.Unlock()
	if err != nil {
		return
	}

	for {
		var f struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&f); err != nil {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			return
		}
		if f.Event != "pusher:subscribe" {
			continue
		}
		var sub struct {
			Channel string `json:"channel"`
		}
		_ = json.Unmarshal(f.Data, &sub)
		h.mu.Lock()
		h.clients[conn][sub.Channel] = true
		_ = conn.WriteJSON(map[string]any{"event": "pusher_internal:subscription_succeeded", "channel": sub.Channel, "data": "{}"})
		h.mu.Unlock()
		h.joined <- struct{}{}
	}
}

// Publish sends event on channel to every subscriber, string-encoded the way
// Pusher does it.
func (h *pusherHub) Publish(channel, event string, data any) {
	payload, _ := json.Marshal(data)
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, subs := range h.clients {
		if subs[channel] {
			_ = conn.WriteJSON(map[string]any{"event": event, "channel": channel, "data": string(payload)})
		}
	}
}

// waitSubscribed blocks until n subscriptions have been acknowledged
func (h *pusherHub) waitSubscribed(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-h.joined:
		case <-time.After(3 * time.Second):
			t.Fatalf("only %d of %d subscriptions arrived", i, n)
		}
	}
}

func (h *pusherHub) dropAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

// fakeAuctionService mimics the auction REST API, publishing a bid-event
// through the hub for every accepted bid.
type fakeAuctionService struct {
	mu           sync.Mutex
	hub          *pusherHub
	activeItemID int64
	items        map[int64]*model.AuctionItem
	members      map[int64]string
	itemGates    map[int64]chan struct{}
	leaves       int
}

func newFakeAuctionService(hub *pusherHub, items ...model.AuctionItem) *fakeAuctionService {
	svc := &fakeAuctionService{
		hub:       hub,
		items:     map[int64]*model.AuctionItem{},
		members:   map[int64]string{},
		itemGates: map[int64]chan struct{}{},
	}
	for i := range items {
		item := items[i]
		svc.items[item.ID] = &item
	}
	return svc
}

// gate holds every fetch of itemID until the returned func is called
func (s *fakeAuctionService) gate(itemID int64) func() {
	ch := make(chan struct{})
	s.mu.Lock()
	s.itemGates[itemID] = ch
	s.mu.Unlock()
	return func() { close(ch) }
}

func (s *fakeAuctionService) setActive(itemID int64) {
	s.mu.Lock()
	s.activeItemID = itemID
	s.mu.Unlock()
}

func (s *fakeAuctionService) leaveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaves
}

func (s *fakeAuctionService) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	a := r.Group("/auctions/:auction")

	a.GET("/join", func(c *gin.Context) {
		s.mu.Lock()
		s.members[testViewerID] = "viewer"
		s.mu.Unlock()
		s.hub.Publish("auction-"+testAuctionID, push.EventMembers, map[string]any{})
		c.Status(http.StatusOK)
	})

	a.POST("/:id/leave", func(c *gin.Context) {
		uid, _ := strconv.ParseInt(c.Param("id"), 10, 64)
		s.mu.Lock()
		delete(s.members, uid)
		s.leaves++
		s.mu.Unlock()
		c.Status(http.StatusOK)
	})

	a.GET("/members", func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		out := make([]model.MemberRecord, 0, len(s.members))
		for id, name := range s.members {
			var rec model.MemberRecord
			rec.UserID = id
			rec.User.ID = id
			rec.User.Name = name
			out = append(out, rec)
		}
		c.JSON(http.StatusOK, out)
	})

	a.GET("/get-by-id", func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		c.JSON(http.StatusOK, model.AuctionSummary{Name: "March Madness", ActiveItemID: s.activeItemID})
	})

	a.GET("/:id/get-active-item", func(c *gin.Context) {
		id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
		s.mu.Lock()
		gate := s.itemGates[id]
		s.mu.Unlock()
		if gate != nil {
			select {
			case <-gate:
			case <-c.Request.Context().Done():
				return
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		item, ok := s.items[id]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"message": "item not found"})
			return
		}
		c.JSON(http.StatusOK, item.Clone())
	})

	a.POST("/:id/bid", func(c *gin.Context) {
		id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
		var req struct {
			BidAmount decimal.Decimal `json:"bidAmount"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "malformed bid"})
			return
		}

		s.mu.Lock()
		item, ok := s.items[id]
		if !ok || id != s.activeItemID {
			s.mu.Unlock()
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "Bidding is closed for this item"})
			return
		}
		minimum := item.StartingBid
		if len(item.Bids) > 0 {
			minimum = item.Bids[0].BidAmount.Add(item.MinimumBidIncrement)
		}
		if req.BidAmount.LessThan(minimum) {
			s.mu.Unlock()
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": fmt.Sprintf("Bid must be at least $%s", minimum.StringFixed(2))})
			return
		}
		item.Bids = append([]model.Bid{{UserID: testViewerID, BidAmount: req.BidAmount, CreatedAt: time.Now().UTC()}}, item.Bids...)
		s.mu.Unlock()

		s.hub.Publish("auction-"+testAuctionID, push.EventBid, map[string]any{"itemId": id})
		c.JSON(http.StatusOK, gin.H{"status": true, "winning": true})
	})

	return r
}

// harness is one viewer session attached to the fake service, with the viewer
// API in front of it.
type harness struct {
	hub     *pusherHub
	api     *fakeAuctionService
	session *session.Session
	viewer  http.Handler
	runErr  error
	runDone chan struct{}
}

func newHarness(t *testing.T, items ...model.AuctionItem) *harness {
	t.Helper()
	hub := newPusherHub(t)
	api := newFakeAuctionService(hub, items...)
	upstream := httptest.NewServer(api.router())
	t.Cleanup(upstream.Close)

	client := auctionapi.NewClient(upstream.URL, 2*time.Second)
	subscriber := push.NewPusherClient(push.PusherOptions{}, push.WithURL(hub.url), push.WithBackoff(10*time.Millisecond, 50*time.Millisecond))
	sess := session.New(client, subscriber, session.Options{
		AuctionID:     testAuctionID,
		UserID:        testViewerID,
		Channels:      reconciler.Channels("auction-"+testAuctionID, "auctions"),
		BeaconTimeout: time.Second,
	})

	return &harness{
		hub:     hub,
		api:     api,
		session: sess,
		viewer:  server.WithCORS(server.SetupRouter(sess), nil),
		runDone: make(chan struct{}),
	}
}

// start opens the session and runs it until the test ends
func (h *harness) start(t *testing.T) {
	t.Helper()
	require.NoError(t, h.session.Open(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		h.runErr = h.session.Run(ctx)
		close(h.runDone)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-h.runDone:
		case <-time.After(3 * time.Second):
		}
	})
	h.hub.waitSubscribed(t, 2)
}

// waitRun blocks until Run returns and reports its error
func (h *harness) waitRun(t *testing.T) error {
	t.Helper()
	select {
	case <-h.runDone:
		return h.runErr
	case <-time.After(3 * time.Second):
		t.Fatal("session kept running")
		return nil
	}
}

// ExecuteRequestAndParse executes an HTTP request on the viewer API and parses the envelope
func (h *harness) ExecuteRequestAndParse(t *testing.T, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	h.viewer.ServeHTTP(w, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return resp, w
}

// eventuallySession polls GET /session until cond holds
func (h *harness) eventuallySession(t *testing.T, cond func(data map[string]any) bool) map[string]any {
	t.Helper()
	var last map[string]any
	require.Eventually(t, func() bool {
		resp, w := h.ExecuteRequestAndParse(t, http.MethodGet, "/session", nil)
		if w.Code != http.StatusOK {
			return false
		}
		last = resp["data"].(map[string]any)
		return cond(last)
	}, 3*time.Second, 10*time.Millisecond, "last session state: %v", last)
	return last
}

func auctionItem(id int64, name string, starting, increment int64) model.AuctionItem {
	return model.AuctionItem{
		ID:                  id,
		Name:                name,
		StartingBid:         decimal.NewFromInt(starting),
		MinimumBidIncrement: decimal.NewFromInt(increment),
		Bids:                []model.Bid{},
	}
}
