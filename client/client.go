package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AmanSingh2427/Chat-app/models"
	"github.com/AmanSingh2427/Chat-app/ws"
)

// Client talks to the chat server: REST for history, directory and
// sends, a websocket for the live event stream.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	token string
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// envelope is the server's uniform response wrapper.
type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  string          `json:"errors"`
}

func (c *Client) Login(email, password string) (*models.LoginResponse, error) {
	var res models.LoginResponse
	err := c.post("/api/v1/auth/login", models.LoginRequest{Email: email, Password: password}, &res)
	if err != nil {
		return nil, err
	}
	c.token = res.AccessToken
	return &res, nil
}

// SetToken installs an access token obtained elsewhere.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Profile() (*models.ProfileResponse, error) {
	var res models.ProfileResponse
	if err := c.get("/api/v1/me", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Directory() ([]models.PeerSummary, error) {
	var res []models.PeerSummary
	if err := c.get("/api/v1/users", &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) Groups() ([]models.GroupResponse, error) {
	var res []models.GroupResponse
	if err := c.get("/api/v1/groups", &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) CreateGroup(name string, userIDs []uint) (*models.GroupResponse, error) {
	var res models.GroupResponse
	err := c.post("/api/v1/groups", models.CreateGroupRequest{Name: name, UserIDs: userIDs}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) DirectMessages(peerID uint) ([]models.MessageResponse, error) {
	var res []models.MessageResponse
	if err := c.get(fmt.Sprintf("/api/v1/messages/direct/%d", peerID), &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) GroupMessages(groupID uint) ([]models.MessageResponse, error) {
	var res []models.MessageResponse
	if err := c.get(fmt.Sprintf("/api/v1/messages/group/%d", groupID), &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) SendDirectMessage(receiverID uint, body string) (*models.MessageResponse, error) {
	var res models.MessageResponse
	err := c.post("/api/v1/messages/direct", models.SendMessageRequest{ReceiverID: receiverID, Body: body}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) SendGroupMessage(groupID uint, body string) (*models.MessageResponse, error) {
	var res models.MessageResponse
	err := c.post("/api/v1/messages/group", models.SendGroupMessageRequest{GroupID: groupID, Body: body}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) MarkRead(peerID uint) error {
	return c.post("/api/v1/messages/read", models.MarkReadRequest{UserID: peerID}, nil)
}

// Subscribe dials the push channel and delivers newMessage events on
// the returned channel until the connection drops, then closes it.
// There is no replay: events published while disconnected are gone, and
// the caller recovers by re-fetching history.
func (c *Client) Subscribe() (<-chan models.NewMessageEvent, error) {
	wsURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	wsURL.Path = "/ws"
	wsURL.RawQuery = "token=" + url.QueryEscape(c.token)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		return nil, err
	}

	events := make(chan models.NewMessageEvent, 64)
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			rawEvent := struct {
				Type string                 `json:"type"`
				Data models.NewMessageEvent `json:"data"`
			}{}
			if err := conn.ReadJSON(&rawEvent); err != nil {
				return
			}
			if rawEvent.Type == ws.EventNewMessage {
				events <- rawEvent.Data
			}
		}
	}()
	return events, nil
}

func (c *Client) get(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		if env.Errors != "" {
			return fmt.Errorf("%s", env.Errors)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
