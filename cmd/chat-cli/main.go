// Command chat-cli is a terminal chat client: it runs the intake
// questionnaire, relays messages to the server, and polls for operator
// replies in the background.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"chatrelay/pkg/conversation"
	"chatrelay/pkg/shutdown"
	"chatrelay/pkg/utils"
)

func main() {
	server := flag.String("server", "http://127.0.0.1:8080", "chat relay server base URL")
	statePath := flag.String("state", "./.chat-state.json", "path for persisted conversation state")
	interval := flag.Duration("interval", 3*time.Second, "reply poll interval")
	flag.Parse()

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	c := &client{base: strings.TrimRight(*server, "/"), hc: &http.Client{Timeout: 10 * time.Second}}
	fs := conversation.NewFileStore(*statePath)
	in := bufio.NewScanner(os.Stdin)

	st, resumed := fs.Load()
	m := conversation.NewMachine(nil)
	if resumed && st.QuestionnaireComplete && st.Token != "" {
		m.Resume(st)
		fmt.Println("Welcome back! Resuming your conversation.")
	} else {
		st = conversation.Fresh()
	}
	if st.SessionID == "" {
		st.SessionID = utils.GenSessionID()
	}

	runIntake(m, in, &st)

	if err := fs.Save(st); err != nil {
		fmt.Fprintf(os.Stderr, "could not persist state: %v\n", err)
	}

	fmt.Println("You're connected. Type a message and press enter (ctrl-c to quit).")

	// the poller goroutine and the input loop both touch the token
	var mu sync.Mutex
	token := func() string {
		mu.Lock()
		defer mu.Unlock()
		return st.Token
	}
	setToken := func(tok string) {
		mu.Lock()
		defer mu.Unlock()
		st.Token = tok
	}

	// background reply loop; starts delivering once a token exists
	p := &conversation.Poller{
		Interval: *interval,
		Poll: func(ctx context.Context, cursor string) ([]conversation.Reply, string, error) {
			tok := token()
			if tok == "" {
				return nil, cursor, nil
			}
			return c.poll(ctx, tok, cursor)
		},
		OnReply: func(r conversation.Reply) {
			fmt.Printf("\roperator: %s\n> ", r.Text)
		},
	}
	go func() {
		if err := p.Run(ctx); errors.Is(err, conversation.ErrUnauthorized) {
			fmt.Println("\rsession expired; your next message starts a new conversation")
			setToken("")
		}
	}()

	for {
		fmt.Print("> ")
		if !in.Scan() {
			return
		}
		msg := strings.TrimSpace(in.Text())
		if msg == "" {
			continue
		}
		tok, _, err := c.relay(ctx, msg, st.SessionID, token())
		if err != nil {
			fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
			continue
		}
		setToken(tok)
		mu.Lock()
		saveErr := fs.Save(st)
		mu.Unlock()
		if saveErr != nil {
			fmt.Fprintf(os.Stderr, "could not persist state: %v\n", saveErr)
		}
	}
}

// runIntake drives the questionnaire and contact stages on stdin, recording
// progress into st.
func runIntake(m *conversation.Machine, in *bufio.Scanner, st *conversation.State) {
	for m.Stage() == conversation.StageQuestionnaire {
		q, _ := m.Current()
		fmt.Println(q.Prompt)
		for i, opt := range q.Options {
			fmt.Printf("  %d) %s\n", i+1, opt)
		}
		fmt.Print("choice: ")
		if !in.Scan() {
			os.Exit(0)
		}
		n, err := strconv.Atoi(strings.TrimSpace(in.Text()))
		if err != nil || m.Answer(n-1) != nil {
			fmt.Println("please enter one of the listed numbers")
			continue
		}
	}

	for m.Stage() == conversation.StageContact {
		fmt.Print("your name: ")
		if !in.Scan() {
			os.Exit(0)
		}
		name := in.Text()
		fmt.Print("your email: ")
		if !in.Scan() {
			os.Exit(0)
		}
		if err := m.SubmitContact(name, in.Text()); err != nil {
			fmt.Println(err)
		}
	}

	st.QuestionnaireComplete = true
	st.Answers = m.Answers()
	st.Name = m.Name()
	st.Email = m.Email()
}

type client struct {
	base string
	hc   *http.Client
}

type relayResponse struct {
	Success  bool   `json:"success"`
	Token    string `json:"token"`
	ThreadID string `json:"threadId"`
	Error    string `json:"error"`
}

func (c *client) relay(ctx context.Context, msg, sessionID, tok string) (string, string, error) {
	body, _ := json.Marshal(map[string]string{
		"message":   msg,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"sessionId": sessionID,
		"token":     tok,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/v1/chat/relay", bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	var out relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", err
	}
	if !out.Success {
		return "", "", fmt.Errorf("%s", orUnknown(out.Error))
	}
	return out.Token, out.ThreadID, nil
}

type pollResponse struct {
	Success  bool   `json:"success"`
	Messages []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
		TS   string `json:"ts"`
	} `json:"messages"`
	Cursor string `json:"cursor"`
	Error  string `json:"error"`
	Retry  bool   `json:"retry"`
}

func (c *client) poll(ctx context.Context, tok, cursor string) ([]conversation.Reply, string, error) {
	q := url.Values{}
	q.Set("token", tok)
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/v1/chat/poll?"+q.Encode(), nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, "", conversation.ErrUnauthorized
	}
	var out pollResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, "", err
	}
	if !out.Success {
		// retry:true and server-side failures both back off and try again
		return nil, "", fmt.Errorf("%s", orUnknown(out.Error))
	}
	replies := make([]conversation.Reply, 0, len(out.Messages))
	for _, msg := range out.Messages {
		replies = append(replies, conversation.Reply{ID: msg.ID, Text: msg.Text, TS: msg.TS})
	}
	return replies, out.Cursor, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown error"
	}
	return s
}
