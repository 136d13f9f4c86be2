// Package helpchat is the scripted support chat shown to shoppers. It answers
// a handful of known questions verbatim and replies with a canned line
// otherwise.
package helpchat

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
)

type Sender string

const (
	FromUser Sender = "user"
	FromBot  Sender = "bot"
)

const Greeting = "Hello! How can I help you?"

type Message struct {
	Text string    `json:"text"`
	From Sender    `json:"from"`
	Time time.Time `json:"time"`
}

// QA is a ready question and the answer sent when a shopper asks it.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

var ReadyQuestions = []QA{
	{Question: "How do I buy a product?", Answer: `Add it to the cart and press "Check Out".`},
	{Question: "How do I register?", Answer: `Open the "Registration" page and fill in the form.`},
	{Question: "How do I contact support?", Answer: "Use the contact form or email us."},
	{Question: "Order status", Answer: "Open your profile to see your order status."},
}

var fallbackReplies = []string{
	"Thanks for your message! An operator will get back to you shortly.",
	"Could you tell us a little more about your question?",
	"We are looking into it, please wait a moment.",
	"Good question! Please check the ready answers above in the meantime.",
}

var operatorNames = []string{
	"Nino", "Giorgi", "Mariam", "Luka", "Ana",
	"Davit", "Salome", "Levan", "Tamar", "Nika",
}

// View is a snapshot of the conversation.
type View struct {
	Operator string    `json:"operator,omitempty"`
	Messages []Message `json:"messages"`
}

// Chat is one shopper's conversation. It is safe for concurrent use.
type Chat struct {
	mu       sync.Mutex
	messages []Message
	operator string
	intn     func(n int) int
	now      func() time.Time
}

type Option func(*Chat)

// WithRand replaces the random source used for replies and operator names.
func WithRand(intn func(n int) int) Option {
	return func(c *Chat) { c.intn = intn }
}

func WithClock(now func() time.Time) Option {
	return func(c *Chat) { c.now = now }
}

func New(opts ...Option) *Chat {
	c := &Chat{intn: rand.IntN, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.messages = []Message{c.greeting()}
	return c
}

// Send records the shopper's message and the bot reply. Blank text is
// rejected and leaves the conversation untouched.
func (c *Chat) Send(text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, pkgerrors.New(pkgerrors.CodeValidation, "message text is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, Message{Text: text, From: FromUser, Time: c.now()})
	if c.operator == "" {
		c.operator = operatorNames[c.intn(len(operatorNames))]
	}
	reply := Message{Text: c.answer(text), From: FromBot, Time: c.now()}
	c.messages = append(c.messages, reply)
	return reply, nil
}

func (c *Chat) answer(text string) string {
	for _, qa := range ReadyQuestions {
		if qa.Question == text {
			return qa.Answer
		}
	}
	return fallbackReplies[c.intn(len(fallbackReplies))]
}

func (c *Chat) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{Operator: c.operator, Messages: append([]Message(nil), c.messages...)}
}

// Reset restores the greeting and forgets the operator.
func (c *Chat) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = []Message{c.greeting()}
	c.operator = ""
}

func (c *Chat) greeting() Message {
	return Message{Text: Greeting, From: FromBot, Time: c.now()}
}
