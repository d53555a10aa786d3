package agent

import (
	"encoding/json"

	"github.com/simonyos/geochat/internal/llm"
	"github.com/simonyos/geochat/internal/tools"
)

// Message is a chat message plus, for tool messages, the structured result
// behind its text.
type Message struct {
	llm.Message
	Result *tools.Result `json:"result,omitempty"`
}

// Conversation is the ordered history of one session. It is a value: Append
// returns a new Conversation and never modifies the receiver.
type Conversation struct {
	messages []Message
}

// NewConversation starts a history with the system instruction
func NewConversation(system string) Conversation {
	if system == "" {
		return Conversation{}
	}
	return Conversation{messages: []Message{{Message: llm.Message{Role: llm.RoleSystem, Content: system}}}}
}

// Append returns a copy of c with msgs added at the end
func (c Conversation) Append(msgs ...Message) Conversation {
	out := make([]Message, len(c.messages), len(c.messages)+len(msgs))
	copy(out, c.messages)
	return Conversation{messages: append(out, msgs...)}
}

// Len returns the number of messages
func (c Conversation) Len() int {
	return len(c.messages)
}

// Messages returns a copy of the history
func (c Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// At returns the i-th message
func (c Conversation) At(i int) Message {
	return c.messages[i]
}

// Last returns the most recent message
func (c Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// LLMMessages projects the history into the model request shape
func (c Conversation) LLMMessages() []llm.Message {
	out := make([]llm.Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.Message
	}
	return out
}

// Results returns every structured tool result in order
func (c Conversation) Results() []tools.Result {
	var out []tools.Result
	for _, m := range c.messages {
		if m.Result != nil {
			out = append(out, *m.Result)
		}
	}
	return out
}

// Reset keeps only the system instruction
func (c Conversation) Reset() Conversation {
	if len(c.messages) > 0 && c.messages[0].Role == llm.RoleSystem {
		return Conversation{messages: []Message{c.messages[0]}}
	}
	return Conversation{}
}

func (c Conversation) MarshalJSON() ([]byte, error) {
	if c.messages == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.messages)
}

func (c *Conversation) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &c.messages)
}

func userMessage(text string) Message {
	return Message{Message: llm.Message{Role: llm.RoleUser, Content: text}}
}

func assistantMessage(text string, calls []llm.ToolCall) Message {
	return Message{Message: llm.Message{Role: llm.RoleAssistant, Content: text, ToolCalls: calls}}
}

func toolMessage(call llm.ToolCall, res tools.Result) Message {
	return Message{
		Message: llm.Message{
			Role:       llm.RoleTool,
			Content:    res.Content(),
			ToolCallID: call.ID,
			Name:       call.Name,
			IsError:    !res.OK(),
		},
		Result: &res,
	}
}
