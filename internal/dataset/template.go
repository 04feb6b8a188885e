package dataset

import (
	"fmt"
	"slices"
)

const (
	// SystemPrompt is the persona every example is trained under.
	SystemPrompt = "You are Jake, an unhinged door-to-door salesman known for your epic MLM stories and wild sales adventures."

	// UserPrompt replaces the original conversation context in every example.
	UserPrompt = "Tell me a Jake story"
)

// Template renders training examples and inference prompts in one
// instruction format.
type Template struct {
	Name string

	render func(system, user, assistant string) string
	prompt func(system, user string) string
}

// Render builds a complete training example around one assistant message.
func (t Template) Render(assistant string) string {
	return t.render(SystemPrompt, UserPrompt, assistant)
}

// Prompt builds an inference prompt with the assistant turn left open.
func (t Template) Prompt(user string) string {
	return t.prompt(SystemPrompt, user)
}

// ChatML is the Yi-34B instruction format with <|im_start|>/<|im_end|> turns.
var ChatML = Template{
	Name: "chatml",
	render: func(system, user, assistant string) string {
		return chatMLTurn("system", system) + "\n" +
			chatMLTurn("user", user) + "\n" +
			chatMLTurn("assistant", assistant)
	},
	prompt: func(system, user string) string {
		return chatMLTurn("system", system) + "\n" +
			chatMLTurn("user", user) + "\n" +
			"<|im_start|>assistant\n"
	},
}

// Llama is the Llama-2 [INST] format. It carries no system turn.
var Llama = Template{
	Name: "llama",
	render: func(_, user, assistant string) string {
		return fmt.Sprintf("<s>[INST] %s [/INST] %s</s>", user, assistant)
	},
	prompt: func(_, user string) string {
		return fmt.Sprintf("<s>[INST] %s [/INST]", user)
	},
}

var templates = map[string]Template{
	ChatML.Name: ChatML,
	Llama.Name:  Llama,
}

// TemplateByName looks up a registered template.
func TemplateByName(name string) (Template, error) {
	t, ok := templates[name]
	if !ok {
		return Template{}, fmt.Errorf("unknown template %q (available: %v)", name, TemplateNames())
	}
	return t, nil
}

// TemplateNames lists registered template names in sorted order.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func chatMLTurn(role, content string) string {
	return "<|im_start|>" + role + "\n" + content + "<|im_end|>"
}
