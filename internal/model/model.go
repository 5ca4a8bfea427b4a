package model

import "context"

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one prior message sent to the model as conversation context.
type Turn struct {
	Role Role
	Text string
}

type Request struct {
	System      string
	History     []Turn
	Prompt      string
	Temperature *float64
}

// Generator sends a prompt to a hosted model and returns its raw text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
