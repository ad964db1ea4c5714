package agent

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/0muji4/ifacenav/internal/nav"
	"github.com/0muji4/ifacenav/internal/workspace"
)

const (
	DefaultModel  = "gemini-2.5-flash"
	maxIterations = 10
	maxRetries    = 2
)

// Generator produces the next model turn. *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Agent answers navigation questions about a Go project in a ReAct loop,
// calling the navigator and the workspace as tools.
type Agent struct {
	gen          Generator
	model        string
	systemPrompt string
	rootPath     string

	provider  nav.Provider
	navigator *nav.Navigator
	navOpts   []nav.Option
	reader    workspace.FileReader
	changes   workspace.ChangeLister
	logger    *zap.SugaredLogger

	retryWait func(attempt int) time.Duration
	history   []*genai.Content
}

type Option func(*Agent)

func WithModel(model string) Option {
	return func(a *Agent) {
		if model != "" {
			a.model = model
		}
	}
}

func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) { a.systemPrompt = prompt }
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRetryWait sets how long to wait before retrying a rate-limited call.
func WithRetryWait(wait func(attempt int) time.Duration) Option {
	return func(a *Agent) { a.retryWait = wait }
}

// WithNavOptions configures the navigator built over the provider.
func WithNavOptions(opts ...nav.Option) Option {
	return func(a *Agent) { a.navOpts = append(a.navOpts, opts...) }
}

func New(
	gen Generator,
	rootPath string,
	provider nav.Provider,
	reader workspace.FileReader,
	changes workspace.ChangeLister,
	opts ...Option,
) *Agent {
	a := &Agent{
		gen:      gen,
		model:    DefaultModel,
		rootPath: rootPath,
		provider: provider,
		reader:   reader,
		changes:  changes,
		logger:   zap.NewNop().Sugar(),
		retryWait: func(attempt int) time.Duration {
			return time.Duration(30*attempt) * time.Second
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.navigator = nav.New(provider, append([]nav.Option{nav.WithLogger(a.logger)}, a.navOpts...)...)
	return a
}

// NewGemini builds an agent backed by the Gemini API.
func NewGemini(
	ctx context.Context,
	apiKey string,
	rootPath string,
	provider nav.Provider,
	reader workspace.FileReader,
	changes workspace.ChangeLister,
	opts ...Option,
) (*Agent, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create genai client")
	}
	return New(client.Models, rootPath, provider, reader, changes, opts...), nil
}

// Run answers one question. History is kept across calls.
func (a *Agent) Run(ctx context.Context, query string) (string, error) {
	a.history = append(a.history, genai.NewContentFromText(query, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{FunctionDeclarations: declarations()}},
	}
	if a.systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(a.systemPrompt)},
		}
	}

	for i := 0; i < maxIterations; i++ {
		a.logger.Debugw("thinking", "iteration", i+1, "max", maxIterations)

		resp, err := a.generate(ctx, config)
		if err != nil {
			return "", err
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
				a.history = append(a.history, resp.Candidates[0].Content)
			}
			return resp.Text(), nil
		}
		a.history = append(a.history, resp.Candidates[0].Content)

		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			result, err := a.execute(ctx, call)
			if err != nil {
				result = "Error: " + err.Error()
			}
			a.logger.Infow("tool call", "tool", call.Name, "args", call.Args, "error", err)
			parts = append(parts, genai.NewPartFromFunctionResponse(call.Name, map[string]any{"result": result}))
		}
		a.history = append(a.history, &genai.Content{Role: "tool", Parts: parts})

		// one round left: ask for the answer
		if i == maxIterations-2 {
			a.history = append(a.history, genai.NewContentFromText(
				"One tool call remains. Answer now from what you have found, with path:line locations.",
				genai.RoleUser,
			))
		}
	}
	return "", errors.New("agent: loop limit exceeded")
}

// generate calls the model, retrying rate-limited requests.
func (a *Agent) generate(ctx context.Context, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	for attempt := 0; ; attempt++ {
		resp, err := a.gen.GenerateContent(ctx, a.model, a.history, config)
		if err == nil {
			return resp, nil
		}
		if !rateLimited(err) || attempt >= maxRetries {
			return nil, errors.Wrap(err, "agent: generate content")
		}

		wait := a.retryWait(attempt + 1)
		a.logger.Warnw("rate limited, retrying", "wait", wait, "attempt", attempt+1)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func rateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429
	}
	return false
}
