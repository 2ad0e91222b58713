package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	assistantx "github.com/nvejas/citeline/agent/agents/assistant"
	contractx "github.com/nvejas/citeline/agent/contract"
	llmx "github.com/nvejas/citeline/agent/llm"
	promptx "github.com/nvejas/citeline/agent/prompt"
	ragx "github.com/nvejas/citeline/agent/rag"
	routerx "github.com/nvejas/citeline/agent/router"
	statex "github.com/nvejas/citeline/agent/state"
	configx "github.com/nvejas/citeline/pkg/config"
	_ "github.com/nvejas/citeline/pkg/logger/autoload"
	openrouterx "github.com/nvejas/citeline/pkg/openrouter"
	searchx "github.com/nvejas/citeline/pkg/search"
)

type AppConfig struct {
	SearchProvider string `envconfig:"SEARCH_PROVIDER" default:"stub"`
	ChatProvider   string `envconfig:"CHAT_PROVIDER" default:"stub"`
	RouterMode     string `envconfig:"ROUTER_MODE" default:"heuristic"`
	StateBackend   string `envconfig:"STATE_BACKEND" default:"memory"`
	SessionID      string `envconfig:"SESSION_ID"`
}

func main() {
	ctx := context.Background()
	appCfg := configx.MustNew[AppConfig]("")

	pipeline, err := ragx.New(buildSearcher(*appCfg))
	if err != nil {
		log.Fatal().Err(err).Msg("build rag pipeline")
	}

	agentCfg := configx.MustNew[assistantx.Config]("AGENT")
	agent, err := assistantx.New(
		buildStore(ctx, *appCfg),
		buildDecider(*appCfg),
		pipeline,
		buildGenerator(ctx, *appCfg),
		*agentCfg,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("build assistant")
	}

	archive := buildArchive(ctx)
	if archive != nil {
		defer archive.Close()
	}

	sessionID := strings.TrimSpace(appCfg.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	log.Info().
		Str("session_id", sessionID).
		Str("search_provider", appCfg.SearchProvider).
		Str("chat_provider", appCfg.ChatProvider).
		Str("router_mode", appCfg.RouterMode).
		Str("state_backend", appCfg.StateBackend).
		Msg("agent ready")

	fmt.Println("RAG-enabled agent (demo). Type 'exit' or Ctrl-C to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			fmt.Println("bye")
			break
		}

		reply, err := agent.Reply(ctx, sessionID, line)
		if err != nil {
			log.Error().Err(err).Msg("reply failed")
			continue
		}

		printReply(reply)

		if archive != nil {
			rec := statex.NewTurnRecord(sessionID, line, reply, time.Now())
			if err := archive.Record(ctx, rec); err != nil {
				log.Warn().Err(err).Msg("archive turn")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("read input")
	}
}

func printReply(reply contractx.Reply) {
	fmt.Printf("Bot: %s\n", reply.Text)
	if reply.Kind == contractx.ReplyKindRag && reply.Rag != nil && len(reply.Rag.Citations) > 0 {
		fmt.Println("Sources:")
		for _, src := range reply.Rag.Citations {
			fmt.Printf(" - %s\n", src)
		}
	}
	fmt.Println()

	log.Debug().
		Bool("routed", reply.Decision.Routed).
		Float64("question_word", reply.Decision.Scores.QuestionWord).
		Float64("trigger", reply.Decision.Scores.Trigger).
		Float64("source_word", reply.Decision.Scores.SourceWord).
		Float64("specificity", reply.Decision.Scores.Specificity).
		Msg("route decision")
}

func buildSearcher(cfg AppConfig) contractx.Searcher {
	switch strings.ToLower(cfg.SearchProvider) {
	case "", "stub":
		return searchx.NewStub(0)
	case "web":
		searcher, err := searchx.NewClient(*configx.MustNew[searchx.ClientConfig]("SEARCH"))
		if err != nil {
			log.Fatal().Err(err).Msg("build web searcher")
		}
		return searcher
	case "elastic":
		searcher, err := searchx.NewElastic(*configx.MustNew[searchx.ElasticConfig]("ELASTIC"))
		if err != nil {
			log.Fatal().Err(err).Msg("build elasticsearch searcher")
		}
		return searcher
	default:
		log.Fatal().Str("provider", cfg.SearchProvider).Msg("unknown search provider")
		return nil
	}
}

func buildStore(ctx context.Context, cfg AppConfig) statex.Store {
	switch strings.ToLower(cfg.StateBackend) {
	case "", "memory":
		return statex.NewMemoryStore()
	case "redis":
		store, err := statex.NewRedisStore(*configx.MustNew[statex.RedisConfig]("REDIS"))
		if err != nil {
			log.Fatal().Err(err).Msg("build redis store")
		}
		if err := store.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("redis unreachable")
		}
		return store
	default:
		log.Fatal().Str("backend", cfg.StateBackend).Msg("unknown state backend")
		return nil
	}
}

func buildDecider(cfg AppConfig) routerx.Decider {
	heuristic := routerx.New(*configx.MustNew[routerx.Config]("ROUTER"))

	switch strings.ToLower(cfg.RouterMode) {
	case "", "heuristic":
		return heuristic
	case "classifier":
		llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
		if err := llmCfg.Validate(); err != nil {
			log.Fatal().Err(err).Msg("invalid openrouter config")
		}

		orCfg := llmCfg.OpenRouterFor(llmx.RoleClassifier)
		client := openrouterx.NewClient(orCfg)
		if client == nil {
			log.Fatal().Msg("openrouter api key is required for the classifier")
		}

		classifier, err := llmx.NewLabelClassifier(client, orCfg.Model, promptx.LoadPromptSet().Classifier)
		if err != nil {
			log.Fatal().Err(err).Msg("build label classifier")
		}
		decider, err := llmx.NewClassifierDecider(classifier, heuristic)
		if err != nil {
			log.Fatal().Err(err).Msg("build classifier decider")
		}
		return decider
	default:
		log.Fatal().Str("mode", cfg.RouterMode).Msg("unknown router mode")
		return nil
	}
}

func buildGenerator(ctx context.Context, cfg AppConfig) contractx.Generator {
	switch strings.ToLower(cfg.ChatProvider) {
	case "", "stub":
		return llmx.StubGenerator{}
	case "openrouter":
		llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
		if err := llmCfg.Validate(); err != nil {
			log.Fatal().Err(err).Msg("invalid openrouter config")
		}

		orCfg := llmCfg.OpenRouterFor(llmx.RoleChat)
		model, err := orCfg.New(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("create chat model")
		}
		generator, err := llmx.NewChatGenerator(ctx, model, promptx.LoadPromptSet().Chat)
		if err != nil {
			log.Fatal().Err(err).Msg("build chat generator")
		}
		return generator
	default:
		log.Fatal().Str("provider", cfg.ChatProvider).Msg("unknown chat provider")
		return nil
	}
}

func buildArchive(ctx context.Context) *statex.PostgresArchive {
	cfg := configx.MustNew[statex.ArchiveConfig]("ARCHIVE")
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil
	}

	archive, err := statex.NewPostgresArchive(*cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build turn archive")
	}
	if err := archive.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("init turn archive")
	}
	return archive
}
