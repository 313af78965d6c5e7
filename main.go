package main

import (
	"github.com/rs/zerolog/log"

	consolex "github.com/pricewatch/pricewatch/agent/console"
	contractx "github.com/pricewatch/pricewatch/agent/contract"
	executorx "github.com/pricewatch/pricewatch/agent/executor"
	routerx "github.com/pricewatch/pricewatch/agent/router"
	storex "github.com/pricewatch/pricewatch/agent/store"
	toolx "github.com/pricewatch/pricewatch/agent/tool"
	workflowx "github.com/pricewatch/pricewatch/agent/workflow"
	configx "github.com/pricewatch/pricewatch/pkg/config"
	_ "github.com/pricewatch/pricewatch/pkg/logger/autoload"
	mailerx "github.com/pricewatch/pricewatch/pkg/mailer"
	openrouterx "github.com/pricewatch/pricewatch/pkg/openrouter"
)

type AppConfig struct {
	UseLLMRouter bool `envconfig:"USE_LLM_ROUTER" split_words:"true" default:"false"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")

	dbCfg := configx.MustNew[storex.Config]("DB")
	st, err := storex.NewBunStore(*dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize data store")
	}
	defer st.Close()

	mailCfg := configx.MustNew[mailerx.Config]("MAILER")
	mail := mailerx.MustNew(*mailCfg)

	exec := executorx.New(st, mail)
	registry := toolx.NewRegistry(toolx.Deps{
		Store:    st,
		Executor: exec,
	})

	var agentRouter contractx.Router = routerx.New()
	if appCfg.UseLLMRouter {
		openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
		client := openrouterx.NewClient(*openRouterCfg)
		if client == nil {
			log.Fatal().Msg("failed to initialize openrouter client")
		}
		agentRouter = routerx.NewLLM(client, openRouterCfg.Model, openRouterCfg.Timeout)
	}

	runner := workflowx.NewRunner(exec)

	embedded := consolex.New(agentRouter, registry, runner, nil)
	_ = embedded

	for _, agentType := range []contractx.AgentType{
		contractx.AgentTypePricing,
		contractx.AgentTypeManagement,
		contractx.AgentTypeAnalysis,
	} {
		log.Info().
			Str("agent", string(agentType)).
			Int("tools", len(registry.BuildForAgent(agentType))).
			Msg("agent tool set bound")
	}

	log.Info().
		Bool("llmRouter", appCfg.UseLLMRouter).
		Msg("tool subsystem ready")
}
