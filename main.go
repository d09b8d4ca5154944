package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"

	"ai_article_studio/config"
	"ai_article_studio/gateway"
	"ai_article_studio/generator"
	"ai_article_studio/render"
	"ai_article_studio/server"
	"ai_article_studio/store"
)

var verbose bool

func main() {
	configPath := flag.String("config", "config/config.json", "path to config.json")
	pageURL := flag.String("url", "", "source article url")
	topic := flag.String("topic", "", "topic to write about; without it the suggested topics are listed")
	storm := flag.Bool("storm", false, "research related sources while generating")
	regen := flag.String("regen", "", "regenerate one part after generating: engaging_text, perex, body or headlines")
	asHTML := flag.Bool("html", false, "print the article body as sanitized HTML")
	grammar := flag.String("grammar", "", "check the grammar of this text and exit")
	language := flag.String("lang", "", "grammar checker language (default sk)")
	serve := flag.Bool("serve", false, "start the preview backend")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config.server_addr)")
	flag.BoolVar(&verbose, "v", false, "enable info logs")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)
	if verbose {
		logger.SetLevel(logrus.InfoLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		exit(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Preview backend mode
	if *serve {
		if err := runServer(cfg, *addr, logger); err != nil {
			exit(err)
		}
		return
	}

	if err := cfg.RequireBackend(); err != nil {
		exit(err)
	}
	client, err := gateway.New(cfg.BackendURL, &http.Client{Timeout: cfg.Timeout()}, logger)
	if err != nil {
		exit(err)
	}

	if *grammar != "" {
		issues, err := client.CheckGrammar(ctx, *grammar, *language)
		if err != nil {
			exit(err)
		}
		for _, issue := range issues {
			fmt.Printf("%d:%d %s [%s] -> %s\n", issue.Offset, issue.Length, issue.Message, issue.RuleID, strings.Join(issue.Replacements, " | "))
		}
		return
	}

	if *pageURL == "" {
		exit(fmt.Errorf("--url is required"))
	}

	if *topic == "" {
		topics := store.NewTopicsStore(client, store.WithLogger(logger))
		topics.FetchTopics(ctx, *pageURL)
		if topics.Error() {
			exit(fmt.Errorf("topic discovery failed for %s", *pageURL))
		}
		for i, t := range topics.Topics() {
			fmt.Printf("%d. %s\n", i+1, t)
		}
		return
	}

	articles := store.NewArticleStore(client, store.WithLogger(logger))
	articles.FetchArticle(ctx, *pageURL, *topic, *storm)
	if articles.Error() {
		exit(fmt.Errorf("article generation failed for topic %q", *topic))
	}

	switch *regen {
	case "":
	case "engaging_text":
		articles.RegenerateEngagingText(ctx)
	case "perex":
		articles.RegeneratePerex(ctx)
	case "body":
		articles.RegenerateBody(ctx)
	case "headlines":
		articles.RegenerateSuggestions(ctx)
	default:
		exit(fmt.Errorf("unknown --regen value %q", *regen))
	}
	if articles.Error() {
		exit(fmt.Errorf("regenerating %s failed", *regen))
	}

	if err := printDraft(articles.Snapshot(), *asHTML); err != nil {
		exit(err)
	}
}

func runServer(cfg config.Config, addr string, logger *logrus.Logger) error {
	llm, err := buildLLM(cfg)
	if err != nil {
		return err
	}
	agent, err := generator.NewAgent(llm)
	if err != nil {
		return err
	}
	srv, err := server.New(agent, nil, logger)
	if err != nil {
		return err
	}
	listen := cfg.ServerAddr
	if addr != "" {
		listen = addr
	}
	if listen == "" {
		listen = ":8000"
	}
	logger.WithField("addr", listen).Warn("starting preview backend")
	return http.ListenAndServe(listen, srv.Routes())
}

func printDraft(d store.ArticleDraft, asHTML bool) error {
	fmt.Printf("# %s\n\n", d.Title)
	if len(d.TitleSuggestions) > 1 {
		fmt.Println("Other headlines:")
		for _, h := range d.TitleSuggestions[1:] {
			fmt.Printf("  - %s\n", h)
		}
		fmt.Println()
	}
	if d.EngagingText != "" {
		fmt.Printf("%s\n\n", d.EngagingText)
	}
	if d.Perex != "" {
		fmt.Printf("> %s\n\n", d.Perex)
	}

	if asHTML {
		html, err := render.BodyHTML(d.Body)
		if err != nil {
			return err
		}
		fmt.Println(html)
	} else {
		for _, p := range render.Paragraphs(d.Body) {
			fmt.Printf("%s\n\n", p)
		}
	}

	if len(d.Tags) > 0 {
		fmt.Printf("Tags: %s\n", strings.Join(d.Tags, ", "))
	}
	if d.HasGraph {
		g := d.Graph
		fmt.Printf("Chart: %s %q (%s / %s)\n", g.Type, g.Title, g.XAxisLabel, g.YAxisLabel)
		for i, label := range g.Labels {
			if i < len(g.Values) {
				fmt.Printf("  %s: %g\n", label, g.Values[i])
			}
		}
	}
	if len(d.StormSources) > 0 {
		fmt.Println("Sources:")
		for _, src := range d.StormSources {
			fmt.Printf("  - %s\n", src)
		}
	}
	return nil
}

func buildLLM(cfg config.Config) (generator.LLMClient, error) {
	if cfg.LLM == nil || cfg.LLM.Provider == "" {
		return nil, fmt.Errorf("llm config missing; please set llm.provider/model/api_key in config")
	}
	settings := &generator.LLMSettings{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
	}
	switch cfg.LLM.Provider {
	case "openai":
		return generator.NewOpenAILLMFromConfig(settings)
	case "deepseek":
		// DeepSeek speaks the OpenAI protocol but has no default endpoint.
		if cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(settings)
	case "mock":
		return generator.MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}

func exit(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
