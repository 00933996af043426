package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/parleyhq/parley/agent"
	"github.com/parleyhq/parley/config"
	"github.com/parleyhq/parley/db"
	"github.com/parleyhq/parley/llm"
	"github.com/parleyhq/parley/server"
	"github.com/parleyhq/parley/session"
	"github.com/parleyhq/parley/tools"
	"github.com/parleyhq/parley/tools/mcp"
)

func main() {
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	promptFlag := flag.String("prompt", "", "Path to system prompt file (overrides config)")
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debugFlag {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load()
	if err != nil {
		fatal("Error loading configuration: %+v", err)
	}
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}
	if *promptFlag != "" {
		cfg.SystemPromptPath = *promptFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional persistence. A missing or unreachable cluster downgrades to
	// in-memory operation instead of blocking startup (tools and sessions
	// that need it simply are not wired in).
	var mongoDB *db.Mongo
	if cfg.MongoURI != "" {
		mongoDB, err = db.Connect(ctx, cfg.MongoURI)
		if err != nil {
			slog.Error("failed to connect to MongoDB", "error", err)
			slog.Warn("continuing without MongoDB connection")
			mongoDB = nil
		} else {
			defer func() {
				if err := mongoDB.Close(context.Background()); err != nil {
					slog.Warn("MongoDB disconnect failed", "error", err)
				}
			}()
		}
	} else {
		slog.Info("no MONGO_CONNECTION_STRING provided, skipping MongoDB initialization")
	}

	registry := tools.NewRegistry()
	mustRegister(registry, &tools.CurrentTimeTool{})
	mustRegister(registry, &tools.WeatherTool{})
	if mongoDB != nil {
		notes := mongoDB.Collection(cfg.MongoDatabase, "notes")
		mustRegister(registry, &tools.SaveNoteTool{Coll: notes})
		mustRegister(registry, &tools.ListNotesTool{Coll: notes})
	}

	var mcpClients []*mcp.Client
	for _, srv := range cfg.AdditionalMCPServers {
		client, err := mcp.NewClient(ctx, srv.Name, srv.Command, srv.Args)
		if err != nil {
			slog.Error("failed to initialize MCP server, skipping", "server", srv.Name, "error", err)
			continue
		}
		mcpClients = append(mcpClients, client)
		for _, t := range client.Tools() {
			mustRegister(registry, t)
		}
	}
	defer func() {
		for _, client := range mcpClients {
			if err := client.Stop(); err != nil {
				slog.Warn("failed to stop MCP server", "server", client.Name, "error", err)
			}
		}
	}()

	// Provider construction fails fast when the selected provider's
	// credential is absent from the environment.
	client, err := llm.New(ctx, cfg.LLMClient, cfg.Model)
	if err != nil {
		fatal("Error initializing %s client: %+v", cfg.LLMClient, err)
	}

	systemPrompt, err := agent.LoadSystemPrompt(cfg.SystemPromptPath)
	if err != nil {
		fatal("Error loading system prompt: %+v", err)
	}

	activeTools, err := registry.Active(cfg.ToolPatterns())
	if err != nil {
		fatal("Error selecting tools: %+v", err)
	}

	a := agent.New(client, activeTools, systemPrompt, cfg.MaxToolIterations)
	slog.Info("agent ready", "provider", cfg.LLMClient, "model", cfg.Model, "tools", a.Tools())

	var store session.Store
	if mongoDB != nil {
		store = session.NewMongoStore(mongoDB.Collection(cfg.MongoDatabase, "sessions"))
	} else {
		store = session.NewMemoryStore()
	}

	srv := server.New(cfg.Addr, a, store, cfg.InvokeTimeout())
	if err := srv.Start(ctx); err != nil {
		fatal("Server stopped with an error: %+v", err)
	}
}

func mustRegister(r *tools.Registry, t tools.Tool) {
	if err := r.Register(t); err != nil {
		fatal("Error registering tool: %+v", err)
	}
}

func fatal(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
